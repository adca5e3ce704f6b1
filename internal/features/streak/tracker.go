// Package streak — tracker.go обновляет серии в той же единице, что и ставка.
package streak

import (
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Tracker никогда не отклоняет ставку: он только реагирует на исход.
type Tracker struct {
	rule   Rule
	badges *achievements.Service
}

// NewTracker создаёт трекер серий.
func NewTracker(rule Rule, badges *achievements.Service) *Tracker {
	return &Tracker{rule: rule, badges: badges}
}

// Rule возвращает действующее правило.
func (t *Tracker) Rule() Rule { return t.rule }

// Record применяет исход ставки к аккаунту acc внутри единицы u.
//
// Победа: winStreak++, lossStreak=0, wins++; бонус при кратной серии.
// Поражение: lossStreak++, winStreak=0, losses++.
// Аккаунт сохраняется (при бонусе — через журнал).
func (t *Tracker) Record(u *ledger.Unit, acc *storage.Account, win bool) (*Result, error) {
	res := &Result{}

	if !win {
		acc.LossStreak++
		acc.WinStreak = 0
		acc.Losses++
		if err := u.Save(acc); err != nil {
			return nil, err
		}
		res.LossStreak = acc.LossStreak
		return res, nil
	}

	acc.WinStreak++
	acc.LossStreak = 0
	acc.Wins++
	res.WinStreak = acc.WinStreak

	if bonus := t.rule.CalculateBonus(acc.WinStreak); bonus > 0 {
		if _, err := u.Apply(acc, ledger.Entry{
			Kind:    ledger.KindStreakBonus,
			Outcome: "бонус за серию побед",
			Delta:   bonus,
		}); err != nil {
			return nil, err
		}
		res.Bonus = bonus
	} else if err := u.Save(acc); err != nil {
		return nil, err
	}

	if t.badges == nil {
		return res, nil
	}
	if acc.Wins == 1 {
		if ok, err := t.badges.Unlock(u, acc.ID, achievements.FirstWin); err != nil {
			return nil, err
		} else if ok {
			res.Unlocked = append(res.Unlocked, achievements.FirstWin)
		}
	}
	if t.rule.MasterWins > 0 && acc.WinStreak >= t.rule.MasterWins {
		if ok, err := t.badges.Unlock(u, acc.ID, achievements.StreakMaster); err != nil {
			return nil, err
		} else if ok {
			res.Unlocked = append(res.Unlocked, achievements.StreakMaster)
		}
	}
	return res, nil
}
