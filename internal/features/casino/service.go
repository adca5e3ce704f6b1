// Package casino — service.go связывает игры с кошельком:
// проверка ставки, выключатели, розыгрыш, выплата, серии.
package casino

import (
	"context"
	"fmt"
	"math"
	"slices"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/features/streak"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Service — диспетчер ставок.
type Service struct {
	store   storage.Store
	ledger  *ledger.Service
	tracker *streak.Tracker
	games   map[string]Game
	rng     RandomSource
	minBet  int64
	maxBet  int64
}

// NewService создаёт диспетчер. rng == nil — криптостойкий источник.
func NewService(store storage.Store, ledgerSvc *ledger.Service, tracker *streak.Tracker,
	rules Rules, rng RandomSource, minBet, maxBet int64) *Service {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Service{
		store:   store,
		ledger:  ledgerSvc,
		tracker: tracker,
		games:   NewGames(rules),
		rng:     rng,
		minBet:  minBet,
		maxBet:  maxBet,
	}
}

// Limits возвращает границы ставки.
func (s *Service) Limits() (minBet, maxBet int64) { return s.minBet, s.maxBet }

// Game возвращает игру по виду.
func (s *Service) Game(kind string) (Game, error) {
	g, ok := s.games[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownGame, kind)
	}
	return g, nil
}

// Enabled — включена ли игра. Игры, которых админ не касался, включены.
func (s *Service) Enabled(ctx context.Context, kind string) (bool, error) {
	enabled, found, err := s.store.Switch(ctx, kind)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения выключателя: %w", err)
	}
	return !found || enabled, nil
}

// Switches возвращает состояние всех игр.
func (s *Service) Switches(ctx context.Context) (map[string]bool, error) {
	stored, err := s.store.Switches(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения выключателей: %w", err)
	}
	out := make(map[string]bool, len(Kinds))
	for _, k := range Kinds {
		enabled, found := stored[k]
		out[k] = !found || enabled
	}
	return out, nil
}

// Dispatch принимает ставку stake на игру kind с выбором selection.
//
// Порядок проверок: игра, границы ставки, выбор, выключатель —
// до открытия единицы; бан и stake <= balance — внутри неё.
// Любая ошибка оставляет кошелёк без изменений.
func (s *Service) Dispatch(ctx context.Context, kind, accountID string, stake int64, selection string) (*BetResult, error) {
	game, err := s.Game(kind)
	if err != nil {
		return nil, err
	}
	if stake <= 0 {
		return nil, fmt.Errorf("%w: ставка должна быть положительной", common.ErrInvalidStake)
	}
	if stake < s.minBet || stake > s.maxBet {
		return nil, fmt.Errorf("%w: ставка %d вне диапазона %d–%d", common.ErrInvalidStake, stake, s.minBet, s.maxBet)
	}
	sel, err := game.ParseSelection(selection)
	if err != nil {
		return nil, err
	}
	enabled, err := s.Enabled(ctx, kind)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %s", common.ErrFeatureDisabled, kind)
	}

	res := &BetResult{Game: kind, Stake: stake, Selection: sel}
	err = s.ledger.Within(ctx, []string{accountID}, func(u *ledger.Unit) error {
		acc, err := u.Ensure(accountID, "")
		if err != nil {
			return err
		}
		if err := u.RequireActive(acc); err != nil {
			return err
		}
		if stake > acc.Balance {
			return fmt.Errorf("%w: %w: ставка %d, баланс %d",
				common.ErrInvalidStake, common.ErrInsufficientFunds, stake, acc.Balance)
		}

		out := game.Play(s.rng, sel)
		delta := -stake
		if out.Win {
			if out.Multiplier > 0 && stake > math.MaxInt64/out.Multiplier {
				return fmt.Errorf("%w: выплата не помещается в баланс", common.ErrInvalidStake)
			}
			delta = stake * out.Multiplier
		}
		if _, err := u.Apply(acc, ledger.Entry{
			Kind:      kind,
			Stake:     stake,
			Selection: sel,
			Outcome:   out.Description,
			Delta:     delta,
		}); err != nil {
			return err
		}

		sr, err := s.tracker.Record(u, acc, out.Win)
		if err != nil {
			return err
		}

		res.Win = out.Win
		res.PayoutDelta = delta
		res.Outcome = out.Description
		res.NewBalance = acc.Balance
		res.StreakBonus = sr.Bonus
		res.WinStreak = sr.WinStreak
		res.LossStreak = sr.LossStreak
		res.Unlocked = sr.Unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": accountID,
		"game":       kind,
		"stake":      stake,
		"selection":  sel,
		"delta":      res.PayoutDelta,
		"balance":    res.NewBalance,
	}).Debug("Ставка сыграна")
	return res, nil
}

// Stats считает статистику игрока по журналу.
func (s *Service) Stats(ctx context.Context, accountID string) (*Stats, error) {
	if _, err := s.ledger.Get(ctx, accountID); err != nil {
		return nil, err
	}
	recs, err := s.store.History(ctx, accountID, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	return CalculateStats(recs), nil
}

// IsGameKind — запись журнала относится к игре.
func IsGameKind(kind string) bool {
	return slices.Contains(Kinds, kind)
}

