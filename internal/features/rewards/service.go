// Package rewards — service.go выдаёт награды. Проверка окна и отметка
// о получении выполняются в той же единице, что и начисление:
// две одновременные попытки не получат награду дважды.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Random — источник случайной суммы награды.
type Random interface {
	IntN(n int) int
}

// Service — шлюз наград.
type Service struct {
	ledger  *ledger.Service
	clock   quartz.Clock
	rng     Random
	rewards map[string]Reward
}

// NewService создаёт шлюз наград.
func NewService(ledgerSvc *ledger.Service, clock quartz.Clock, rng Random, rewards []Reward) *Service {
	m := make(map[string]Reward, len(rewards))
	for _, r := range rewards {
		m[r.Kind] = r
	}
	return &Service{ledger: ledgerSvc, clock: clock, rng: rng, rewards: m}
}

func (s *Service) reward(kind string) (Reward, error) {
	r, ok := s.rewards[kind]
	if !ok {
		return Reward{}, fmt.Errorf("%w: %s", common.ErrUnknownReward, kind)
	}
	return r, nil
}

// lastClaim — указатель на поле отметки получения нужного вида.
func lastClaim(acc *storage.Account, kind string) **time.Time {
	if kind == KindQuest {
		return &acc.LastQuestClaim
	}
	return &acc.LastDailyClaim
}

func (s *Service) amount(r Reward) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + int64(s.rng.IntN(int(r.Max-r.Min+1)))
}

// Claim выдаёт награду kind. Окно не истекло — *common.CooldownError.
func (s *Service) Claim(ctx context.Context, accountID, kind string) (*ClaimResult, error) {
	r, err := s.reward(kind)
	if err != nil {
		return nil, err
	}

	res := &ClaimResult{Kind: kind}
	err = s.ledger.Within(ctx, []string{accountID}, func(u *ledger.Unit) error {
		acc, err := u.Ensure(accountID, "")
		if err != nil {
			return err
		}
		if err := u.RequireActive(acc); err != nil {
			return err
		}

		now := u.Now()
		last := lastClaim(acc, kind)
		if *last != nil {
			if next := r.Window.Next(**last); now.Before(next) {
				return &common.CooldownError{Kind: kind, Remaining: next.Sub(now)}
			}
		}

		res.Amount = s.amount(r)
		claimed := now
		*last = &claimed
		if _, err := u.Apply(acc, ledger.Entry{Kind: kind, Outcome: "награда получена", Delta: res.Amount}); err != nil {
			return err
		}
		res.NewBalance = acc.Balance
		res.NextAt = r.Window.Next(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": accountID,
		"kind":       kind,
		"delta":      res.Amount,
		"balance":    res.NewBalance,
	}).Info("Награда выдана")
	return res, nil
}

// Status возвращает время до следующей награды (0 — доступна сейчас).
func (s *Service) Status(ctx context.Context, accountID, kind string) (time.Duration, error) {
	r, err := s.reward(kind)
	if err != nil {
		return 0, err
	}
	acc, err := s.ledger.Get(ctx, accountID)
	if errors.Is(err, common.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	last := *lastClaim(acc, kind)
	if last == nil {
		return 0, nil
	}
	remaining := r.Window.Next(*last).Sub(s.clock.Now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
