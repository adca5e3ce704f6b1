// Package ledger — service.go содержит операции кошелька:
// ленивое создание, списание, начисление, переводы, установка баланса, журнал.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/quartz"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Service — единственный владелец балансов.
type Service struct {
	store           storage.Store
	clock           quartz.Clock
	startingBalance int64
}

// NewService создаёт кошелёк. startingBalance выдаётся каждому новому аккаунту.
func NewService(store storage.Store, clock quartz.Clock, startingBalance int64) *Service {
	return &Service{store: store, clock: clock, startingBalance: startingBalance}
}

// StartingBalance возвращает стартовый капитал.
func (s *Service) StartingBalance() int64 { return s.startingBalance }

// GetOrCreate возвращает аккаунт, создавая его при первом обращении.
func (s *Service) GetOrCreate(ctx context.Context, id, displayName string) (*storage.Account, error) {
	acc, err := s.store.Account(ctx, id)
	if err == nil && (displayName == "" || displayName == acc.DisplayName) {
		return acc, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}

	err = s.Within(ctx, []string{id}, func(u *Unit) error {
		acc, err = u.Ensure(id, displayName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Get возвращает существующий аккаунт.
func (s *Service) Get(ctx context.Context, id string) (*storage.Account, error) {
	acc, err := s.store.Account(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}
	return acc, nil
}

// Debit списывает amount > 0. Недостаточно средств — ErrInsufficientFunds.
func (s *Service) Debit(ctx context.Context, id string, amount int64, kind, note string) (*storage.Account, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	var acc *storage.Account
	err := s.Within(ctx, []string{id}, func(u *Unit) error {
		var err error
		if acc, err = u.Load(id); err != nil {
			return err
		}
		if err := u.RequireActive(acc); err != nil {
			return err
		}
		_, err = u.Apply(acc, Entry{Kind: kind, Outcome: note, Delta: -amount})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": id,
		"kind":       kind,
		"delta":      -amount,
		"balance":    acc.Balance,
	}).Debug("Списание")
	return acc, nil
}

// Credit начисляет amount >= 0.
func (s *Service) Credit(ctx context.Context, id string, amount int64, kind, note string) (*storage.Account, error) {
	if amount < 0 {
		return nil, common.ErrInvalidAmount
	}
	var acc *storage.Account
	err := s.Within(ctx, []string{id}, func(u *Unit) error {
		var err error
		if acc, err = u.Load(id); err != nil {
			return err
		}
		_, err = u.Apply(acc, Entry{Kind: kind, Outcome: note, Delta: amount})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": id,
		"kind":       kind,
		"delta":      amount,
		"balance":    acc.Balance,
	}).Debug("Начисление")
	return acc, nil
}

// Transfer переводит amount между аккаунтами. Обе ноги в одной единице:
// либо обе применены, либо ни одной. Получатель должен существовать.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64) (*TransferResult, error) {
	if fromID == toID {
		return nil, common.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	res := &TransferResult{}
	err := s.Within(ctx, []string{fromID, toID}, func(u *Unit) error {
		var err error
		if res.From, err = u.Load(fromID); err != nil {
			return err
		}
		if res.To, err = u.Load(toID); err != nil {
			return err
		}
		if err := u.RequireActive(res.From); err != nil {
			return err
		}
		if _, err := u.Apply(res.From, Entry{Kind: KindTransferOut, Selection: toID, Outcome: "перевод игроку " + toID, Delta: -amount}); err != nil {
			return err
		}
		_, err = u.Apply(res.To, Entry{Kind: KindTransferIn, Selection: fromID, Outcome: "перевод от игрока " + fromID, Delta: amount})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"from":    fromID,
		"to":      toID,
		"amount":  amount,
		"balance": res.From.Balance,
	}).Info("Перевод выполнен")
	return res, nil
}

// SetBalance выставляет баланс безусловно. В журнал пишется разница,
// поэтому сумма журнала по-прежнему равна балансу.
func (s *Service) SetBalance(ctx context.Context, id string, amount int64) (*storage.Account, error) {
	if amount < 0 {
		return nil, common.ErrInvalidAmount
	}
	var acc *storage.Account
	err := s.Within(ctx, []string{id}, func(u *Unit) error {
		var err error
		if acc, err = u.Load(id); err != nil {
			return err
		}
		_, err = u.Apply(acc, Entry{
			Kind:    KindAdminSet,
			Outcome: fmt.Sprintf("баланс выставлен: %d", amount),
			Delta:   amount - acc.Balance,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// History возвращает журнал аккаунта, новые записи первыми.
func (s *Service) History(ctx context.Context, id string, limit int) ([]*storage.BetRecord, error) {
	recs, err := s.store.History(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	return recs, nil
}

// HistoryOf — журнал только по одному виду операций (например, одной игре).
// kind == "" — весь журнал, как History.
func (s *Service) HistoryOf(ctx context.Context, id, kind string, limit int) ([]*storage.BetRecord, error) {
	if kind == "" {
		return s.History(ctx, id, limit)
	}
	all, err := s.History(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	var out []*storage.BetRecord
	for _, r := range all {
		if r.GameKind != kind {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// CheckIntegrity сверяет баланс с суммой журнала.
func (s *Service) CheckIntegrity(ctx context.Context, id string) error {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	recs, err := s.store.History(ctx, id, 0)
	if err != nil {
		return fmt.Errorf("ошибка получения истории: %w", err)
	}
	var sum int64
	for _, r := range recs {
		sum += r.PayoutDelta
	}
	if sum != acc.Balance {
		return fmt.Errorf("нарушена целостность %s: баланс %d, журнал %d", id, acc.Balance, sum)
	}
	return nil
}
