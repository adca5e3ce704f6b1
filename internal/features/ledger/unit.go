package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Unit — сериализованная единица работы над набором аккаунтов.
// Все фичи меняют баланс только через Unit.Apply, поэтому журнал
// всегда сходится с балансом.
type Unit struct {
	ctx context.Context
	tx  storage.Tx
	svc *Service
	now time.Time
}

// Within открывает единицу над ids. Ошибка fn откатывает всё.
func (s *Service) Within(ctx context.Context, ids []string, fn func(u *Unit) error) error {
	return s.store.Atomic(ctx, ids, func(ctx context.Context, tx storage.Tx) error {
		return fn(&Unit{ctx: ctx, tx: tx, svc: s, now: s.clock.Now()})
	})
}

// Context возвращает контекст единицы.
func (u *Unit) Context() context.Context { return u.ctx }

// Now — момент открытия единицы. Одно значение на всю операцию.
func (u *Unit) Now() time.Time { return u.now }

// Tx даёт доступ к хранилищу внутри единицы (инвентарь, значки).
func (u *Unit) Tx() storage.Tx { return u.tx }

// Load читает аккаунт. Нет аккаунта — common.ErrAccountNotFound.
func (u *Unit) Load(id string) (*storage.Account, error) {
	acc, err := u.tx.Account(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}
	return acc, err
}

// Ensure читает аккаунт или создаёт его со стартовым капиталом.
// Непустое displayName обновляет имя.
func (u *Unit) Ensure(id, displayName string) (*storage.Account, error) {
	acc, err := u.tx.Account(id)
	switch {
	case err == nil:
		if displayName != "" && displayName != acc.DisplayName {
			acc.DisplayName = displayName
			if err := u.tx.SaveAccount(acc); err != nil {
				return nil, err
			}
		}
		return acc, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	acc = &storage.Account{ID: id, DisplayName: displayName, CreatedAt: u.now}
	if err := u.tx.CreateAccount(acc); err != nil {
		return nil, err
	}
	if u.svc.startingBalance > 0 {
		if _, err := u.Apply(acc, Entry{Kind: KindGrant, Outcome: "стартовый капитал", Delta: u.svc.startingBalance}); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// RequireActive отклоняет операции забаненного аккаунта.
func (u *Unit) RequireActive(acc *storage.Account) error {
	if acc.IsBanned(u.now) {
		return fmt.Errorf("%w до %s", common.ErrBanned, acc.BannedUntil.UTC().Format(time.RFC3339))
	}
	return nil
}

// Apply двигает баланс на e.Delta, сохраняет аккаунт и пишет журнал.
// Отрицательный итог — common.ErrInsufficientFunds, ничего не меняется.
func (u *Unit) Apply(acc *storage.Account, e Entry) (*storage.BetRecord, error) {
	if e.Delta > 0 && acc.Balance > math.MaxInt64-e.Delta {
		return nil, fmt.Errorf("%w: переполнение баланса", common.ErrInvalidAmount)
	}
	next := acc.Balance + e.Delta
	if next < 0 {
		return nil, fmt.Errorf("%w: нужно %d, есть %d", common.ErrInsufficientFunds, -e.Delta, acc.Balance)
	}

	acc.Balance = next
	if err := u.tx.SaveAccount(acc); err != nil {
		return nil, err
	}

	rec := &storage.BetRecord{
		ID:          NewID(),
		AccountID:   acc.ID,
		GameKind:    e.Kind,
		Stake:       e.Stake,
		Selection:   e.Selection,
		Outcome:     e.Outcome,
		PayoutDelta: e.Delta,
		Balance:     next,
		CreatedAt:   u.now,
	}
	if err := u.tx.AppendRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save сохраняет поля аккаунта, не трогая баланс журнала.
func (u *Unit) Save(acc *storage.Account) error {
	return u.tx.SaveAccount(acc)
}

// Reset возвращает аккаунт к состоянию нового игрока: история очищается,
// баланс — стартовый, серии, счётчики и отметки наград обнуляются.
// Инвентарь, значки и бан сохраняются.
func (u *Unit) Reset(acc *storage.Account) error {
	if err := u.tx.ClearHistory(acc.ID); err != nil {
		return err
	}
	acc.Balance = 0
	acc.WinStreak, acc.LossStreak = 0, 0
	acc.Wins, acc.Losses = 0, 0
	acc.LastDailyClaim, acc.LastQuestClaim = nil, nil
	if err := u.tx.SaveAccount(acc); err != nil {
		return err
	}
	_, err := u.Apply(acc, Entry{Kind: KindGrant, Outcome: "сброс админом", Delta: u.svc.startingBalance})
	return err
}

// NewID — UUIDv7: упорядочен по времени, удобно для журнала.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
