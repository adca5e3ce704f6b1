// Package admin — service.go выполняет админ-операции.
// Каждая операция начинается с IsAuthorized: без прав — ErrNotAuthorized
// и никаких изменений. Каждое действие пишется в аудит-лог.
package admin

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Service — ручное управление экономикой.
type Service struct {
	auth   *Authorizer
	ledger *ledger.Service
	store  storage.Store
}

// NewService создаёт админ-сервис.
func NewService(auth *Authorizer, ledgerSvc *ledger.Service, store storage.Store) *Service {
	return &Service{auth: auth, ledger: ledgerSvc, store: store}
}

// Auth возвращает проверку прав (для входа и фоновых задач).
func (s *Service) Auth() *Authorizer { return s.auth }

func (s *Service) authorize(ctx context.Context, callerID, action string) error {
	if s.auth.IsAuthorized(ctx, callerID) {
		return nil
	}
	log.WithFields(log.Fields{
		"caller_id": callerID,
		"action":    action,
	}).Warn("[ADMIN] Отказано в доступе")
	return common.ErrNotAuthorized
}

func audit(callerID, action string, fields log.Fields) {
	entry := log.WithFields(log.Fields{"caller_id": callerID, "action": action})
	entry.WithFields(fields).Info("[ADMIN] Действие выполнено")
}

// SetBalance выставляет баланс аккаунта.
func (s *Service) SetBalance(ctx context.Context, callerID, accountID string, amount int64) (*storage.Account, error) {
	if err := s.authorize(ctx, callerID, "set_balance"); err != nil {
		return nil, err
	}
	acc, err := s.ledger.SetBalance(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	audit(callerID, "set_balance", log.Fields{"account_id": accountID, "balance": acc.Balance})
	return acc, nil
}

// Gift начисляет amount > 0 фишек. Только начисление.
func (s *Service) Gift(ctx context.Context, callerID, accountID string, amount int64) (*storage.Account, error) {
	if err := s.authorize(ctx, callerID, "gift"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	acc, err := s.ledger.Credit(ctx, accountID, amount, ledger.KindAdminGift, "подарок от админа")
	if err != nil {
		return nil, err
	}
	audit(callerID, "gift", log.Fields{"account_id": accountID, "delta": amount, "balance": acc.Balance})
	return acc, nil
}

// ToggleGame включает или выключает игру kind.
func (s *Service) ToggleGame(ctx context.Context, callerID, kind string, enabled bool) error {
	if err := s.authorize(ctx, callerID, "toggle_game"); err != nil {
		return err
	}
	if !casino.IsGameKind(kind) {
		return fmt.Errorf("%w: %s", common.ErrUnknownGame, kind)
	}
	if err := s.store.PutSwitch(ctx, kind, enabled); err != nil {
		return fmt.Errorf("ошибка переключения игры: %w", err)
	}
	audit(callerID, "toggle_game", log.Fields{"game": kind, "enabled": enabled})
	return nil
}

// ResetAccount возвращает аккаунт к стартовому состоянию:
// стартовый баланс, без серий и истории.
func (s *Service) ResetAccount(ctx context.Context, callerID, accountID string) (*storage.Account, error) {
	if err := s.authorize(ctx, callerID, "reset"); err != nil {
		return nil, err
	}
	var acc *storage.Account
	err := s.ledger.Within(ctx, []string{accountID}, func(u *ledger.Unit) error {
		var err error
		if acc, err = u.Load(accountID); err != nil {
			return err
		}
		return u.Reset(acc)
	})
	if err != nil {
		return nil, err
	}
	audit(callerID, "reset", log.Fields{"account_id": accountID, "balance": acc.Balance})
	return acc, nil
}

// Ban запрещает аккаунту ставки, награды, покупки и переводы на d.
func (s *Service) Ban(ctx context.Context, callerID, accountID string, d time.Duration) (*storage.Account, error) {
	if err := s.authorize(ctx, callerID, "ban"); err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, fmt.Errorf("%w: срок бана должен быть положительным", common.ErrInvalidAmount)
	}
	acc, err := s.setBan(ctx, accountID, func(now time.Time) *time.Time {
		until := now.Add(d)
		return &until
	})
	if err != nil {
		return nil, err
	}
	audit(callerID, "ban", log.Fields{"account_id": accountID, "until": *acc.BannedUntil})
	return acc, nil
}

// Unban снимает бан.
func (s *Service) Unban(ctx context.Context, callerID, accountID string) (*storage.Account, error) {
	if err := s.authorize(ctx, callerID, "unban"); err != nil {
		return nil, err
	}
	acc, err := s.setBan(ctx, accountID, func(time.Time) *time.Time { return nil })
	if err != nil {
		return nil, err
	}
	audit(callerID, "unban", log.Fields{"account_id": accountID})
	return acc, nil
}

func (s *Service) setBan(ctx context.Context, accountID string, until func(now time.Time) *time.Time) (*storage.Account, error) {
	var acc *storage.Account
	err := s.ledger.Within(ctx, []string{accountID}, func(u *ledger.Unit) error {
		var err error
		if acc, err = u.Load(accountID); err != nil {
			return err
		}
		acc.BannedUntil = until(u.Now())
		return u.Save(acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Stats возвращает сводку по экономике.
func (s *Service) Stats(ctx context.Context, callerID string) (*Stats, error) {
	if err := s.authorize(ctx, callerID, "stats"); err != nil {
		return nil, err
	}
	return s.Summary(ctx, s.auth.clock.Now())
}

// Summary считает сводку без проверки прав. Используется ночным отчётом.
func (s *Service) Summary(ctx context.Context, now time.Time) (*Stats, error) {
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения аккаунтов: %w", err)
	}
	st := &Stats{Accounts: len(accounts)}
	for _, acc := range accounts {
		st.TotalBalance += acc.Balance
		if acc.IsBanned(now) {
			st.Banned++
		}
		recs, err := s.store.History(ctx, acc.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения истории: %w", err)
		}
		games := casino.CalculateStats(recs)
		st.Bets += games.TotalSpins
		st.Wagered += games.TotalWagered
		st.Won += games.TotalWon
	}
	return st, nil
}
