package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/casino-bot/internal/storage"
)

// Store — реализация storage.Store поверх pgxpool.
//
// Единица Atomic — одна транзакция READ COMMITTED. Перед работой берутся
// транзакционные advisory-блокировки на каждый id в порядке storage.LockOrder.
// Блокировка по ключу работает и для аккаунта, которого ещё нет в таблице,
// поэтому ленивое создание тоже сериализовано.
type Store struct {
	db *pgxpool.Pool
}

// NewStore создаёт хранилище над готовым пулом.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Atomic(ctx context.Context, accountIDs []string, fn func(ctx context.Context, tx storage.Tx) error) error {
	ids := storage.LockOrder(accountIDs)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откат после Commit — no-op
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if _, err := tx.Exec(ctx, qLockKey, id); err != nil {
			return fmt.Errorf("ошибка блокировки %s: %w", id, err)
		}
	}

	if err := fn(ctx, &pgTx{ctx: ctx, tx: tx, ids: ids}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, id string) (*storage.Account, error) {
	return scanAccount(s.db.QueryRow(ctx, qAccount, id))
}

func (s *Store) Accounts(ctx context.Context) ([]*storage.Account, error) {
	rows, err := s.db.Query(ctx, qAccounts)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения аккаунтов: %w", err)
	}
	defer rows.Close()

	var out []*storage.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) History(ctx context.Context, accountID string, limit int) ([]*storage.BetRecord, error) {
	var lim any
	if limit > 0 {
		lim = int64(limit)
	}
	rows, err := s.db.Query(ctx, qHistory, accountID, lim)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var out []*storage.BetRecord
	for rows.Next() {
		var r storage.BetRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.GameKind, &r.Stake, &r.Selection,
			&r.Outcome, &r.PayoutDelta, &r.Balance, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) Inventory(ctx context.Context, accountID string) ([]*storage.InventoryEntry, error) {
	rows, err := s.db.Query(ctx, qInventory, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var out []*storage.InventoryEntry
	for rows.Next() {
		var e storage.InventoryEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.ItemID, &e.AcquiredAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) Achievements(ctx context.Context, accountID string) ([]*storage.Achievement, error) {
	rows, err := s.db.Query(ctx, qAchievements, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения значков: %w", err)
	}
	defer rows.Close()

	var out []*storage.Achievement
	for rows.Next() {
		var a storage.Achievement
		if err := rows.Scan(&a.AccountID, &a.Badge, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования значка: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) Item(ctx context.Context, id string) (*storage.ShopItem, error) {
	var it storage.ShopItem
	err := s.db.QueryRow(ctx, qItem, id).Scan(&it.ID, &it.Name, &it.Emoji, &it.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return &it, nil
}

func (s *Store) Items(ctx context.Context) ([]*storage.ShopItem, error) {
	rows, err := s.db.Query(ctx, qItems)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	defer rows.Close()

	var out []*storage.ShopItem
	for rows.Next() {
		var it storage.ShopItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Emoji, &it.Price); err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *Store) PutItem(ctx context.Context, item *storage.ShopItem) error {
	if _, err := s.db.Exec(ctx, qPutItem, item.ID, item.Name, item.Emoji, item.Price); err != nil {
		return fmt.Errorf("ошибка сохранения товара: %w", err)
	}
	return nil
}

func (s *Store) Switch(ctx context.Context, kind string) (bool, bool, error) {
	var enabled bool
	err := s.db.QueryRow(ctx, qSwitch, kind).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("ошибка чтения выключателя: %w", err)
	}
	return enabled, true, nil
}

func (s *Store) Switches(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, qSwitches)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения выключателей: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var kind string
		var enabled bool
		if err := rows.Scan(&kind, &enabled); err != nil {
			return nil, fmt.Errorf("ошибка сканирования выключателя: %w", err)
		}
		out[kind] = enabled
	}
	return out, rows.Err()
}

func (s *Store) PutSwitch(ctx context.Context, kind string, enabled bool) error {
	if _, err := s.db.Exec(ctx, qPutSwitch, kind, enabled); err != nil {
		return fmt.Errorf("ошибка сохранения выключателя: %w", err)
	}
	return nil
}

// Close закрывает пул.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// pgTx — операции внутри открытой транзакции.
type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
	ids []string
}

func (t *pgTx) check(id string) error {
	if !storage.Contains(t.ids, id) {
		return fmt.Errorf("%w: %s", storage.ErrOutsideUnit, id)
	}
	return nil
}

func (t *pgTx) Account(id string) (*storage.Account, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	return scanAccount(t.tx.QueryRow(t.ctx, qAccount, id))
}

func (t *pgTx) CreateAccount(a *storage.Account) error {
	if err := t.check(a.ID); err != nil {
		return err
	}
	_, err := t.tx.Exec(t.ctx, qCreateAccount,
		a.ID, a.DisplayName, a.Balance, a.CreatedAt, a.LastDailyClaim, a.LastQuestClaim,
		a.WinStreak, a.LossStreak, a.Wins, a.Losses, a.BannedUntil)
	if err != nil {
		return fmt.Errorf("ошибка создания аккаунта: %w", err)
	}
	return nil
}

func (t *pgTx) SaveAccount(a *storage.Account) error {
	if err := t.check(a.ID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(t.ctx, qSaveAccount,
		a.ID, a.DisplayName, a.Balance, a.LastDailyClaim, a.LastQuestClaim,
		a.WinStreak, a.LossStreak, a.Wins, a.Losses, a.BannedUntil)
	if err != nil {
		return fmt.Errorf("ошибка сохранения аккаунта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendRecord(r *storage.BetRecord) error {
	if err := t.check(r.AccountID); err != nil {
		return err
	}
	_, err := t.tx.Exec(t.ctx, qAppendRecord,
		r.ID, r.AccountID, r.GameKind, r.Stake, r.Selection, r.Outcome, r.PayoutDelta, r.Balance, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала: %w", err)
	}
	return nil
}

func (t *pgTx) ClearHistory(accountID string) error {
	if err := t.check(accountID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(t.ctx, qClearHistory, accountID); err != nil {
		return fmt.Errorf("ошибка очистки истории: %w", err)
	}
	return nil
}

func (t *pgTx) AddInventory(e *storage.InventoryEntry) error {
	if err := t.check(e.AccountID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(t.ctx, qAddInventory, e.ID, e.AccountID, e.ItemID, e.AcquiredAt); err != nil {
		return fmt.Errorf("ошибка записи инвентаря: %w", err)
	}
	return nil
}

func (t *pgTx) InventoryCount(accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	var n int
	if err := t.tx.QueryRow(t.ctx, qInventoryCount, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта инвентаря: %w", err)
	}
	return n, nil
}

func (t *pgTx) Unlock(a *storage.Achievement) (bool, error) {
	if err := t.check(a.AccountID); err != nil {
		return false, err
	}
	tag, err := t.tx.Exec(t.ctx, qUnlock, a.AccountID, a.Badge, a.UnlockedAt)
	if err != nil {
		return false, fmt.Errorf("ошибка выдачи значка: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAccount(row pgx.Row) (*storage.Account, error) {
	var a storage.Account
	err := row.Scan(&a.ID, &a.DisplayName, &a.Balance, &a.CreatedAt, &a.LastDailyClaim, &a.LastQuestClaim,
		&a.WinStreak, &a.LossStreak, &a.Wins, &a.Losses, &a.BannedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}
	return &a, nil
}
