// Package sqlite — встраиваемое хранилище на mattn/go-sqlite3.
// Режим WAL, транзакции BEGIN IMMEDIATE: в каждый момент пишет одна единица,
// остальные ждут busy_timeout.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id               TEXT PRIMARY KEY,
	display_name     TEXT    NOT NULL DEFAULT '',
	balance          INTEGER NOT NULL CHECK (balance >= 0),
	created_at       INTEGER NOT NULL,
	last_daily_claim INTEGER,
	last_quest_claim INTEGER,
	win_streak       INTEGER NOT NULL DEFAULT 0,
	loss_streak      INTEGER NOT NULL DEFAULT 0,
	wins             INTEGER NOT NULL DEFAULT 0,
	losses           INTEGER NOT NULL DEFAULT 0,
	banned_until     INTEGER
);
CREATE TABLE IF NOT EXISTS bet_records (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT    NOT NULL UNIQUE,
	account_id   TEXT    NOT NULL REFERENCES accounts (id),
	game_kind    TEXT    NOT NULL,
	stake        INTEGER NOT NULL DEFAULT 0,
	selection    TEXT    NOT NULL DEFAULT '',
	outcome      TEXT    NOT NULL DEFAULT '',
	payout_delta INTEGER NOT NULL,
	balance      INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bet_records_account ON bet_records (account_id, seq);
CREATE TABLE IF NOT EXISTS shop_items (
	id    TEXT PRIMARY KEY,
	name  TEXT    NOT NULL,
	emoji TEXT    NOT NULL DEFAULT '',
	price INTEGER NOT NULL CHECK (price >= 0)
);
CREATE TABLE IF NOT EXISTS inventory (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT    NOT NULL UNIQUE,
	account_id  TEXT    NOT NULL REFERENCES accounts (id),
	item_id     TEXT    NOT NULL,
	acquired_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_account ON inventory (account_id, seq);
CREATE TABLE IF NOT EXISTS achievements (
	account_id  TEXT    NOT NULL REFERENCES accounts (id),
	badge       TEXT    NOT NULL,
	unlocked_at INTEGER NOT NULL,
	PRIMARY KEY (account_id, badge)
);
CREATE TABLE IF NOT EXISTS game_switches (
	kind    TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL
);
`

const accountColumns = `id, display_name, balance, created_at, last_daily_claim, last_quest_claim,
	win_streak, loss_streak, wins, losses, banned_until`

// Store — реализация storage.Store поверх файла SQLite.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) базу по пути и применяет схему.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия sqlite: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания схемы sqlite: %w", err)
	}

	log.WithField("path", path).Info("SQLite-хранилище открыто")
	return &Store{db: db}, nil
}

// Atomic открывает BEGIN IMMEDIATE: запись сериализована на уровне файла,
// что покрывает любой набор id.
func (s *Store) Atomic(ctx context.Context, accountIDs []string, fn func(ctx context.Context, tx storage.Tx) error) error {
	ids := storage.LockOrder(accountIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &liteTx{ctx: ctx, tx: tx, ids: ids}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, id string) (*storage.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (s *Store) Accounts(ctx context.Context) ([]*storage.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
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
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, game_kind, stake, selection, outcome, payout_delta, balance, created_at
		FROM bet_records WHERE account_id = ? ORDER BY seq DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var out []*storage.BetRecord
	for rows.Next() {
		var r storage.BetRecord
		var created int64
		if err := rows.Scan(&r.ID, &r.AccountID, &r.GameKind, &r.Stake, &r.Selection,
			&r.Outcome, &r.PayoutDelta, &r.Balance, &created); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		r.CreatedAt = fromNanos(created)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) Inventory(ctx context.Context, accountID string) ([]*storage.InventoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, item_id, acquired_at FROM inventory WHERE account_id = ? ORDER BY seq`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var out []*storage.InventoryEntry
	for rows.Next() {
		var e storage.InventoryEntry
		var acquired int64
		if err := rows.Scan(&e.ID, &e.AccountID, &e.ItemID, &acquired); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		e.AcquiredAt = fromNanos(acquired)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) Achievements(ctx context.Context, accountID string) ([]*storage.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, badge, unlocked_at FROM achievements WHERE account_id = ? ORDER BY unlocked_at, badge`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения значков: %w", err)
	}
	defer rows.Close()

	var out []*storage.Achievement
	for rows.Next() {
		var a storage.Achievement
		var unlocked int64
		if err := rows.Scan(&a.AccountID, &a.Badge, &unlocked); err != nil {
			return nil, fmt.Errorf("ошибка сканирования значка: %w", err)
		}
		a.UnlockedAt = fromNanos(unlocked)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) Item(ctx context.Context, id string) (*storage.ShopItem, error) {
	var it storage.ShopItem
	err := s.db.QueryRowContext(ctx, `SELECT id, name, emoji, price FROM shop_items WHERE id = ?`, id).
		Scan(&it.ID, &it.Name, &it.Emoji, &it.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return &it, nil
}

func (s *Store) Items(ctx context.Context) ([]*storage.ShopItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, emoji, price FROM shop_items ORDER BY price, id`)
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_items (id, name, emoji, price) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, emoji = excluded.emoji, price = excluded.price`,
		item.ID, item.Name, item.Emoji, item.Price)
	if err != nil {
		return fmt.Errorf("ошибка сохранения товара: %w", err)
	}
	return nil
}

func (s *Store) Switch(ctx context.Context, kind string) (bool, bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `SELECT enabled FROM game_switches WHERE kind = ?`, kind).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("ошибка чтения выключателя: %w", err)
	}
	return enabled, true, nil
}

func (s *Store) Switches(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, enabled FROM game_switches`)
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_switches (kind, enabled) VALUES (?, ?)
		ON CONFLICT (kind) DO UPDATE SET enabled = excluded.enabled`, kind, enabled)
	if err != nil {
		return fmt.Errorf("ошибка сохранения выключателя: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type liteTx struct {
	ctx context.Context
	tx  *sql.Tx
	ids []string
}

func (t *liteTx) check(id string) error {
	if !storage.Contains(t.ids, id) {
		return fmt.Errorf("%w: %s", storage.ErrOutsideUnit, id)
	}
	return nil
}

func (t *liteTx) Account(id string) (*storage.Account, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	return scanAccount(t.tx.QueryRowContext(t.ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (t *liteTx) CreateAccount(a *storage.Account) error {
	if err := t.check(a.ID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DisplayName, a.Balance, toNanos(a.CreatedAt), nullNanos(a.LastDailyClaim), nullNanos(a.LastQuestClaim),
		a.WinStreak, a.LossStreak, a.Wins, a.Losses, nullNanos(a.BannedUntil))
	if err != nil {
		return fmt.Errorf("ошибка создания аккаунта: %w", err)
	}
	return nil
}

func (t *liteTx) SaveAccount(a *storage.Account) error {
	if err := t.check(a.ID); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE accounts
		SET display_name = ?, balance = ?, last_daily_claim = ?, last_quest_claim = ?,
			win_streak = ?, loss_streak = ?, wins = ?, losses = ?, banned_until = ?
		WHERE id = ?`,
		a.DisplayName, a.Balance, nullNanos(a.LastDailyClaim), nullNanos(a.LastQuestClaim),
		a.WinStreak, a.LossStreak, a.Wins, a.Losses, nullNanos(a.BannedUntil), a.ID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения аккаунта: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *liteTx) AppendRecord(r *storage.BetRecord) error {
	if err := t.check(r.AccountID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO bet_records (id, account_id, game_kind, stake, selection, outcome, payout_delta, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AccountID, r.GameKind, r.Stake, r.Selection, r.Outcome, r.PayoutDelta, r.Balance, toNanos(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("ошибка записи журнала: %w", err)
	}
	return nil
}

func (t *liteTx) ClearHistory(accountID string) error {
	if err := t.check(accountID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM bet_records WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("ошибка очистки истории: %w", err)
	}
	return nil
}

func (t *liteTx) AddInventory(e *storage.InventoryEntry) error {
	if err := t.check(e.AccountID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, `INSERT INTO inventory (id, account_id, item_id, acquired_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.AccountID, e.ItemID, toNanos(e.AcquiredAt))
	if err != nil {
		return fmt.Errorf("ошибка записи инвентаря: %w", err)
	}
	return nil
}

func (t *liteTx) InventoryCount(accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	var n int
	if err := t.tx.QueryRowContext(t.ctx, `SELECT COUNT(*) FROM inventory WHERE account_id = ?`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта инвентаря: %w", err)
	}
	return n, nil
}

func (t *liteTx) Unlock(a *storage.Achievement) (bool, error) {
	if err := t.check(a.AccountID); err != nil {
		return false, err
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO achievements (account_id, badge, unlocked_at) VALUES (?, ?, ?)
		ON CONFLICT (account_id, badge) DO NOTHING`, a.AccountID, a.Badge, toNanos(a.UnlockedAt))
	if err != nil {
		return false, fmt.Errorf("ошибка выдачи значка: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*storage.Account, error) {
	var a storage.Account
	var created int64
	var daily, quest, banned sql.NullInt64
	err := row.Scan(&a.ID, &a.DisplayName, &a.Balance, &created, &daily, &quest,
		&a.WinStreak, &a.LossStreak, &a.Wins, &a.Losses, &banned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}
	a.CreatedAt = fromNanos(created)
	a.LastDailyClaim = timePtr(daily)
	a.LastQuestClaim = timePtr(quest)
	a.BannedUntil = timePtr(banned)
	return &a, nil
}

// Время храним в UnixNano UTC: сравнения и сортировка прямо в SQL.
func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}
