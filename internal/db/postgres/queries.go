// Package postgres — вспомогательные функции для работы с БД.
// queries.go содержит применение миграций и тексты запросов хранилища.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExecMigrationSQL выполняет одну миграцию в транзакции.
// Если миграция уже применена — ничего не делает.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	return tx.Commit(ctx)
}

const accountColumns = `id, display_name, balance, created_at, last_daily_claim, last_quest_claim,
	win_streak, loss_streak, wins, losses, banned_until`

const (
	qLockKey = `SELECT pg_advisory_xact_lock(hashtext($1))`

	qAccount  = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	qAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	qCreateAccount = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	qSaveAccount = `
		UPDATE accounts
		SET display_name = $2, balance = $3, last_daily_claim = $4, last_quest_claim = $5,
			win_streak = $6, loss_streak = $7, wins = $8, losses = $9, banned_until = $10
		WHERE id = $1`

	qAppendRecord = `
		INSERT INTO bet_records (id, account_id, game_kind, stake, selection, outcome, payout_delta, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	qClearHistory = `DELETE FROM bet_records WHERE account_id = $1`

	// LIMIT NULL в PostgreSQL означает «без ограничения»
	qHistory = `
		SELECT id, account_id, game_kind, stake, selection, outcome, payout_delta, balance, created_at
		FROM bet_records
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2`

	qAddInventory   = `INSERT INTO inventory (id, account_id, item_id, acquired_at) VALUES ($1, $2, $3, $4)`
	qInventoryCount = `SELECT COUNT(*) FROM inventory WHERE account_id = $1`
	qInventory      = `
		SELECT id, account_id, item_id, acquired_at
		FROM inventory
		WHERE account_id = $1
		ORDER BY seq`

	qUnlock = `
		INSERT INTO achievements (account_id, badge, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, badge) DO NOTHING`
	qAchievements = `
		SELECT account_id, badge, unlocked_at
		FROM achievements
		WHERE account_id = $1
		ORDER BY unlocked_at, badge`

	qItem    = `SELECT id, name, emoji, price FROM shop_items WHERE id = $1`
	qItems   = `SELECT id, name, emoji, price FROM shop_items ORDER BY price, id`
	qPutItem = `
		INSERT INTO shop_items (id, name, emoji, price) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, emoji = EXCLUDED.emoji, price = EXCLUDED.price`

	qSwitch    = `SELECT enabled FROM game_switches WHERE kind = $1`
	qSwitches  = `SELECT kind, enabled FROM game_switches`
	qPutSwitch = `
		INSERT INTO game_switches (kind, enabled) VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET enabled = EXCLUDED.enabled`
)
