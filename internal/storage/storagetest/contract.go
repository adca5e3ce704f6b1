// Package storagetest — общий набор проверок для реализаций storage.Store.
// Каждая реализация вызывает Run из своего _test.go.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/casino-bot/internal/storage"
)

// Factory создаёт пустое хранилище для одного подтеста.
type Factory func(t *testing.T) storage.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run прогоняет контракт Store.
func Run(t *testing.T, newStore Factory) {
	t.Run("account lifecycle", func(t *testing.T) { testAccountLifecycle(t, newStore(t)) })
	t.Run("rollback on error", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("history order and clear", func(t *testing.T) { testHistory(t, newStore(t)) })
	t.Run("inventory and achievements", func(t *testing.T) { testInventory(t, newStore(t)) })
	t.Run("catalog and switches", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("outside unit", func(t *testing.T) { testOutsideUnit(t, newStore(t)) })
	t.Run("serialized increments", func(t *testing.T) { testSerialized(t, newStore(t)) })
}

func create(t *testing.T, s storage.Store, id string, balance int64) {
	t.Helper()
	err := s.Atomic(context.Background(), []string{id}, func(_ context.Context, tx storage.Tx) error {
		return tx.CreateAccount(&storage.Account{ID: id, DisplayName: "user " + id, Balance: balance, CreatedAt: base})
	})
	require.NoError(t, err)
}

func testAccountLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.Account(ctx, "a")
	require.ErrorIs(t, err, storage.ErrNotFound)

	create(t, s, "a", 1000)

	claimed := base.Add(time.Hour)
	err = s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		acc, err := tx.Account("a")
		if err != nil {
			return err
		}
		acc.Balance = 1500
		acc.LastDailyClaim = &claimed
		acc.WinStreak = 2
		acc.Wins = 3
		acc.Losses = 1
		return tx.SaveAccount(acc)
	})
	require.NoError(t, err)

	acc, err := s.Account(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), acc.Balance)
	assert.Equal(t, "user a", acc.DisplayName)
	require.NotNil(t, acc.LastDailyClaim)
	assert.True(t, acc.LastDailyClaim.Equal(claimed))
	assert.Nil(t, acc.LastQuestClaim)
	assert.Nil(t, acc.BannedUntil)
	assert.Equal(t, 2, acc.WinStreak)
	assert.Equal(t, 3, acc.Wins)
	assert.Equal(t, 1, acc.Losses)

	err = s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		return tx.CreateAccount(&storage.Account{ID: "a", CreatedAt: base})
	})
	assert.Error(t, err, "повторное создание должно падать")

	create(t, s, "b", 0)
	all, err := s.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func testRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	create(t, s, "a", 100)

	boom := errors.New("boom")
	err := s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		acc, err := tx.Account("a")
		if err != nil {
			return err
		}
		acc.Balance = 0
		if err := tx.SaveAccount(acc); err != nil {
			return err
		}
		if err := tx.AppendRecord(&storage.BetRecord{ID: "r1", AccountID: "a", GameKind: "coinflip", Stake: 100, PayoutDelta: -100, CreatedAt: base}); err != nil {
			return err
		}
		if err := tx.AddInventory(&storage.InventoryEntry{ID: "i1", AccountID: "a", ItemID: "gold", AcquiredAt: base}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	acc, err := s.Account(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balance)

	hist, err := s.History(ctx, "a", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)

	inv, err := s.Inventory(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, inv)
}

func testHistory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	create(t, s, "a", 0)

	for i := 1; i <= 5; i++ {
		i := i
		err := s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
			return tx.AppendRecord(&storage.BetRecord{
				ID:          fmt.Sprintf("r%d", i),
				AccountID:   "a",
				GameKind:    "daily",
				PayoutDelta: int64(i),
				Balance:     int64(i * (i + 1) / 2),
				CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			})
		})
		require.NoError(t, err)
	}

	all, err := s.History(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int64(5), all[0].PayoutDelta, "новые записи первыми")
	assert.Equal(t, int64(1), all[4].PayoutDelta)

	last, err := s.History(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "r5", last[0].ID)
	assert.Equal(t, "r4", last[1].ID)

	err = s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		if err := tx.ClearHistory("a"); err != nil {
			return err
		}
		return tx.AppendRecord(&storage.BetRecord{ID: "r6", AccountID: "a", GameKind: "admin-set", CreatedAt: base.Add(time.Hour)})
	})
	require.NoError(t, err)

	all, err = s.History(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r6", all[0].ID)
}

func testInventory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	create(t, s, "a", 0)

	for i, item := range []string{"gold", "fire", "gold"} {
		i, item := i, item
		err := s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
			n, err := tx.InventoryCount("a")
			if err != nil {
				return err
			}
			if n != i {
				return fmt.Errorf("ожидали %d предметов, получили %d", i, n)
			}
			return tx.AddInventory(&storage.InventoryEntry{
				ID:         fmt.Sprintf("e%d", i),
				AccountID:  "a",
				ItemID:     item,
				AcquiredAt: base.Add(time.Duration(i) * time.Second),
			})
		})
		require.NoError(t, err)
	}

	inv, err := s.Inventory(ctx, "a")
	require.NoError(t, err)
	require.Len(t, inv, 3)
	assert.Equal(t, []string{"gold", "fire", "gold"}, []string{inv[0].ItemID, inv[1].ItemID, inv[2].ItemID})

	var first, second bool
	err = s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		var err error
		first, err = tx.Unlock(&storage.Achievement{AccountID: "a", Badge: "collector", UnlockedAt: base})
		if err != nil {
			return err
		}
		second, err = tx.Unlock(&storage.Achievement{AccountID: "a", Badge: "collector", UnlockedAt: base})
		return err
	})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	err = s.Atomic(ctx, []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		again, err := tx.Unlock(&storage.Achievement{AccountID: "a", Badge: "collector", UnlockedAt: base})
		if err != nil {
			return err
		}
		if again {
			return errors.New("значок выдан повторно")
		}
		return nil
	})
	require.NoError(t, err)

	badges, err := s.Achievements(ctx, "a")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "collector", badges[0].Badge)
}

func testCatalog(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.Item(ctx, "gold")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.PutItem(ctx, &storage.ShopItem{ID: "diamond", Name: "Алмаз", Emoji: "💎", Price: 200}))
	require.NoError(t, s.PutItem(ctx, &storage.ShopItem{ID: "gold", Name: "Золото", Emoji: "🥇", Price: 50}))
	require.NoError(t, s.PutItem(ctx, &storage.ShopItem{ID: "gold", Name: "Золото", Emoji: "🥇", Price: 60}))

	it, err := s.Item(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, int64(60), it.Price)

	items, err := s.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "gold", items[0].ID)

	_, found, err := s.Switch(ctx, "roulette")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.PutSwitch(ctx, "roulette", false))
	enabled, found, err := s.Switch(ctx, "roulette")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, enabled)

	require.NoError(t, s.PutSwitch(ctx, "roulette", true))
	all, err := s.Switches(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"roulette": true}, all)
}

func testOutsideUnit(t *testing.T, s storage.Store) {
	create(t, s, "a", 0)
	create(t, s, "b", 0)

	err := s.Atomic(context.Background(), []string{"a"}, func(_ context.Context, tx storage.Tx) error {
		_, err := tx.Account("b")
		return err
	})
	assert.ErrorIs(t, err, storage.ErrOutsideUnit)
}

// testSerialized проверяет отсутствие потерянных обновлений:
// N параллельных read-modify-write над парой аккаунтов в разном порядке.
func testSerialized(t *testing.T, s storage.Store) {
	ctx := context.Background()
	create(t, s, "a", 0)
	create(t, s, "b", 0)

	const workers = 20
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		ids := []string{"a", "b"}
		if i%2 == 1 {
			ids = []string{"b", "a"}
		}
		g.Go(func() error {
			return s.Atomic(gctx, ids, func(_ context.Context, tx storage.Tx) error {
				for _, id := range []string{"a", "b"} {
					acc, err := tx.Account(id)
					if err != nil {
						return err
					}
					acc.Balance++
					if err := tx.SaveAccount(acc); err != nil {
						return err
					}
				}
				done.Add(1)
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int64(workers), done.Load())

	for _, id := range []string{"a", "b"} {
		acc, err := s.Account(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), acc.Balance, id)
	}
}
