package leaderboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

func seed(t *testing.T, store storage.Store, accounts ...*storage.Account) {
	t.Helper()
	for _, acc := range accounts {
		err := store.Atomic(context.Background(), []string{acc.ID}, func(_ context.Context, tx storage.Tx) error {
			acc.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			return tx.CreateAccount(acc)
		})
		require.NoError(t, err)
	}
}

func TestListOrdering(t *testing.T) {
	store := memory.New()
	seed(t, store,
		&storage.Account{ID: "c", Balance: 500, Wins: 1},
		&storage.Account{ID: "a", Balance: 500, Wins: 7},
		&storage.Account{ID: "b", Balance: 900, Wins: 3},
	)
	svc := NewService(store, DefaultMaxLimit)
	ctx := context.Background()

	tests := []struct {
		name    string
		orderBy string
		want    []string
		values  []int64
	}{
		{"по балансу, ничья по id", OrderBalance, []string{"b", "a", "c"}, []int64{900, 500, 500}},
		{"по победам", OrderWins, []string{"a", "b", "c"}, []int64{7, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.List(ctx, 0, tt.orderBy)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			for i, e := range entries {
				assert.Equal(t, i+1, e.Rank)
				assert.Equal(t, tt.want[i], e.AccountID)
				assert.Equal(t, tt.values[i], e.Value)
			}
		})
	}
}

func TestListLimits(t *testing.T) {
	store := memory.New()
	for i := 0; i < 60; i++ {
		seed(t, store, &storage.Account{ID: fmt.Sprintf("p%02d", i), Balance: int64(i)})
	}
	svc := NewService(store, DefaultMaxLimit)
	ctx := context.Background()

	entries, err := svc.List(ctx, 0, OrderBalance)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLimit)
	assert.Equal(t, "p59", entries[0].AccountID)

	entries, err = svc.List(ctx, 3, OrderBalance)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.List(ctx, 1000, OrderBalance)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultMaxLimit)

	uncapped := NewService(store, 0)
	entries, err = uncapped.List(ctx, 1000, OrderBalance)
	require.NoError(t, err)
	assert.Len(t, entries, 60)

	small := NewService(store, 5)
	entries, err = small.List(ctx, 20, OrderBalance)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestListInvalidOrder(t *testing.T) {
	svc := NewService(memory.New(), DefaultMaxLimit)
	_, err := svc.List(context.Background(), 10, "karma")
	require.ErrorIs(t, err, common.ErrInvalidOrder)
}

func TestParseOrder(t *testing.T) {
	for raw, want := range map[string]string{"": OrderBalance, "баланс": OrderBalance, "победы": OrderWins, "wins": OrderWins} {
		got, err := ParseOrder(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseOrder("карма")
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}
