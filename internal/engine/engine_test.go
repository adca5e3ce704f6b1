package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/db/sqlite"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/leaderboard"
	"serotonyl.ru/casino-bot/internal/features/rewards"
	"serotonyl.ru/casino-bot/internal/features/shop"
	"serotonyl.ru/casino-bot/internal/features/streak"
	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

func backends(t *testing.T) map[string]func() storage.Store {
	return map[string]func() storage.Store{
		"memory": func() storage.Store { return memory.New() },
		"sqlite": func() storage.Store {
			s, err := sqlite.Open(filepath.Join(t.TempDir(), "casino.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func newEngine(t *testing.T, store storage.Store, rng casino.RandomSource) (*Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	e, err := New(context.Background(), Options{
		Store:           store,
		Clock:           clock,
		RNG:             rng,
		StartingBalance: 1000,
		MinBet:          10,
		MaxBet:          100000,
		Rules:           casino.DefaultRules(),
		Catalog: append([]storage.ShopItem{{ID: "yacht", Name: "Яхта", Emoji: "🛥", Price: 2000}},
			shop.DefaultCatalog...),
		Rewards: []rewards.Reward{
			{Kind: rewards.KindDaily, Window: rewards.FixedWindow(24 * time.Hour), Min: 10, Max: 50},
		},
		Streak:          streak.Rule{Every: 3, Amount: 50, MasterWins: 5},
		Collection:      shop.CollectionRule{Threshold: 3, Bonus: 100},
		AdminIDs:        []string{"42"},
		AdminSessionTTL: time.Hour,
	})
	require.NoError(t, err)
	return e, clock
}

func TestEngineScenarios(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			e, clock := newEngine(t, open(), casino.NewSequence(5, 5, 5))
			ctx := context.Background()

			acc, err := e.GetAccount(ctx, "p1", "Игрок")
			require.NoError(t, err)
			assert.Equal(t, int64(1000), acc.Balance)
			assert.Equal(t, "Игрок", acc.DisplayName)

			bet, err := e.PlaceBet(ctx, "p1", casino.KindTaiXiu, 100, "tai")
			require.NoError(t, err)
			assert.True(t, bet.Win)
			assert.Equal(t, int64(1100), bet.NewBalance)

			claim, err := e.ClaimReward(ctx, "p1", rewards.KindDaily)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, claim.Amount, int64(10))
			assert.LessOrEqual(t, claim.Amount, int64(50))
			_, err = e.ClaimReward(ctx, "p1", rewards.KindDaily)
			require.ErrorIs(t, err, common.ErrCooldownActive)
			clock.Advance(time.Hour)
			left, err := e.RewardStatus(ctx, "p1", rewards.KindDaily)
			require.NoError(t, err)
			assert.Equal(t, 23*time.Hour, left)

			_, err = e.GetAccount(ctx, "p2", "")
			require.NoError(t, err)
			_, err = e.BuyItem(ctx, "p2", "yacht")
			require.ErrorIs(t, err, common.ErrInsufficientFunds)
			p2, err := e.GetAccount(ctx, "p2", "")
			require.NoError(t, err)
			assert.Equal(t, int64(1000), p2.Balance)

			buy, err := e.BuyItem(ctx, "p2", "gold")
			require.NoError(t, err)
			assert.Equal(t, int64(950), buy.NewBalance)
			inv, err := e.ListInventory(ctx, "p2")
			require.NoError(t, err)
			require.Len(t, inv, 1)

			tr, err := e.Transfer(ctx, "p1", "p2", 100)
			require.NoError(t, err)
			assert.Equal(t, int64(1050), tr.To.Balance)
			_, err = e.Transfer(ctx, "p1", "p1", 1)
			require.ErrorIs(t, err, common.ErrSelfTransfer)
			_, err = e.Transfer(ctx, "p1", "ghost", 1)
			require.ErrorIs(t, err, common.ErrAccountNotFound)

			top, err := e.Leaderboard(ctx, 10, leaderboard.OrderWins)
			require.NoError(t, err)
			require.Len(t, top, 2)
			assert.Equal(t, "p1", top[0].AccountID)
			assert.Equal(t, int64(1), top[0].Value)

			badges, err := e.Achievements(ctx, "p1")
			require.NoError(t, err)
			assert.Len(t, badges, 1)

			st, err := e.Stats(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 1, st.TotalSpins)

			for _, id := range []string{"p1", "p2"} {
				require.NoError(t, e.CheckIntegrity(ctx, id), id)
			}
		})
	}
}

func TestEngineAdminFlow(t *testing.T) {
	e, _ := newEngine(t, memory.New(), casino.NewSeededRNG(7))
	ctx := context.Background()
	_, err := e.GetAccount(ctx, "p1", "")
	require.NoError(t, err)

	require.ErrorIs(t, e.AdminToggle(ctx, "p1", casino.KindCoinFlip, false), common.ErrNotAuthorized)
	require.NoError(t, e.AdminToggle(ctx, "42", casino.KindCoinFlip, false))

	_, err = e.PlaceBet(ctx, "p1", casino.KindCoinFlip, 10, "heads")
	require.ErrorIs(t, err, common.ErrFeatureDisabled)
	games, err := e.Games(ctx)
	require.NoError(t, err)
	assert.False(t, games[casino.KindCoinFlip])
	assert.True(t, games[casino.KindRoulette])

	_, err = e.AdminGift(ctx, "42", "p1", 500)
	require.NoError(t, err)
	acc, err := e.AdminReset(ctx, "42", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)

	_, err = e.AdminBan(ctx, "42", "p1", time.Hour)
	require.NoError(t, err)
	_, err = e.PlaceBet(ctx, "p1", casino.KindRoulette, 10, "red")
	require.ErrorIs(t, err, common.ErrBanned)
	_, err = e.AdminUnban(ctx, "42", "p1")
	require.NoError(t, err)

	st, err := e.AdminStats(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Accounts)
	require.NoError(t, e.CheckIntegrity(ctx, "p1"))
}

func TestOptionsFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
games:
  tai_xiu:
    triple_house_wins: true
  dice:
    multiplier: 4
shop:
  - id: hat
    name: Шляпа
    price: 30
`), 0o600))

	cfg := config.Default()
	cfg.GameRulesPath = path
	opts, err := OptionsFromConfig(cfg, memory.New(), quartz.NewMock(t))
	require.NoError(t, err)
	assert.True(t, opts.Rules.TaiXiu.TripleHouseWins)
	assert.Equal(t, 11, opts.Rules.TaiXiu.TaiMin, "остальное из стандартных правил")
	assert.Equal(t, int64(4), opts.Rules.Dice.Multiplier)
	require.Len(t, opts.Catalog, 1)
	assert.Equal(t, "hat", opts.Catalog[0].ID)
	assert.Len(t, opts.Rewards, 2)

	e, err := New(context.Background(), opts)
	require.NoError(t, err)
	items, err := e.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestNewRejectsBadBetLimits(t *testing.T) {
	for name, limits := range map[string][2]int64{
		"zero min":      {0, 100},
		"negative min":  {-5, 100},
		"max below min": {50, 10},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), Options{
				Store:  memory.New(),
				Clock:  quartz.NewMock(t),
				MinBet: limits[0],
				MaxBet: limits[1],
				Rules:  casino.DefaultRules(),
			})
			assert.Error(t, err)
		})
	}
}
