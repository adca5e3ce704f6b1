package casino

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/features/streak"
	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

type fixture struct {
	store  storage.Store
	ledger *ledger.Service
	casino *Service
}

func newFixture(t *testing.T, rng RandomSource, rules Rules) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := memory.New()
	led := ledger.NewService(store, clock, 1000)
	tracker := streak.NewTracker(streak.Rule{Every: 3, Amount: 50, MasterWins: 5}, achievements.NewService(store))
	return &fixture{
		store:  store,
		ledger: led,
		casino: NewService(store, led, tracker, rules, rng, 10, 100000),
	}
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	acc, err := f.ledger.Get(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance
}

// Сценарий: стартовый баланс 1000, ставка 100 на «тай», выпало [6,6,6].
func TestTaiXiuTripleSixScenario(t *testing.T) {
	f := newFixture(t, NewSequence(5, 5, 5), DefaultRules())
	ctx := context.Background()

	res, err := f.casino.Dispatch(ctx, KindTaiXiu, "p1", 100, "tai")
	require.NoError(t, err)
	assert.True(t, res.Win)
	assert.Equal(t, int64(100), res.PayoutDelta)
	assert.Equal(t, int64(1100), res.NewBalance)
	assert.Equal(t, int64(1100), f.balance(t, "p1"))
	assert.Equal(t, []string{achievements.FirstWin}, res.Unlocked)

	hist, err := f.ledger.History(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, KindTaiXiu, hist[0].GameKind)
	assert.Equal(t, int64(100), hist[0].Stake)
	assert.Equal(t, "tai", hist[0].Selection)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

func TestTripleRuleDoublePayout(t *testing.T) {
	rules := DefaultRules()
	rules.TaiXiu.TripleMultiplier = 2
	f := newFixture(t, NewSequence(5, 5, 5), rules)

	res, err := f.casino.Dispatch(context.Background(), KindTaiXiu, "p1", 100, "tai")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), res.NewBalance)
}

// Нулевая ставка не проходит даже при MinBet = 0 и не двигает серию.
func TestZeroStakeRejectedWithoutMinBet(t *testing.T) {
	f := newFixture(t, NewSequence(0), DefaultRules())
	f.casino = NewService(f.store, f.ledger, f.casino.tracker, DefaultRules(), NewSequence(0), 0, 100000)
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)

	for range 3 {
		_, err := f.casino.Dispatch(ctx, KindCoinFlip, "p1", 0, "heads")
		require.ErrorIs(t, err, common.ErrInvalidStake)
	}

	acc, err := f.ledger.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)
	assert.Zero(t, acc.WinStreak)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

func TestStakeBounds(t *testing.T) {
	f := newFixture(t, NewSequence(0), DefaultRules())
	ctx := context.Background()

	tests := []struct {
		name  string
		stake int64
		err   []error
	}{
		{"below min", 9, []error{common.ErrInvalidStake}},
		{"zero", 0, []error{common.ErrInvalidStake}},
		{"negative", -100, []error{common.ErrInvalidStake}},
		{"above max", 100001, []error{common.ErrInvalidStake}},
		{"above balance", 1001, []error{common.ErrInvalidStake, common.ErrInsufficientFunds}},
		{"min", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := f.ledger.Get(ctx, "p1")
			_, err := f.casino.Dispatch(ctx, KindCoinFlip, "p1", tt.stake, "heads")
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			for _, want := range tt.err {
				require.ErrorIs(t, err, want)
			}
			if before != nil {
				assert.Equal(t, before.Balance, f.balance(t, "p1"), "баланс не меняется")
			}
		})
	}
}

func TestValidationHappensBeforeMutation(t *testing.T) {
	f := newFixture(t, NewSequence(0), DefaultRules())
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)

	_, err = f.casino.Dispatch(ctx, KindDice, "p1", 100, "9")
	require.ErrorIs(t, err, common.ErrInvalidSelection)

	_, err = f.casino.Dispatch(ctx, "slots", "p1", 100, "x")
	require.ErrorIs(t, err, common.ErrUnknownGame)

	require.NoError(t, f.store.PutSwitch(ctx, KindRoulette, false))
	_, err = f.casino.Dispatch(ctx, KindRoulette, "p1", 100, "red")
	require.ErrorIs(t, err, common.ErrFeatureDisabled)

	assert.Equal(t, int64(1000), f.balance(t, "p1"))
	hist, err := f.ledger.History(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1, "только стартовый капитал")

	switches, err := f.casino.Switches(ctx)
	require.NoError(t, err)
	assert.False(t, switches[KindRoulette])
	assert.True(t, switches[KindDice])
}

func TestLossDeductsStake(t *testing.T) {
	// 0 → орёл, ставим на решку
	f := newFixture(t, NewSequence(0), DefaultRules())
	res, err := f.casino.Dispatch(context.Background(), KindCoinFlip, "p1", 250, "tails")
	require.NoError(t, err)
	assert.False(t, res.Win)
	assert.Equal(t, int64(-250), res.PayoutDelta)
	assert.Equal(t, int64(750), res.NewBalance)
	assert.Equal(t, 1, res.LossStreak)
}

func TestRouletteNumberPaysThirtyFive(t *testing.T) {
	f := newFixture(t, NewSequence(17), DefaultRules())
	res, err := f.casino.Dispatch(context.Background(), KindRoulette, "p1", 10, "17")
	require.NoError(t, err)
	assert.Equal(t, int64(350), res.PayoutDelta)
	assert.Equal(t, int64(1350), res.NewBalance)
}

func TestBauCuaPaysPerMatch(t *testing.T) {
	// cua, cua, ga
	f := newFixture(t, NewSequence(1, 1, 4), DefaultRules())
	res, err := f.casino.Dispatch(context.Background(), KindBauCua, "p1", 100, "краб тыква")
	require.NoError(t, err)
	assert.Equal(t, "cua,bau", res.Selection)
	assert.Equal(t, int64(200), res.PayoutDelta)
}

func TestStreakBonusOnThirdWin(t *testing.T) {
	f := newFixture(t, NewSequence(0), DefaultRules())
	ctx := context.Background()

	var last *BetResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = f.casino.Dispatch(ctx, KindCoinFlip, "p1", 100, "heads")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, last.WinStreak)
	assert.Equal(t, int64(50), last.StreakBonus)
	assert.Equal(t, int64(1350), last.NewBalance)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

// Две ставки по 600 при балансе 1000: ровно одна проходит.
func TestConcurrentBetsCannotOverdraw(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t, NewSequence(1), DefaultRules()) // всегда решка
		ctx := context.Background()
		_, err := f.ledger.GetOrCreate(ctx, "p1", "")
		require.NoError(t, err)

		errs := make([]error, 2)
		var g errgroup.Group
		for i := range errs {
			g.Go(func() error {
				_, errs[i] = f.casino.Dispatch(ctx, KindCoinFlip, "p1", 600, "heads")
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var ok, insufficient int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, common.ErrInsufficientFunds):
				insufficient++
			default:
				t.Fatalf("неожиданная ошибка: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		assert.Equal(t, int64(400), f.balance(t, "p1"))
		require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
	}
}

func TestCoinFlipFairness(t *testing.T) {
	const n = 100_000
	g := NewGames(DefaultRules())[KindCoinFlip]
	rng := NewSeededRNG(42)

	wins := 0
	for i := 0; i < n; i++ {
		if g.Play(rng, "heads").Win {
			wins++
		}
	}
	assert.InDelta(t, 0.5, float64(wins)/n, 0.01)
}

func TestCoinFlipFairnessThroughLedger(t *testing.T) {
	const n = 100_000
	f := newFixture(t, NewSeededRNG(7), DefaultRules())
	ctx := context.Background()
	_, err := f.ledger.SetBalance(ctx, "p1", 0)
	require.ErrorIs(t, err, common.ErrAccountNotFound)

	_, err = f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)
	_, err = f.ledger.SetBalance(ctx, "p1", 10_000_000)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		_, err := f.casino.Dispatch(ctx, KindCoinFlip, "p1", 10, "heads")
		require.NoError(t, err)
	}

	st, err := f.casino.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, n, st.TotalSpins)
	assert.InDelta(t, 0.5, float64(st.Wins)/n, 0.01)
	assert.InDelta(t, 100.0, st.CurrentRTP, 2.0)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

func TestCalculateStats(t *testing.T) {
	recs := []*storage.BetRecord{
		{GameKind: ledger.KindGrant, PayoutDelta: 1000},
		{GameKind: KindCoinFlip, Stake: 100, PayoutDelta: 100},
		{GameKind: KindRoulette, Stake: 10, PayoutDelta: 350},
		{GameKind: KindDice, Stake: 50, PayoutDelta: -50},
		{GameKind: ledger.KindStreakBonus, PayoutDelta: 50},
	}
	st := CalculateStats(recs)
	assert.Equal(t, 3, st.TotalSpins)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, int64(160), st.TotalWagered)
	assert.Equal(t, int64(560), st.TotalWon)
	assert.Equal(t, int64(350), st.BiggestWin)
	assert.InDelta(t, 350.0, st.CurrentRTP, 1e-9)
	assert.Equal(t, 1, st.PerGame[KindDice])
}
