package rewards

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
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

var msk = time.FixedZone("MSK", 3*60*60)

type fixture struct {
	clock   *quartz.Mock
	ledger  *ledger.Service
	rewards *Service
}

func newFixture(t *testing.T, rewards ...Reward) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	// 2026-03-01 15:00 MSK
	clock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	led := ledger.NewService(memory.New(), clock, 1000)
	return &fixture{
		clock:   clock,
		ledger:  led,
		rewards: NewService(led, clock, casino.NewSeededRNG(1), rewards),
	}
}

func dailyFixed() Reward {
	return Reward{Kind: KindDaily, Window: FixedWindow(24 * time.Hour), Min: 10, Max: 50}
}

func TestDailyClaimThenCooldown(t *testing.T) {
	f := newFixture(t, dailyFixed())
	ctx := context.Background()

	res, err := f.rewards.Claim(ctx, "p1", KindDaily)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Amount, int64(10))
	assert.LessOrEqual(t, res.Amount, int64(50))
	assert.Equal(t, 1000+res.Amount, res.NewBalance)

	f.clock.Advance(23 * time.Hour)
	_, err = f.rewards.Claim(ctx, "p1", KindDaily)
	require.ErrorIs(t, err, common.ErrCooldownActive)
	var cd *common.CooldownError
	require.True(t, errors.As(err, &cd))
	assert.Equal(t, time.Hour, cd.Remaining)

	acc, err := f.ledger.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, res.NewBalance, acc.Balance, "отказ не меняет баланс")

	remaining, err := f.rewards.Status(ctx, "p1", KindDaily)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, remaining)

	f.clock.Advance(time.Hour)
	_, err = f.rewards.Claim(ctx, "p1", KindDaily)
	require.NoError(t, err)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

func TestRewardAmountStaysInRange(t *testing.T) {
	f := newFixture(t, dailyFixed())
	ctx := context.Background()
	seen := map[int64]bool{}
	for i := 0; i < 300; i++ {
		res, err := f.rewards.Claim(ctx, "p1", KindDaily)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Amount, int64(10))
		require.LessOrEqual(t, res.Amount, int64(50))
		seen[res.Amount] = true
		f.clock.Advance(24 * time.Hour)
	}
	assert.Greater(t, len(seen), 20, "сумма действительно случайная")
}

func TestCalendarWindowResetsAtMidnight(t *testing.T) {
	w, err := NewScheduleWindow("0 0 * * *", msk)
	require.NoError(t, err)
	f := newFixture(t, Reward{Kind: KindQuest, Window: w, Min: 100, Max: 100})
	ctx := context.Background()

	res, err := f.rewards.Claim(ctx, "p1", KindQuest)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Amount)
	// следующая полночь по Москве = 21:00 UTC
	assert.True(t, res.NextAt.Equal(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)), res.NextAt)

	f.clock.Advance(8*time.Hour + 59*time.Minute)
	_, err = f.rewards.Claim(ctx, "p1", KindQuest)
	var cd *common.CooldownError
	require.ErrorAs(t, err, &cd)
	assert.Equal(t, time.Minute, cd.Remaining)

	f.clock.Advance(time.Minute)
	_, err = f.rewards.Claim(ctx, "p1", KindQuest)
	require.NoError(t, err)
}

func TestConcurrentClaimsGrantOnce(t *testing.T) {
	f := newFixture(t, Reward{Kind: KindDaily, Window: FixedWindow(24 * time.Hour), Min: 25, Max: 25})
	ctx := context.Background()

	const n = 16
	errs := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, errs[i] = f.rewards.Claim(ctx, "p1", KindDaily)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	granted := 0
	for _, err := range errs {
		if err == nil {
			granted++
			continue
		}
		require.ErrorIs(t, err, common.ErrCooldownActive)
	}
	assert.Equal(t, 1, granted)

	acc, err := f.ledger.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1025), acc.Balance)
}

func TestDailyAndQuestAreIndependent(t *testing.T) {
	f := newFixture(t, dailyFixed(), Reward{Kind: KindQuest, Window: FixedWindow(time.Hour), Min: 100, Max: 100})
	ctx := context.Background()

	_, err := f.rewards.Claim(ctx, "p1", KindDaily)
	require.NoError(t, err)
	_, err = f.rewards.Claim(ctx, "p1", KindQuest)
	require.NoError(t, err)

	_, err = f.rewards.Claim(ctx, "p1", "weekly")
	require.ErrorIs(t, err, common.ErrUnknownReward)
}

func TestStatusForNewAccount(t *testing.T) {
	f := newFixture(t, dailyFixed())
	remaining, err := f.rewards.Status(context.Background(), "ghost", KindDaily)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRewardsFromConfig(t *testing.T) {
	cfg := config.Default()
	list, err := RewardsFromConfig(cfg, msk)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, FixedWindow(24*time.Hour), list[0].Window)
	_, isSchedule := list[1].Window.(*ScheduleWindow)
	assert.True(t, isSchedule)

	cfg.RewardQuestSchedule = "not a cron"
	_, err = RewardsFromConfig(cfg, msk)
	assert.Error(t, err)
}
