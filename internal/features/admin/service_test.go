package admin

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

type fixture struct {
	clock  *quartz.Mock
	store  storage.Store
	ledger *ledger.Service
	admin  *Service
}

func newFixture(t *testing.T, passwordHash string) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := memory.New()
	led := ledger.NewService(store, clock, 1000)
	auth := NewAuthorizer([]string{"42"}, passwordHash, 24*time.Hour, clock)
	return &fixture{clock: clock, store: store, ledger: led, admin: NewService(auth, led, store)}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=3,p=2$")
	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", "garbage"))
}

func TestUnauthorizedHasNoSideEffect(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)

	_, err = f.admin.SetBalance(ctx, "7", "p1", 5)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	_, err = f.admin.Gift(ctx, "7", "p1", 5)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	require.ErrorIs(t, f.admin.ToggleGame(ctx, "7", casino.KindCoinFlip, false), common.ErrNotAuthorized)
	_, err = f.admin.ResetAccount(ctx, "7", "p1")
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	_, err = f.admin.Ban(ctx, "7", "p1", time.Hour)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	_, err = f.admin.Stats(ctx, "7")
	require.ErrorIs(t, err, common.ErrNotAuthorized)

	acc, err := f.ledger.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)
	assert.Nil(t, acc.BannedUntil)
	_, found, err := f.store.Switch(ctx, casino.KindCoinFlip)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetBalanceAndGiftKeepIntegrity(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)

	acc, err := f.admin.SetBalance(ctx, "42", "p1", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), acc.Balance)

	acc, err = f.admin.Gift(ctx, "42", "p1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(300), acc.Balance)

	_, err = f.admin.Gift(ctx, "42", "p1", -5)
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	recs, err := f.ledger.History(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindAdminGift, recs[0].GameKind)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))

	_, err = f.admin.SetBalance(ctx, "42", "ghost", 10)
	require.ErrorIs(t, err, common.ErrAccountNotFound)
}

func TestToggleGame(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.admin.ToggleGame(ctx, "42", casino.KindRoulette, false))
	enabled, found, err := f.store.Switch(ctx, casino.KindRoulette)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, enabled)

	require.ErrorIs(t, f.admin.ToggleGame(ctx, "42", "slots", false), common.ErrUnknownGame)
}

func TestResetAccount(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)
	_, err = f.admin.SetBalance(ctx, "42", "p1", 5)
	require.NoError(t, err)

	acc, err := f.admin.ResetAccount(ctx, "42", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)
	assert.Zero(t, acc.WinStreak)

	recs, err := f.ledger.History(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, ledger.KindGrant, recs[0].GameKind)
	require.NoError(t, f.ledger.CheckIntegrity(ctx, "p1"))
}

func TestBanBlocksDebitsUntilExpiry(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.ledger.GetOrCreate(ctx, "p1", "")
	require.NoError(t, err)

	acc, err := f.admin.Ban(ctx, "42", "p1", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, acc.BannedUntil)

	_, err = f.ledger.Debit(ctx, "p1", 10, "test", "")
	require.ErrorIs(t, err, common.ErrBanned)

	st, err := f.admin.Stats(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Banned)

	f.clock.Advance(time.Hour)
	_, err = f.ledger.Debit(ctx, "p1", 10, "test", "")
	require.NoError(t, err)

	_, err = f.admin.Ban(ctx, "42", "p1", time.Hour)
	require.NoError(t, err)
	_, err = f.admin.Unban(ctx, "42", "p1")
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, "p1", 10, "test", "")
	require.NoError(t, err)

	_, err = f.admin.Ban(ctx, "42", "p1", 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestStatsSummary(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := f.ledger.GetOrCreate(ctx, id, "")
		require.NoError(t, err)
	}
	err := f.ledger.Within(ctx, []string{"a"}, func(u *ledger.Unit) error {
		acc, err := u.Load("a")
		if err != nil {
			return err
		}
		_, err = u.Apply(acc, ledger.Entry{Kind: casino.KindCoinFlip, Stake: 100, Delta: 100})
		return err
	})
	require.NoError(t, err)

	st, err := f.admin.Stats(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, &Stats{Accounts: 2, TotalBalance: 2100, Bets: 1, Wagered: 100, Won: 200}, st)
}

func TestLoginSessionLifecycle(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	f := newFixture(t, hash)
	ctx := context.Background()
	auth := f.admin.Auth()

	assert.False(t, auth.IsAuthorized(ctx, "42"), "без сессии нельзя")

	_, err = auth.Login(ctx, "7", "s3cret")
	require.ErrorIs(t, err, common.ErrNotAuthorized)

	s, err := auth.Login(ctx, "42", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.True(t, auth.IsAuthorized(ctx, "42"))

	f.clock.Advance(24 * time.Hour)
	assert.False(t, auth.IsAuthorized(ctx, "42"), "сессия истекла")
	assert.Equal(t, 1, auth.PurgeExpired())

	_, err = auth.Login(ctx, "42", "s3cret")
	require.NoError(t, err)
	auth.Logout("42")
	assert.False(t, auth.IsAuthorized(ctx, "42"))
}

func TestLoginLockout(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	f := newFixture(t, hash)
	ctx := context.Background()
	auth := f.admin.Auth()

	for i := 0; i < MaxFailedAttempts; i++ {
		_, err := auth.Login(ctx, "42", "nope")
		require.ErrorIs(t, err, common.ErrWrongPassword)
		f.clock.Advance(time.Minute)
	}
	_, err = auth.Login(ctx, "42", "s3cret")
	require.ErrorIs(t, err, common.ErrTooManyAttempts, "верный пароль тоже блокируется")

	f.clock.Advance(AttemptWindow)
	_, err = auth.Login(ctx, "42", "s3cret")
	require.NoError(t, err)
}
