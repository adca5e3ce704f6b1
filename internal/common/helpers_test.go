package common

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeChips(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "фишек"},
		{1, "фишка"},
		{2, "фишки"},
		{5, "фишек"},
		{11, "фишек"},
		{12, "фишек"},
		{21, "фишка"},
		{22, "фишки"},
		{111, "фишек"},
		{-3, "фишки"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizeChips(tt.n), "n=%d", tt.n)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 005", FormatNumber(1000005))
	assert.Equal(t, "-1 500", FormatNumber(-1500))
	assert.Equal(t, "9 223 372 036 854 775 807", FormatNumber(math.MaxInt64))
	assert.Equal(t, "-9 223 372 036 854 775 808", FormatNumber(math.MinInt64))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+100 фишек", FormatDelta(100))
	assert.Equal(t, "-50 фишек", FormatDelta(-50))
	assert.Equal(t, "+1 фишка", FormatDelta(1))
	assert.Equal(t, "-21 фишка", FormatDelta(-21))
	assert.Equal(t, "-9 223 372 036 854 775 808 фишек", FormatDelta(math.MinInt64))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "40 сек", FormatDuration(40*time.Second))
	assert.Equal(t, "12 мин", FormatDuration(12*time.Minute))
	assert.Equal(t, "5 ч 03 мин", FormatDuration(5*time.Hour+3*time.Minute))
}

func TestCooldownErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("claim: %w", &CooldownError{Kind: "daily", Remaining: time.Hour})
	assert.True(t, errors.Is(err, ErrCooldownActive))

	var cd *CooldownError
	assert.True(t, errors.As(err, &cd))
	assert.Equal(t, time.Hour, cd.Remaining)
}
