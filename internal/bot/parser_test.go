package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"!баланс", "баланс", nil, true},
		{".Рулетка 100 red", "рулетка", []string{"100", "red"}, true},
		{"/start@casino_bot", "start", nil, true},
		{"  !ставка  taixiu 50 tai ", "ставка", []string{"taixiu", "50", "tai"}, true},
		{"!Всё", "все", nil, true},
		{"привет", "", nil, false},
		{"!", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCmd, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestParseAmount(t *testing.T) {
	for raw, want := range map[string]int64{"500": 500, "1_000": 1000, "2к": 2000, "3k": 3000, "9223372036854775k": 9223372036854775000} {
		got, all, err := parseAmount(raw)
		require.NoError(t, err, raw)
		assert.False(t, all, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"все", "ALL", "всё"} {
		got, all, err := parseAmount(raw)
		require.NoError(t, err, raw)
		assert.True(t, all, raw)
		assert.Zero(t, got, raw)
	}
	for _, raw := range []string{"0", "-5", "abc", "к", "9223372036854776k", "18446744073709552k", "99999999999999999999"} {
		_, _, err := parseAmount(raw)
		assert.Error(t, err, raw)
	}
}

func TestParsePositiveAmount(t *testing.T) {
	n, err := parsePositiveAmount("2к")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), n)

	_, err = parsePositiveAmount("все")
	assert.Error(t, err)
	_, err = parsePositiveAmount("18446744073709552k")
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	for raw, want := range map[string]time.Duration{"30m": 30 * time.Minute, "2h": 2 * time.Hour, "3d": 72 * time.Hour, "1д": 24 * time.Hour} {
		got, err := parseDuration(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"0h", "навсегда", "-1d"} {
		_, err := parseDuration(raw)
		assert.Error(t, err, raw)
	}
}
