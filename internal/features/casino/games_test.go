package casino

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casino-bot/internal/common"
)

func TestParseSelection(t *testing.T) {
	games := NewGames(DefaultRules())

	tests := []struct {
		kind string
		raw  string
		want string
		ok   bool
	}{
		{KindTaiXiu, "TAI", "tai", true},
		{KindTaiXiu, "малое", "xiu", true},
		{KindTaiXiu, "middle", "", false},
		{KindCoinFlip, "орёл", "heads", true},
		{KindCoinFlip, "tails", "tails", true},
		{KindCoinFlip, "edge", "", false},
		{KindDice, "6", "6", true},
		{KindDice, "7", "", false},
		{KindDice, "0", "", false},
		{KindRoulette, "красное", "red", true},
		{KindRoulette, "0", "0", true},
		{KindRoulette, "36", "36", true},
		{KindRoulette, "37", "", false},
		{KindRoulette, "green", "", false},
		{KindHighLow, "high", "cao", true},
		{KindHighLow, "меньше", "thap", true},
		{KindBauCua, "cua", "cua", true},
		{KindBauCua, "краб, рыба", "cua,ca", true},
		{KindBauCua, "bau cua tom", "bau,cua,tom", true},
		{KindBauCua, "bau cua tom ga", "", false},
		{KindBauCua, "bau bau", "", false},
		{KindBauCua, "dragon", "", false},
		{KindBauCua, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.raw, func(t *testing.T) {
			got, err := games[tt.kind].ParseSelection(tt.raw)
			if !tt.ok {
				require.ErrorIs(t, err, common.ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaiXiuPlay(t *testing.T) {
	tests := []struct {
		name     string
		rules    func(*TaiXiuRules)
		dice     []int // грани 1..6
		sel      string
		win      bool
		multiple int64
	}{
		{"tai on 11", nil, []int{5, 5, 1}, "tai", true, 1},
		{"xiu on 10", nil, []int{4, 4, 2}, "xiu", true, 1},
		{"tai loses on 10", nil, []int{4, 4, 2}, "tai", false, 1},
		{"triple 666 default", nil, []int{6, 6, 6}, "tai", true, 1},
		{"triple 666 double", func(r *TaiXiuRules) { r.TripleMultiplier = 2 }, []int{6, 6, 6}, "tai", true, 2},
		{"triple house wins", func(r *TaiXiuRules) { r.TripleHouseWins = true }, []int{6, 6, 6}, "tai", false, 1},
		{"triple 111 xiu", nil, []int{1, 1, 1}, "xiu", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules().TaiXiu
			if tt.rules != nil {
				tt.rules(&rules)
			}
			g := &taiXiu{r: rules}
			out := g.Play(NewSequence(tt.dice[0]-1, tt.dice[1]-1, tt.dice[2]-1), tt.sel)
			assert.Equal(t, tt.win, out.Win)
			if tt.win {
				assert.Equal(t, tt.multiple, out.Multiplier)
			}
			assert.Equal(t, tt.dice, out.Draw)
		})
	}
}

// Рулетка: для каждого числа 0..36 проверяем точную выплату по всем типам ставок.
func TestRoulettePayoutExactness(t *testing.T) {
	g := newRoulette(DefaultRules().Roulette)
	red := map[int]bool{}
	for _, n := range DefaultRules().Roulette.Red {
		red[n] = true
	}

	for n := 0; n <= 36; n++ {
		for _, sel := range []string{"red", "black", "even", "odd"} {
			out := g.Play(NewSequence(n), sel)
			var want bool
			switch sel {
			case "red":
				want = n != 0 && red[n]
			case "black":
				want = n != 0 && !red[n]
			case "even":
				want = n != 0 && n%2 == 0
			case "odd":
				want = n%2 == 1
			}
			assert.Equal(t, want, out.Win, "n=%d sel=%s", n, sel)
			assert.Equal(t, int64(1), out.Multiplier)
		}

		hit := g.Play(NewSequence(n), strconv.Itoa(n))
		assert.True(t, hit.Win)
		assert.Equal(t, int64(35), hit.Multiplier)

		miss := g.Play(NewSequence(n), strconv.Itoa((n+1)%37))
		assert.False(t, miss.Win)
	}
}

func TestHighLowPivot(t *testing.T) {
	g := &highLow{r: DefaultRules().HighLow}
	for rank := 1; rank <= 13; rank++ {
		out := g.Play(NewSequence(rank-1), "cao")
		assert.Equal(t, rank > 7, out.Win, "rank=%d", rank)
		out = g.Play(NewSequence(rank-1), "thap")
		assert.Equal(t, rank <= 7, out.Win, "rank=%d", rank)
	}
}

func TestBauCuaMatches(t *testing.T) {
	g := &bauCua{r: DefaultRules().BauCua}
	// грани: bau=0 cua=1 tom=2 ca=3 ga=4 nai=5
	tests := []struct {
		draw    []int
		sel     string
		matches int64
	}{
		{[]int{1, 1, 1}, "cua", 3},
		{[]int{1, 3, 5}, "cua,ca", 2},
		{[]int{0, 2, 4}, "cua,ca,nai", 0},
		{[]int{5, 0, 5}, "nai", 2},
	}
	for _, tt := range tests {
		out := g.Play(NewSequence(tt.draw...), tt.sel)
		assert.Equal(t, tt.matches > 0, out.Win)
		assert.Equal(t, tt.matches, out.Multiplier)
	}
}

func TestTheoreticalRTP(t *testing.T) {
	games := NewGames(DefaultRules())
	assert.InDelta(t, 100.0, TheoreticalRTP(games[KindCoinFlip], "heads"), 1e-9)
	assert.InDelta(t, 100.0, TheoreticalRTP(games[KindDice], "3"), 1e-9)
	assert.InDelta(t, 100.0, TheoreticalRTP(games[KindTaiXiu], "tai"), 1e-9)
	assert.InDelta(t, 18.0/37*2*100, TheoreticalRTP(games[KindRoulette], "red"), 1e-9)
	assert.InDelta(t, 36.0/37*100, TheoreticalRTP(games[KindRoulette], "17"), 1e-9)
	assert.InDelta(t, 199.0/216*100, TheoreticalRTP(games[KindBauCua], "cua"), 1e-9)

	house := DefaultRules()
	house.TaiXiu.TripleHouseWins = true
	assert.InDelta(t, 105.0/216*2*100, TheoreticalRTP(NewGames(house)[KindTaiXiu], "tai"), 1e-9)
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
games:
  tai_xiu:
    triple_multiplier: 2
    triple_house_wins: false
  dice:
    multiplier: 4
shop:
  - id: gold
    price: 50
`), 0o600))

	rules, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rules.TaiXiu.TripleMultiplier)
	assert.Equal(t, 11, rules.TaiXiu.TaiMin, "незаданные поля остаются стандартными")
	assert.Equal(t, int64(4), rules.Dice.Multiplier)
	assert.Len(t, rules.Roulette.Red, 18)

	require.NoError(t, os.WriteFile(path, []byte("games:\n  high_low:\n    pivot: 20\n"), 0o600))
	_, err = LoadRules(path)
	assert.Error(t, err)
}
