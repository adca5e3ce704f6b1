// Package casino — games.go содержит правила розыгрыша каждой игры.
// Игра не трогает баланс: она разбирает выбор игрока и возвращает исход.
package casino

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"serotonyl.ru/casino-bot/internal/common"
)

// Game — одна игра.
type Game interface {
	Kind() string
	// ParseSelection приводит выбор игрока к канонической строке.
	ParseSelection(raw string) (string, error)
	// Play разыгрывает исход для канонического выбора.
	Play(rng RandomSource, selection string) Outcome
}

// NewGames собирает реестр игр по правилам.
func NewGames(r Rules) map[string]Game {
	games := []Game{
		&taiXiu{r: r.TaiXiu},
		&coinFlip{r: r.CoinFlip},
		&dice{r: r.Dice},
		newRoulette(r.Roulette),
		&highLow{r: r.HighLow},
		&bauCua{r: r.BauCua},
	}
	out := make(map[string]Game, len(games))
	for _, g := range games {
		out[g.Kind()] = g
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidSelection, fmt.Sprintf(format, args...))
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func alias(raw string, table map[string]string) (string, bool) {
	v, ok := table[normalize(raw)]
	return v, ok
}

// --- Тай/Сиу ---

var taiXiuAliases = map[string]string{
	"tai": "tai", "big": "tai", "high": "tai", "тай": "tai", "большое": "tai", "б": "tai",
	"xiu": "xiu", "small": "xiu", "low": "xiu", "сиу": "xiu", "малое": "xiu", "м": "xiu",
}

type taiXiu struct{ r TaiXiuRules }

func (g *taiXiu) Kind() string { return KindTaiXiu }

func (g *taiXiu) ParseSelection(raw string) (string, error) {
	if v, ok := alias(raw, taiXiuAliases); ok {
		return v, nil
	}
	return "", invalid("тай/сиу: ожидается tai или xiu, получено %q", raw)
}

func (g *taiXiu) Play(rng RandomSource, sel string) Outcome {
	d := []int{rng.IntN(6) + 1, rng.IntN(6) + 1, rng.IntN(6) + 1}
	total := d[0] + d[1] + d[2]
	triple := d[0] == d[1] && d[1] == d[2]

	side := "—"
	switch {
	case total >= g.r.TaiMin:
		side = "tai"
	case total <= g.r.XiuMax:
		side = "xiu"
	}

	out := Outcome{
		Draw:        d,
		Multiplier:  g.r.Multiplier,
		Description: fmt.Sprintf("🎲 %d-%d-%d = %d (%s)", d[0], d[1], d[2], total, side),
	}
	switch {
	case triple && g.r.TripleHouseWins:
		out.Description += ", тройка — выигрыш заведения"
	case sel == side:
		out.Win = true
		if triple {
			out.Multiplier = g.r.TripleMultiplier
			out.Description += ", тройка!"
		}
	}
	return out
}

// --- Монетка ---

var coinAliases = map[string]string{
	"heads": "heads", "h": "heads", "орел": "heads", "орёл": "heads", "о": "heads",
	"tails": "tails", "t": "tails", "решка": "tails", "р": "tails",
}

var coinNames = map[string]string{"heads": "орёл", "tails": "решка"}

type coinFlip struct{ r CoinFlipRules }

func (g *coinFlip) Kind() string { return KindCoinFlip }

func (g *coinFlip) ParseSelection(raw string) (string, error) {
	if v, ok := alias(raw, coinAliases); ok {
		return v, nil
	}
	return "", invalid("монетка: ожидается орёл или решка, получено %q", raw)
}

func (g *coinFlip) Play(rng RandomSource, sel string) Outcome {
	v := rng.IntN(2)
	side := "heads"
	if v == 1 {
		side = "tails"
	}
	return Outcome{
		Win:         sel == side,
		Multiplier:  g.r.Multiplier,
		Draw:        []int{v},
		Description: "🪙 Выпал " + coinNames[side],
	}
}

// --- Угадай кость ---

type dice struct{ r DiceRules }

func (g *dice) Kind() string { return KindDice }

func (g *dice) ParseSelection(raw string) (string, error) {
	n, err := strconv.Atoi(normalize(raw))
	if err != nil || n < 1 || n > 6 {
		return "", invalid("кость: ожидается число от 1 до 6, получено %q", raw)
	}
	return strconv.Itoa(n), nil
}

func (g *dice) Play(rng RandomSource, sel string) Outcome {
	v := rng.IntN(6) + 1
	return Outcome{
		Win:         sel == strconv.Itoa(v),
		Multiplier:  g.r.Multiplier,
		Draw:        []int{v},
		Description: fmt.Sprintf("🎯 Выпало %d", v),
	}
}

// --- Рулетка ---

var rouletteAliases = map[string]string{
	"red": "red", "красное": "red", "красный": "red", "к": "red",
	"black": "black", "черное": "black", "чёрное": "black", "черный": "black", "ч": "black",
	"even": "even", "чет": "even", "чёт": "even", "четное": "even",
	"odd": "odd", "нечет": "odd", "нечёт": "odd", "нечетное": "odd",
}

type roulette struct {
	r   RouletteRules
	red map[int]bool
}

func newRoulette(r RouletteRules) *roulette {
	red := make(map[int]bool, len(r.Red))
	for _, n := range r.Red {
		red[n] = true
	}
	return &roulette{r: r, red: red}
}

func (g *roulette) Kind() string { return KindRoulette }

func (g *roulette) ParseSelection(raw string) (string, error) {
	if v, ok := alias(raw, rouletteAliases); ok {
		return v, nil
	}
	n, err := strconv.Atoi(normalize(raw))
	if err != nil || n < 0 || n > 36 {
		return "", invalid("рулетка: ожидается red/black/even/odd или число 0–36, получено %q", raw)
	}
	return strconv.Itoa(n), nil
}

func (g *roulette) color(n int) string {
	switch {
	case n == 0:
		return "zero"
	case g.red[n]:
		return "red"
	default:
		return "black"
	}
}

var colorNames = map[string]string{"zero": "🟢 зеро", "red": "🔴 красное", "black": "⚫ чёрное"}

func (g *roulette) Play(rng RandomSource, sel string) Outcome {
	n := rng.IntN(37)
	out := Outcome{
		Draw:        []int{n},
		Description: fmt.Sprintf("🎡 Выпало %d, %s", n, colorNames[g.color(n)]),
	}
	switch sel {
	case "red", "black":
		out.Multiplier = g.r.ColorMultiplier
		out.Win = n != 0 && g.color(n) == sel
	case "even":
		out.Multiplier = g.r.ParityMultiplier
		out.Win = n != 0 && n%2 == 0
	case "odd":
		out.Multiplier = g.r.ParityMultiplier
		out.Win = n%2 == 1
	default:
		out.Multiplier = g.r.NumberMultiplier
		out.Win = sel == strconv.Itoa(n)
	}
	return out
}

// --- Больше/Меньше ---

var highLowAliases = map[string]string{
	"cao": "cao", "high": "cao", "hi": "cao", "больше": "cao", "выше": "cao",
	"thap": "thap", "low": "thap", "lo": "thap", "меньше": "thap", "ниже": "thap",
}

type highLow struct{ r HighLowRules }

func (g *highLow) Kind() string { return KindHighLow }

func (g *highLow) ParseSelection(raw string) (string, error) {
	if v, ok := alias(raw, highLowAliases); ok {
		return v, nil
	}
	return "", invalid("больше/меньше: ожидается cao или thap, получено %q", raw)
}

// cardName — ранги 1, 11, 12, 13 показываем как туз и картинки.
func cardName(rank int) string {
	switch rank {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	}
	return strconv.Itoa(rank)
}

func (g *highLow) Play(rng RandomSource, sel string) Outcome {
	rank := rng.IntN(g.r.Ranks) + 1
	side := "thap"
	if rank > g.r.Pivot {
		side = "cao"
	}
	return Outcome{
		Win:         sel == side,
		Multiplier:  g.r.Multiplier,
		Draw:        []int{rank},
		Description: fmt.Sprintf("🃏 Карта %s", cardName(rank)),
	}
}

// --- Звериная рулетка ---

var bauCuaAliases = map[string]string{
	"тыква": "bau", "краб": "cua", "креветка": "tom", "рыба": "ca", "петух": "ga", "олень": "nai",
}

var bauCuaEmoji = map[string]string{
	"bau": "🎃", "cua": "🦀", "tom": "🦐", "ca": "🐟", "ga": "🐓", "nai": "🦌",
}

type bauCua struct{ r BauCuaRules }

func (g *bauCua) Kind() string { return KindBauCua }

func (g *bauCua) face(raw string) (string, bool) {
	v := normalize(raw)
	if a, ok := bauCuaAliases[v]; ok {
		v = a
	}
	return v, slices.Contains(g.r.Faces, v)
}

// ParseSelection принимает до MaxPicks разных граней через пробел или запятую.
func (g *bauCua) ParseSelection(raw string) (string, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	if len(parts) == 0 {
		return "", invalid("звериная рулетка: выбери от 1 до %d граней (%s)", g.r.MaxPicks, strings.Join(g.r.Faces, ", "))
	}
	picked := make([]string, 0, len(parts))
	for _, p := range parts {
		f, ok := g.face(p)
		if !ok {
			return "", invalid("звериная рулетка: неизвестная грань %q", p)
		}
		if slices.Contains(picked, f) {
			return "", invalid("звериная рулетка: грань %q выбрана дважды", f)
		}
		picked = append(picked, f)
	}
	if len(picked) > g.r.MaxPicks {
		return "", invalid("звериная рулетка: не больше %d граней", g.r.MaxPicks)
	}
	return strings.Join(picked, ","), nil
}

func faceLabel(f string) string {
	if e, ok := bauCuaEmoji[f]; ok {
		return e
	}
	return f
}

// Play бросает три кубика. Выплата = ставка × число совпавших кубиков.
func (g *bauCua) Play(rng RandomSource, sel string) Outcome {
	picked := strings.Split(sel, ",")
	draw := make([]int, 3)
	labels := make([]string, 3)
	var matches int64
	for i := range draw {
		draw[i] = rng.IntN(len(g.r.Faces))
		face := g.r.Faces[draw[i]]
		labels[i] = faceLabel(face)
		if slices.Contains(picked, face) {
			matches++
		}
	}
	return Outcome{
		Win:         matches > 0,
		Multiplier:  matches,
		Draw:        draw,
		Description: fmt.Sprintf("🦀 Выпало %s, совпадений: %d", strings.Join(labels, " "), matches),
	}
}
