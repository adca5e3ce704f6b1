// Package casino реализует игры на ставки: тай/сиу, монетку, кость,
// рулетку, карту больше/меньше и звериную рулетку.
// models.go описывает типы исходов и результатов.
package casino

// Виды игр. Значение пишется в журнал как gameKind.
const (
	KindTaiXiu   = "taixiu"
	KindCoinFlip = "coinflip"
	KindDice     = "dice"
	KindRoulette = "roulette"
	KindHighLow  = "highlow"
	KindBauCua   = "baucua"
)

// Kinds — все игры в порядке показа.
var Kinds = []string{KindTaiXiu, KindCoinFlip, KindDice, KindRoulette, KindHighLow, KindBauCua}

// Titles — названия игр для ответов бота.
var Titles = map[string]string{
	KindTaiXiu:   "🎲 Тай/Сиу",
	KindCoinFlip: "🪙 Монетка",
	KindDice:     "🎯 Угадай кость",
	KindRoulette: "🎡 Рулетка",
	KindHighLow:  "🃏 Больше/Меньше",
	KindBauCua:   "🦀 Звериная рулетка",
}

// Outcome — исход одного розыгрыша.
// При победе выплата = ставка × Multiplier, при поражении — минус ставка.
type Outcome struct {
	Win         bool
	Multiplier  int64
	Draw        []int
	Description string
}

// BetResult — результат ставки после применения к кошельку.
type BetResult struct {
	Game        string
	Stake       int64
	Selection   string
	Win         bool
	PayoutDelta int64
	NewBalance  int64
	Outcome     string
	StreakBonus int64
	WinStreak   int
	LossStreak  int
	Unlocked    []string
}

// Stats — статистика игрока, считается по журналу.
type Stats struct {
	TotalSpins   int
	Wins         int
	TotalWagered int64
	TotalWon     int64 // возвращено игроку: ставка + выигрыш по победным ставкам
	BiggestWin   int64
	CurrentRTP   float64 // TotalWon / TotalWagered × 100
	PerGame      map[string]int
}
