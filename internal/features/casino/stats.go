// Package casino — stats.go считает RTP (Return To Player) и прочую статистику
// по журналу ставок. Исходы не подкручиваются: RTP только наблюдается.
package casino

import "serotonyl.ru/casino-bot/internal/storage"

// CalculateStats сворачивает журнал в статистику. Неигровые записи пропускаются.
//
// RTP = возвращено игроку / поставлено × 100, где «возвращено» —
// ставка плюс выигрыш по каждой победной ставке.
func CalculateStats(recs []*storage.BetRecord) *Stats {
	st := &Stats{PerGame: make(map[string]int)}
	for _, r := range recs {
		if !IsGameKind(r.GameKind) {
			continue
		}
		st.TotalSpins++
		st.PerGame[r.GameKind]++
		st.TotalWagered += r.Stake
		if r.PayoutDelta > 0 {
			st.Wins++
			st.TotalWon += r.Stake + r.PayoutDelta
			if r.PayoutDelta > st.BiggestWin {
				st.BiggestWin = r.PayoutDelta
			}
		}
	}
	if st.TotalWagered > 0 {
		st.CurrentRTP = float64(st.TotalWon) / float64(st.TotalWagered) * 100
	}
	return st
}

// TheoreticalRTP — ожидаемый RTP игры для выбора selection при текущих правилах.
// Считается полным перебором исходов, используется в тестах и /статс.
func TheoreticalRTP(g Game, selection string) float64 {
	enum := &enumerator{}
	var total, returned float64
	for {
		out := g.Play(enum, selection)
		total++
		if out.Win {
			returned += float64(1 + out.Multiplier)
		}
		if !enum.next() {
			break
		}
	}
	return returned / total * 100
}

// enumerator перебирает все последовательности ответов IntN
// как одометр: разряды — вызовы IntN в порядке розыгрыша.
type enumerator struct {
	digits []int
	bases  []int
	pos    int
}

func (e *enumerator) IntN(n int) int {
	if e.pos == len(e.digits) {
		e.digits = append(e.digits, 0)
		e.bases = append(e.bases, n)
	}
	v := e.digits[e.pos]
	e.pos++
	return v
}

func (e *enumerator) next() bool {
	e.pos = 0
	for i := len(e.digits) - 1; i >= 0; i-- {
		e.digits[i]++
		if e.digits[i] < e.bases[i] {
			return true
		}
		e.digits[i] = 0
	}
	return false
}
