// Package streak ведёт серии побед и поражений.
// models.go описывает правило бонуса и результат обновления серии.
package streak

// Rule — бонус за серию: Amount начисляется каждый раз,
// когда серия побед становится кратной Every.
// MasterWins — длина серии для значка streak_master (0 — не выдавать).
type Rule struct {
	Every      int
	Amount     int64
	MasterWins int
}

// Result — что изменилось после ставки.
type Result struct {
	WinStreak  int
	LossStreak int
	Bonus      int64    // начисленный бонус, 0 если нет
	Unlocked   []string // новые значки
}
