// Package streak — rewards.go содержит расчёт бонуса за серию.
package streak

// CalculateBonus возвращает бонус для серии winStreak.
//
// Бонус выдаётся на каждом кратном Every шаге (3, 6, 9, ... при Every=3),
// ровно один раз при достижении: следующая победа уже не кратна.
//
//	Every=3, Amount=50:
//	  серия 1, 2 → 0
//	  серия 3    → 50
//	  серия 4, 5 → 0
//	  серия 6    → 50
func (r Rule) CalculateBonus(winStreak int) int64 {
	if r.Every <= 0 || winStreak <= 0 || winStreak%r.Every != 0 {
		return 0
	}
	return r.Amount
}
