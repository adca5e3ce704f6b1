// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм и длительностей, часовые пояса.
package common

import (
	"fmt"
	"time"
)

// PluralizeChips возвращает правильную форму слова «фишка» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "фишка" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "фишки" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "фишек" (0, 5-20, 25-30, 100, ...)
//
// Примеры:
//
//	PluralizeChips(1)  → "фишка"
//	PluralizeChips(3)  → "фишки"
//	PluralizeChips(11) → "фишек"
//	PluralizeChips(21) → "фишка"
func PluralizeChips(n int64) string {
	return pluralize(n, "фишка", "фишки", "фишек")
}

// PluralizeWins возвращает правильную форму слова «победа».
func PluralizeWins(n int) string {
	return pluralize(int64(n), "победа", "победы", "побед")
}

func pluralize(n int64, one, few, many string) string {
	lastDigit := n % 10
	lastTwoDigits := n % 100
	if n < 0 {
		lastDigit, lastTwoDigits = -lastDigit, -lastTwoDigits
	}

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(1500) → "1 500 фишек"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(balance), PluralizeChips(balance))
}

// FormatDuration форматирует остаток ожидания: "5 ч 03 мин", "12 мин", "40 сек".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d сек", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%d мин", m)
	}
	return fmt.Sprintf("%d ч %02d мин", h, m)
}

// LoadLocation загружает часовой пояс по имени.
// Если tzdata недоступна (scratch-образ) — используем UTC+3 вручную.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в заданном поясе.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}
