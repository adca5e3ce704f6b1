// Package common — pluralize.go содержит форматирование сумм со знаком
// и разделителями тысяч. Склонения реализованы в helpers.go.
package common

import (
	"fmt"
	"strconv"
)

// FormatDelta создаёт строку вида "+100 фишек" или "-50 фишек".
// Знак «+» или «-» добавляется автоматически.
//
// Примеры:
//
//	FormatDelta(100)  → "+100 фишек"
//	FormatDelta(-50)  → "-50 фишек"
//	FormatDelta(1)    → "+1 фишка"
func FormatDelta(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), PluralizeChips(amount))
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeChips(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		// модуль через uint64: -math.MinInt64 не помещается в int64
		return "-" + formatUnsigned(uint64(-(n + 1))+1)
	}
	return formatUnsigned(uint64(n))
}

func formatUnsigned(n uint64) string {
	if n < 1000 {
		return strconv.FormatUint(n, 10)
	}
	return fmt.Sprintf("%s %03d", formatUnsigned(n/1000), n%1000)
}
