package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// "/баланс@casino_bot" → ("баланс", nil, true).
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	command = strings.ReplaceAll(command, "ё", "е")

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}

// allIn — слова «на всё».
var allIn = map[string]bool{"все": true, "всё": true, "all": true, "allin": true}

// parseAmount разбирает сумму: "500", "1 000" уже разбито на поля, поэтому
// принимаем "1_000" и "1к". "все" — весь баланс: all == true, amount == 0.
func parseAmount(raw string) (amount int64, all bool, err error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if allIn[s] {
		return 0, true, nil
	}
	s = strings.ReplaceAll(s, "_", "")

	mult := int64(1)
	if r, size := utf8.DecodeLastRuneInString(s); r == 'к' || r == 'k' {
		mult = 1000
		s = s[:len(s)-size]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt64/mult {
		return 0, false, fmt.Errorf("некорректная сумма %q", raw)
	}
	return n * mult, false, nil
}

// parsePositiveAmount — конкретная сумма без «все».
func parsePositiveAmount(raw string) (int64, error) {
	n, all, err := parseAmount(raw)
	if err != nil {
		return 0, err
	}
	if all {
		return 0, fmt.Errorf("нужна конкретная сумма, а не %q", raw)
	}
	return n, nil
}

// parseDuration понимает "30m", "2h", "3d" и "3д".
func parseDuration(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if r, size := utf8.DecodeLastRuneInString(s); r == 'd' || r == 'д' {
		days, err := strconv.Atoi(s[:len(s)-size])
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("некорректный срок %q", raw)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("некорректный срок %q", raw)
	}
	return d, nil
}
