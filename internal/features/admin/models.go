// Package admin реализует ручное управление экономикой с парольной аутентификацией.
// models.go описывает сессии и сводку по экономике.
package admin

import "time"

// Защита от перебора: MaxFailedAttempts неудачных попыток за AttemptWindow
// блокируют вход до конца окна.
const (
	MaxFailedAttempts = 3
	AttemptWindow     = time.Hour
)

// Session — активная сессия администратора.
type Session struct {
	CallerID        string
	Token           string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
}

// Stats — сводка по экономике для админа и ночного отчёта.
type Stats struct {
	Accounts     int
	Banned       int
	TotalBalance int64
	Bets         int
	Wagered      int64
	Won          int64
}
