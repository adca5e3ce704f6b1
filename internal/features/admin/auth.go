// Package admin — auth.go решает, кто может выполнять админ-операции.
// Админ — это id из ADMIN_IDS. Если задан ADMIN_PASSWORD_HASH,
// дополнительно нужна активная сессия, открытая паролем.
package admin

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
)

// Authorizer — единственная проверка прав перед каждой админ-операцией.
type Authorizer struct {
	ids          map[string]bool
	passwordHash string
	ttl          time.Duration
	clock        quartz.Clock

	mu       sync.Mutex
	sessions map[string]*Session
	failures map[string][]time.Time
}

// NewAuthorizer создаёт проверку прав.
// Пустой passwordHash — достаточно быть в списке ids.
func NewAuthorizer(ids []string, passwordHash string, ttl time.Duration, clock quartz.Clock) *Authorizer {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = true
		}
	}
	return &Authorizer{
		ids:          m,
		passwordHash: passwordHash,
		ttl:          ttl,
		clock:        clock,
		sessions:     make(map[string]*Session),
		failures:     make(map[string][]time.Time),
	}
}

// IsAdmin проверяет только список ADMIN_IDS.
func (a *Authorizer) IsAdmin(callerID string) bool {
	return a.ids[callerID]
}

// RequiresLogin сообщает, нужна ли парольная сессия.
func (a *Authorizer) RequiresLogin() bool {
	return a.passwordHash != ""
}

// IsAuthorized проверяет право caller на админ-операции.
// Продлевает активность сессии.
func (a *Authorizer) IsAuthorized(_ context.Context, callerID string) bool {
	if !a.ids[callerID] {
		return false
	}
	if !a.RequiresLogin() {
		return true
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[callerID]
	now := a.clock.Now()
	if !ok || !now.Before(s.ExpiresAt) {
		return false
	}
	s.LastActivity = now
	return true
}

// Login открывает сессию по паролю.
// MaxFailedAttempts неудачных попыток за час — ErrTooManyAttempts.
func (a *Authorizer) Login(_ context.Context, callerID, password string) (*Session, error) {
	if !a.ids[callerID] {
		return nil, common.ErrNotAuthorized
	}
	now := a.clock.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	recent := a.recentFailures(callerID, now)
	if len(recent) >= MaxFailedAttempts {
		log.WithField("caller_id", callerID).Warn("[ADMIN] Вход заблокирован: много попыток")
		return nil, common.ErrTooManyAttempts
	}

	if a.RequiresLogin() && !VerifyPassword(password, a.passwordHash) {
		a.failures[callerID] = append(recent, now)
		log.WithFields(log.Fields{
			"caller_id": callerID,
			"attempts":  len(recent) + 1,
		}).Warn("[ADMIN] Неверный пароль")
		return nil, common.ErrWrongPassword
	}

	delete(a.failures, callerID)
	s := &Session{
		CallerID:        callerID,
		Token:           generateSecureToken(),
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(a.ttl),
		LastActivity:    now,
	}
	a.sessions[callerID] = s
	log.WithFields(log.Fields{
		"caller_id":  callerID,
		"expires_at": s.ExpiresAt,
	}).Info("[ADMIN] Сессия открыта")
	return s, nil
}

// recentFailures оставляет неудачные попытки за последний AttemptWindow.
// Вызывается под a.mu.
func (a *Authorizer) recentFailures(callerID string, now time.Time) []time.Time {
	list := a.failures[callerID]
	kept := list[:0]
	for _, t := range list {
		if now.Sub(t) < AttemptWindow {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(a.failures, callerID)
		return nil
	}
	a.failures[callerID] = kept
	return kept
}

// Logout закрывает сессию.
func (a *Authorizer) Logout(callerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions[callerID]; ok {
		delete(a.sessions, callerID)
		log.WithField("caller_id", callerID).Info("[ADMIN] Сессия закрыта")
	}
}

// PurgeExpired удаляет истёкшие сессии и старые попытки входа.
// Возвращает число удалённых сессий.
func (a *Authorizer) PurgeExpired() int {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()

	purged := 0
	for id, s := range a.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(a.sessions, id)
			purged++
		}
	}
	for id := range a.failures {
		a.recentFailures(id, now)
	}
	return purged
}
