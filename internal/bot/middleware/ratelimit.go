package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// RateLimiter ограничивает количество запросов от пользователя.
// Скользящее окно: не больше limit запросов за window.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	clock    quartz.Clock
}

// NewRateLimiter создаёт ограничитель. Старые отметки чистит Run.
func NewRateLimiter(limit int, window time.Duration, clock quartz.Clock) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		clock:    clock,
	}
}

// Allow регистрирует запрос userID и сообщает, укладывается ли он в лимит.
func (rl *RateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	recent := rl.recent(userID, now)
	if len(recent) >= rl.limit {
		rl.requests[userID] = recent
		return false
	}
	rl.requests[userID] = append(recent, now)
	return true
}

// recent возвращает отметки внутри окна. Вызывается под rl.mu.
func (rl *RateLimiter) recent(userID string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var out []time.Time
	for _, t := range rl.requests[userID] {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Cleanup удаляет пользователей без запросов в текущем окне.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for userID := range rl.requests {
		if recent := rl.recent(userID, now); len(recent) == 0 {
			delete(rl.requests, userID)
		} else {
			rl.requests[userID] = recent
		}
	}
}

// Tracked — число пользователей с отметками (для тестов и отладки).
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

// Run чистит старые отметки каждые 5 минут, пока жив ctx.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := rl.clock.NewTicker(5*time.Minute, "ratelimit", "cleanup")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
