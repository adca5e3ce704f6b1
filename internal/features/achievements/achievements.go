// Package achievements выдаёт значки за игровые события.
// Значок выдаётся один раз, повторная выдача — no-op.
package achievements

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Значки
const (
	FirstWin     = "first_win"     // первая победа
	StreakMaster = "streak_master" // серия побед подряд
	Collector    = "collector"     // коллекция предметов
)

// Titles — подписи значков для ответов бота.
var Titles = map[string]string{
	FirstWin:     "🏅 Первая победа",
	StreakMaster: "🔥 Мастер серий",
	Collector:    "💼 Коллекционер",
}

// Service читает и выдаёт значки.
type Service struct {
	store storage.Store
}

// NewService создаёт сервис значков.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Unlock выдаёт значок внутри единицы u. Возвращает true при первой выдаче.
func (s *Service) Unlock(u *ledger.Unit, accountID, badge string) (bool, error) {
	ok, err := u.Tx().Unlock(&storage.Achievement{AccountID: accountID, Badge: badge, UnlockedAt: u.Now()})
	if err != nil {
		return false, fmt.Errorf("ошибка выдачи значка %s: %w", badge, err)
	}
	if ok {
		log.WithFields(log.Fields{"account_id": accountID, "badge": badge}).Info("Значок выдан")
	}
	return ok, nil
}

// List возвращает значки аккаунта.
func (s *Service) List(ctx context.Context, accountID string) ([]*storage.Achievement, error) {
	list, err := s.store.Achievements(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения значков: %w", err)
	}
	return list, nil
}

// Title возвращает подпись значка или его код.
func Title(badge string) string {
	if t, ok := Titles[badge]; ok {
		return t
	}
	return badge
}
