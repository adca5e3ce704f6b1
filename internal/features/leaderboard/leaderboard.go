// Package leaderboard строит рейтинг игроков по текущему состоянию кошелька.
// Ничего не кэширует: каждый вызов читает хранилище заново.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Сортировки рейтинга
const (
	OrderBalance = "balance"
	OrderWins    = "wins"
)

// Ограничения размера рейтинга
const (
	DefaultLimit    = 10
	DefaultMaxLimit = 50 // LEADERBOARD_MAX_LIMIT по умолчанию
)

// Entry — строка рейтинга.
type Entry struct {
	Rank        int
	AccountID   string
	DisplayName string
	Value       int64
}

// Service — рейтинг.
type Service struct {
	store    storage.Store
	maxLimit int
}

// NewService создаёт рейтинг. maxLimit ограничивает размер ответа,
// maxLimit <= 0 — без ограничения.
func NewService(store storage.Store, maxLimit int) *Service {
	return &Service{store: store, maxLimit: maxLimit}
}

// ParseOrder переводит русские и английские названия сортировки.
func ParseOrder(raw string) (string, error) {
	switch raw {
	case "", OrderBalance, "баланс", "деньги":
		return OrderBalance, nil
	case OrderWins, "победы", "выигрыши":
		return OrderWins, nil
	}
	return "", fmt.Errorf("%w: %s", common.ErrInvalidOrder, raw)
}

// List возвращает до limit строк по убыванию значения orderBy.
// Равные значения — по возрастанию id. limit ≤ 0 — DefaultLimit.
// limit больше maxLimit сервиса урезается до maxLimit (если он задан).
func (s *Service) List(ctx context.Context, limit int, orderBy string) ([]Entry, error) {
	value, err := valueOf(orderBy)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рейтинга: %w", err)
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		vi, vj := value(accounts[i]), value(accounts[j])
		if vi != vj {
			return vi > vj
		}
		return accounts[i].ID < accounts[j].ID
	})
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}

	entries := make([]Entry, len(accounts))
	for i, acc := range accounts {
		entries[i] = Entry{
			Rank:        i + 1,
			AccountID:   acc.ID,
			DisplayName: acc.DisplayName,
			Value:       value(acc),
		}
	}
	return entries, nil
}

func valueOf(orderBy string) (func(*storage.Account) int64, error) {
	switch orderBy {
	case OrderBalance:
		return func(a *storage.Account) int64 { return a.Balance }, nil
	case OrderWins:
		return func(a *storage.Account) int64 { return int64(a.Wins) }, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrInvalidOrder, orderBy)
}
