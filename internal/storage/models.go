// Package storage описывает модели и границу хранилища движка.
// Реализации: storage/memory (тесты и STORAGE_DRIVER=memory),
// db/postgres и db/sqlite.
package storage

import "time"

// Account — кошелёк игрока.
// Создаётся лениво со стартовым балансом, никогда не удаляется.
type Account struct {
	ID             string
	DisplayName    string
	Balance        int64
	CreatedAt      time.Time
	LastDailyClaim *time.Time
	LastQuestClaim *time.Time
	WinStreak      int
	LossStreak     int
	Wins           int
	Losses         int
	BannedUntil    *time.Time
}

// Clone возвращает независимую копию аккаунта (вместе с указателями на время).
func (a *Account) Clone() *Account {
	c := *a
	c.LastDailyClaim = cloneTime(a.LastDailyClaim)
	c.LastQuestClaim = cloneTime(a.LastQuestClaim)
	c.BannedUntil = cloneTime(a.BannedUntil)
	return &c
}

// IsBanned проверяет активный бан на момент now.
func (a *Account) IsBanned(now time.Time) bool {
	return a.BannedUntil != nil && now.Before(*a.BannedUntil)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// BetRecord — строка журнала. Пишется при каждом движении баланса
// (ставки, бонусы, покупки, переводы, действия админа). Только добавляется.
type BetRecord struct {
	ID          string
	AccountID   string
	GameKind    string
	Stake       int64
	Selection   string
	Outcome     string
	PayoutDelta int64
	Balance     int64 // баланс после применения
	CreatedAt   time.Time
}

// ShopItem — позиция каталога.
type ShopItem struct {
	ID    string
	Name  string
	Emoji string
	Price int64
}

// InventoryEntry — купленный предмет. Создаётся только покупкой, не удаляется.
type InventoryEntry struct {
	ID         string
	AccountID  string
	ItemID     string
	AcquiredAt time.Time
}

// Achievement — разблокированный значок.
type Achievement struct {
	AccountID  string
	Badge      string
	UnlockedAt time.Time
}
