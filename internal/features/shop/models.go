// Package shop — магазин предметов за фишки и инвентарь игроков.
// models.go описывает каталог по умолчанию и результаты покупок.
package shop

import "serotonyl.ru/casino-bot/internal/storage"

// DefaultCatalog — товары, если файл правил их не задаёт.
var DefaultCatalog = []storage.ShopItem{
	{ID: "gold", Name: "Золото", Emoji: "🥇", Price: 50},
	{ID: "fire", Name: "Огонь", Emoji: "🔥", Price: 100},
	{ID: "diamond", Name: "Алмаз", Emoji: "💎", Price: 200},
}

// CollectionRule — бонус за коллекцию: при достижении Threshold предметов
// выдаётся значок collector и Bonus фишек, один раз.
type CollectionRule struct {
	Threshold int
	Bonus     int64
}

// PurchaseResult — итог покупки.
type PurchaseResult struct {
	Item            *storage.ShopItem
	NewBalance      int64
	InventoryCount  int
	CollectionBonus int64
	Unlocked        []string
}
