// Package ledger реализует кошелёк игроков.
// models.go описывает строки журнала и виды операций.
package ledger

import "serotonyl.ru/casino-bot/internal/storage"

// Виды записей журнала, кроме игровых (игры пишут свой gameKind).
const (
	KindGrant           = "grant"            // стартовый капитал
	KindDaily           = "daily"            // ежедневный бонус
	KindQuest           = "quest"            // награда за квест
	KindStreakBonus     = "streak-bonus"     // бонус за серию побед
	KindShop            = "shop"             // покупка в магазине
	KindCollectionBonus = "collection-bonus" // бонус за коллекцию
	KindTransferOut     = "transfer-out"     // перевод другому игроку
	KindTransferIn      = "transfer-in"      // входящий перевод
	KindAdminGift       = "admin-gift"       // подарок от админа
	KindAdminSet        = "admin-set"        // баланс выставлен админом
)

// Entry — движение баланса. Delta со знаком: минус — списание.
type Entry struct {
	Kind      string
	Stake     int64
	Selection string
	Outcome   string
	Delta     int64
}

// TransferResult — оба аккаунта после перевода.
type TransferResult struct {
	From *storage.Account
	To   *storage.Account
}
