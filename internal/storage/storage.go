package storage

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound — запись не найдена. Сервисы переводят её в доменные ошибки.
var ErrNotFound = errors.New("запись не найдена")

// Store — постоянное хранилище движка.
//
// Atomic — единственный способ изменить аккаунты: fn выполняется
// в сериализованной единице над перечисленными id. Пока fn работает,
// никакая другая единица с пересекающимся набором id не стартует.
// Ошибка fn откатывает все изменения, успех означает durable-коммит.
type Store interface {
	Atomic(ctx context.Context, accountIDs []string, fn func(ctx context.Context, tx Tx) error) error

	Account(ctx context.Context, id string) (*Account, error)
	Accounts(ctx context.Context) ([]*Account, error)
	// History возвращает журнал от новых к старым. limit <= 0 — весь журнал.
	History(ctx context.Context, accountID string, limit int) ([]*BetRecord, error)
	// Inventory возвращает предметы в порядке покупки.
	Inventory(ctx context.Context, accountID string) ([]*InventoryEntry, error)
	Achievements(ctx context.Context, accountID string) ([]*Achievement, error)

	Item(ctx context.Context, id string) (*ShopItem, error)
	Items(ctx context.Context) ([]*ShopItem, error)
	PutItem(ctx context.Context, item *ShopItem) error

	// Switch возвращает состояние игры. found=false — админ её не трогал.
	Switch(ctx context.Context, kind string) (enabled bool, found bool, err error)
	Switches(ctx context.Context) (map[string]bool, error)
	PutSwitch(ctx context.Context, kind string, enabled bool) error

	Close() error
}

// Tx — операции внутри Atomic. Доступны только аккаунты,
// перечисленные при открытии единицы.
type Tx interface {
	Account(id string) (*Account, error)
	CreateAccount(acc *Account) error
	SaveAccount(acc *Account) error

	AppendRecord(rec *BetRecord) error
	ClearHistory(accountID string) error

	AddInventory(entry *InventoryEntry) error
	InventoryCount(accountID string) (int, error)

	// Unlock возвращает true, если значок выдан впервые.
	Unlock(a *Achievement) (bool, error)
}

// LockOrder сортирует и убирает дубликаты id.
// Все реализации берут блокировки в этом порядке, поэтому встречные
// переводы не могут взаимно заблокироваться.
func LockOrder(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Contains проверяет, что id входит в набор единицы.
func Contains(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}

// ErrOutsideUnit — обращение к аккаунту, не заблокированному в единице.
var ErrOutsideUnit = errors.New("аккаунт не входит в атомарную единицу")
