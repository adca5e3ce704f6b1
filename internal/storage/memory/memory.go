// Package memory — хранилище в памяти процесса.
// Используется как тестовый двойник и при STORAGE_DRIVER=memory.
// Данные теряются при перезапуске.
//
// Блокировки на аккаунт живут в map keys и не удаляются: map растёт на
// одну запись (канал) на каждый id, который хоть раз блокировался. Для
// бота с ограниченным числом игроков это приемлемо, для долгоживущего
// процесса с миллионами id выбирайте sqlite или postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"serotonyl.ru/casino-bot/internal/storage"
)

// Store хранит состояние в map'ах под RWMutex.
// Сериализация по аккаунтам — отдельные блокировки на ключ (канал ёмкостью 1,
// чтобы ожидание можно было прервать контекстом).
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*storage.Account
	history      map[string][]*storage.BetRecord
	inventory    map[string][]*storage.InventoryEntry
	achievements map[string][]*storage.Achievement
	items        map[string]*storage.ShopItem
	switches     map[string]bool

	keysMu sync.Mutex
	keys   map[string]chan struct{} // не очищается, см. doc пакета
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		accounts:     make(map[string]*storage.Account),
		history:      make(map[string][]*storage.BetRecord),
		inventory:    make(map[string][]*storage.InventoryEntry),
		achievements: make(map[string][]*storage.Achievement),
		items:        make(map[string]*storage.ShopItem),
		switches:     make(map[string]bool),
		keys:         make(map[string]chan struct{}),
	}
}

func (s *Store) keyLock(id string) chan struct{} {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	ch, ok := s.keys[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.keys[id] = ch
	}
	return ch
}

// Atomic блокирует аккаунты в порядке storage.LockOrder, выполняет fn
// над черновиком и применяет черновик одним шагом.
func (s *Store) Atomic(ctx context.Context, accountIDs []string, fn func(ctx context.Context, tx storage.Tx) error) error {
	ids := storage.LockOrder(accountIDs)

	held := make([]chan struct{}, 0, len(ids))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}()
	for _, id := range ids {
		ch := s.keyLock(id)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	tx := &memTx{
		store:    s,
		ids:      ids,
		accounts: make(map[string]*storage.Account),
		cleared:  make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, acc := range tx.accounts {
		s.accounts[id] = acc
	}
	for id := range tx.cleared {
		delete(s.history, id)
	}
	for _, rec := range tx.records {
		s.history[rec.AccountID] = append(s.history[rec.AccountID], rec)
	}
	for _, e := range tx.inventory {
		s.inventory[e.AccountID] = append(s.inventory[e.AccountID], e)
	}
	for _, a := range tx.achievements {
		s.achievements[a.AccountID] = append(s.achievements[a.AccountID], a)
	}
}

// Account возвращает копию зафиксированного аккаунта.
func (s *Store) Account(_ context.Context, id string) (*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return acc.Clone(), nil
}

// Accounts возвращает все аккаунты, отсортированные по id.
func (s *Store) Accounts(_ context.Context) ([]*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*storage.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) History(_ context.Context, accountID string, limit int) ([]*storage.BetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.history[accountID]
	n := len(recs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*storage.BetRecord, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		r := *recs[i]
		out = append(out, &r)
	}
	return out, nil
}

func (s *Store) Inventory(_ context.Context, accountID string) ([]*storage.InventoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.inventory[accountID]
	out := make([]*storage.InventoryEntry, 0, len(entries))
	for _, e := range entries {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) Achievements(_ context.Context, accountID string) ([]*storage.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.achievements[accountID]
	out := make([]*storage.Achievement, 0, len(list))
	for _, a := range list {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) Item(_ context.Context, id string) (*storage.ShopItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *it
	return &c, nil
}

// Items возвращает каталог, отсортированный по цене.
func (s *Store) Items(_ context.Context) ([]*storage.ShopItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*storage.ShopItem, 0, len(s.items))
	for _, it := range s.items {
		c := *it
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) PutItem(_ context.Context, item *storage.ShopItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *item
	s.items[item.ID] = &c
	return nil
}

func (s *Store) Switch(_ context.Context, kind string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.switches[kind]
	return enabled, ok, nil
}

func (s *Store) Switches(_ context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.switches))
	for k, v := range s.switches {
		out[k] = v
	}
	return out, nil
}

func (s *Store) PutSwitch(_ context.Context, kind string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switches[kind] = enabled
	return nil
}

func (s *Store) Close() error { return nil }

// memTx — черновик изменений одной единицы.
type memTx struct {
	store *Store
	ids   []string

	accounts     map[string]*storage.Account
	records      []*storage.BetRecord
	cleared      map[string]bool
	inventory    []*storage.InventoryEntry
	achievements []*storage.Achievement
}

func (t *memTx) check(id string) error {
	if !storage.Contains(t.ids, id) {
		return fmt.Errorf("%w: %s", storage.ErrOutsideUnit, id)
	}
	return nil
}

func (t *memTx) Account(id string) (*storage.Account, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	if acc, ok := t.accounts[id]; ok {
		return acc.Clone(), nil
	}
	return t.store.Account(context.Background(), id)
}

func (t *memTx) CreateAccount(acc *storage.Account) error {
	if err := t.check(acc.ID); err != nil {
		return err
	}
	if _, err := t.Account(acc.ID); err == nil {
		return fmt.Errorf("аккаунт %s уже существует", acc.ID)
	}
	t.accounts[acc.ID] = acc.Clone()
	return nil
}

func (t *memTx) SaveAccount(acc *storage.Account) error {
	if err := t.check(acc.ID); err != nil {
		return err
	}
	if _, err := t.Account(acc.ID); err != nil {
		return err
	}
	t.accounts[acc.ID] = acc.Clone()
	return nil
}

func (t *memTx) AppendRecord(rec *storage.BetRecord) error {
	if err := t.check(rec.AccountID); err != nil {
		return err
	}
	c := *rec
	t.records = append(t.records, &c)
	return nil
}

func (t *memTx) ClearHistory(accountID string) error {
	if err := t.check(accountID); err != nil {
		return err
	}
	t.cleared[accountID] = true
	kept := t.records[:0]
	for _, r := range t.records {
		if r.AccountID != accountID {
			kept = append(kept, r)
		}
	}
	t.records = kept
	return nil
}

func (t *memTx) AddInventory(entry *storage.InventoryEntry) error {
	if err := t.check(entry.AccountID); err != nil {
		return err
	}
	c := *entry
	t.inventory = append(t.inventory, &c)
	return nil
}

func (t *memTx) InventoryCount(accountID string) (int, error) {
	if err := t.check(accountID); err != nil {
		return 0, err
	}
	t.store.mu.RLock()
	n := len(t.store.inventory[accountID])
	t.store.mu.RUnlock()
	for _, e := range t.inventory {
		if e.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Unlock(a *storage.Achievement) (bool, error) {
	if err := t.check(a.AccountID); err != nil {
		return false, err
	}
	for _, have := range t.achievements {
		if have.AccountID == a.AccountID && have.Badge == a.Badge {
			return false, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, have := range t.store.achievements[a.AccountID] {
		if have.Badge == a.Badge {
			return false, nil
		}
	}
	c := *a
	t.achievements = append(t.achievements, &c)
	return true, nil
}
