// Package shop — service.go: покупка списывает цену и добавляет предмет
// в инвентарь в одной единице. Предметы не удаляются.
package shop

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Service — магазин.
type Service struct {
	store   storage.Store
	ledger  *ledger.Service
	badges  *achievements.Service
	catalog []storage.ShopItem
	rule    CollectionRule
}

// NewService создаёт магазин с каталогом catalog.
func NewService(store storage.Store, ledgerSvc *ledger.Service, badges *achievements.Service,
	catalog []storage.ShopItem, rule CollectionRule) *Service {
	return &Service{store: store, ledger: ledgerSvc, badges: badges, catalog: catalog, rule: rule}
}

// Seed записывает каталог в хранилище (upsert по id).
func (s *Service) Seed(ctx context.Context) error {
	for i := range s.catalog {
		if err := s.store.PutItem(ctx, &s.catalog[i]); err != nil {
			return fmt.Errorf("ошибка заполнения каталога: %w", err)
		}
	}
	log.WithField("items", len(s.catalog)).Info("Каталог магазина загружен")
	return nil
}

// Catalog возвращает товары по возрастанию цены.
func (s *Service) Catalog(ctx context.Context) ([]*storage.ShopItem, error) {
	items, err := s.store.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	return items, nil
}

// Buy покупает товар itemID.
// Нет товара — ErrItemNotFound, не хватает фишек — ErrInsufficientFunds.
func (s *Service) Buy(ctx context.Context, accountID, itemID string) (*PurchaseResult, error) {
	item, err := s.store.Item(ctx, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}

	res := &PurchaseResult{Item: item}
	err = s.ledger.Within(ctx, []string{accountID}, func(u *ledger.Unit) error {
		acc, err := u.Ensure(accountID, "")
		if err != nil {
			return err
		}
		if err := u.RequireActive(acc); err != nil {
			return err
		}
		if _, err := u.Apply(acc, ledger.Entry{
			Kind:      ledger.KindShop,
			Stake:     item.Price,
			Selection: item.ID,
			Outcome:   "покупка: " + item.Name,
			Delta:     -item.Price,
		}); err != nil {
			return err
		}
		if err := u.Tx().AddInventory(&storage.InventoryEntry{
			ID:         ledger.NewID(),
			AccountID:  accountID,
			ItemID:     item.ID,
			AcquiredAt: u.Now(),
		}); err != nil {
			return err
		}

		count, err := u.Tx().InventoryCount(accountID)
		if err != nil {
			return err
		}
		res.InventoryCount = count

		if s.rule.Threshold > 0 && count >= s.rule.Threshold {
			granted, err := s.badges.Unlock(u, accountID, achievements.Collector)
			if err != nil {
				return err
			}
			if granted {
				res.Unlocked = append(res.Unlocked, achievements.Collector)
				if s.rule.Bonus > 0 {
					if _, err := u.Apply(acc, ledger.Entry{
						Kind:    ledger.KindCollectionBonus,
						Outcome: "бонус за коллекцию",
						Delta:   s.rule.Bonus,
					}); err != nil {
						return err
					}
					res.CollectionBonus = s.rule.Bonus
				}
			}
		}
		res.NewBalance = acc.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": accountID,
		"item":       item.ID,
		"delta":      -item.Price,
		"balance":    res.NewBalance,
	}).Info("Покупка в магазине")
	return res, nil
}

// Inventory возвращает предметы в порядке покупки.
func (s *Service) Inventory(ctx context.Context, accountID string) ([]*storage.InventoryEntry, error) {
	list, err := s.store.Inventory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	return list, nil
}
