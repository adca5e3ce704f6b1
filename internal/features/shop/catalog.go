package shop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"serotonyl.ru/casino-bot/internal/storage"
)

type catalogFile struct {
	Shop []catalogItem `yaml:"shop"`
}

type catalogItem struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
	Price int64  `yaml:"price"`
}

// LoadCatalog читает раздел shop из файла правил.
// Нет файла или раздела — DefaultCatalog.
func LoadCatalog(path string) ([]storage.ShopItem, error) {
	if path == "" {
		return DefaultCatalog, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCatalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога %s: %w", path, err)
	}
	if len(file.Shop) == 0 {
		return DefaultCatalog, nil
	}

	items := make([]storage.ShopItem, 0, len(file.Shop))
	seen := make(map[string]bool, len(file.Shop))
	for _, it := range file.Shop {
		if it.ID == "" || seen[it.ID] {
			return nil, fmt.Errorf("каталог: пустой или повторный id %q", it.ID)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("каталог: отрицательная цена у %s", it.ID)
		}
		seen[it.ID] = true
		name := it.Name
		if name == "" {
			name = it.ID
		}
		items = append(items, storage.ShopItem{ID: it.ID, Name: name, Emoji: it.Emoji, Price: it.Price})
	}
	return items, nil
}
