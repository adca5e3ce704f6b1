// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище, собирает движок казино,
// Telegram-бота и планировщик задач.
package app

import (
	"context"
	"fmt"

	"github.com/coder/quartz"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/bot"
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/db/postgres"
	"serotonyl.ru/casino-bot/internal/db/sqlite"
	"serotonyl.ru/casino-bot/internal/engine"
	"serotonyl.ru/casino-bot/internal/jobs"
	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/memory"
)

// App содержит все компоненты приложения.
type App struct {
	Engine    *engine.Engine
	Bot       *bot.Bot // nil, если TELEGRAM_BOT_TOKEN не задан
	Scheduler *jobs.Scheduler
	Store     storage.Store
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	clock := quartz.NewReal()

	// === 1. Хранилище ===
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Движок ===
	opts, err := engine.OptionsFromConfig(cfg, store, clock)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	eng, err := engine.New(ctx, opts)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ошибка сборки движка: %w", err)
	}

	a := &App{Engine: eng, Store: store}

	// === 3. Telegram ===
	var send jobs.SendFunc
	if cfg.TelegramBotToken != "" {
		api, err := bot.NewAPI(cfg)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.Bot = bot.New(api, cfg, eng, clock)
		send = a.Bot.SendMessageToUser
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN не задан, бот не запускается")
	}

	// === 4. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(cfg, eng, send)

	return a, nil
}

// Close освобождает хранилище.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		log.WithError(err).Error("Ошибка закрытия хранилища")
	}
}

// openStore подключает хранилище по STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("STORAGE_DRIVER=memory: данные не переживут перезапуск")
		return memory.New(), nil

	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
		}
		return store, nil

	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		log.Info("Хранилище: PostgreSQL")
		return postgres.NewStore(pool), nil
	}
	return nil, fmt.Errorf("неизвестный STORAGE_DRIVER %q", cfg.StorageDriver)
}
