// Package engine — фасад движка: кошелёк, игры, награды, магазин,
// рейтинг и админка за одним синхронным API. Транспорт (бот) и фоновые
// задачи работают только через него.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/admin"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/leaderboard"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/features/rewards"
	"serotonyl.ru/casino-bot/internal/features/shop"
	"serotonyl.ru/casino-bot/internal/features/streak"
	"serotonyl.ru/casino-bot/internal/storage"
)

// Options — всё, из чего собирается движок.
type Options struct {
	Store storage.Store
	Clock quartz.Clock
	// RNG == nil — криптостойкий источник.
	RNG casino.RandomSource

	StartingBalance int64
	MinBet, MaxBet  int64
	Rules           casino.Rules
	Catalog         []storage.ShopItem
	Rewards         []rewards.Reward
	Streak          streak.Rule
	Collection      shop.CollectionRule

	// Максимум строк рейтинга, 0 — без ограничения
	LeaderboardMaxLimit int

	AdminIDs          []string
	AdminPasswordHash string
	AdminSessionTTL   time.Duration
}

// OptionsFromConfig собирает Options из конфигурации и файла правил.
func OptionsFromConfig(cfg *config.Config, store storage.Store, clock quartz.Clock) (Options, error) {
	rules, err := casino.LoadRules(cfg.GameRulesPath)
	if err != nil {
		return Options{}, err
	}
	catalog, err := shop.LoadCatalog(cfg.GameRulesPath)
	if err != nil {
		return Options{}, err
	}
	list, err := rewards.RewardsFromConfig(cfg, common.LoadLocation(cfg.AppTimezone))
	if err != nil {
		return Options{}, fmt.Errorf("ошибка настройки наград: %w", err)
	}
	return Options{
		Store:           store,
		Clock:           clock,
		StartingBalance: cfg.EconomyStartingBalance,
		MinBet:          cfg.GameMinBet,
		MaxBet:          cfg.GameMaxBet,
		Rules:           rules,
		Catalog:         catalog,
		Rewards:         list,
		Streak: streak.Rule{
			Every:      cfg.StreakBonusEvery,
			Amount:     cfg.StreakBonusAmount,
			MasterWins: cfg.StreakMasterWins,
		},
		Collection: shop.CollectionRule{
			Threshold: cfg.ShopCollectionThreshold,
			Bonus:     cfg.ShopCollectionBonus,
		},
		LeaderboardMaxLimit: cfg.LeaderboardMaxLimit,

		AdminIDs:          cfg.AdminIDs,
		AdminPasswordHash: cfg.AdminPasswordHash,
		AdminSessionTTL:   cfg.AdminSessionTTL,
	}, nil
}

// Engine — синхронный API движка.
type Engine struct {
	clock        quartz.Clock
	ledger       *ledger.Service
	achievements *achievements.Service
	casino       *casino.Service
	rewards      *rewards.Service
	shop         *shop.Service
	leaderboard  *leaderboard.Service
	admin        *admin.Service
}

// New собирает движок и записывает каталог магазина в хранилище.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("не задано хранилище")
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.RNG == nil {
		opts.RNG = casino.DefaultRNG()
	}
	if opts.MinBet < 1 || opts.MaxBet < opts.MinBet {
		return nil, fmt.Errorf("некорректные пределы ставки: %d–%d", opts.MinBet, opts.MaxBet)
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("некорректные правила игр: %w", err)
	}

	led := ledger.NewService(opts.Store, opts.Clock, opts.StartingBalance)
	badges := achievements.NewService(opts.Store)
	tracker := streak.NewTracker(opts.Streak, badges)
	auth := admin.NewAuthorizer(opts.AdminIDs, opts.AdminPasswordHash, opts.AdminSessionTTL, opts.Clock)

	e := &Engine{
		clock:        opts.Clock,
		ledger:       led,
		achievements: badges,
		casino:       casino.NewService(opts.Store, led, tracker, opts.Rules, opts.RNG, opts.MinBet, opts.MaxBet),
		rewards:      rewards.NewService(led, opts.Clock, opts.RNG, opts.Rewards),
		shop:         shop.NewService(opts.Store, led, badges, opts.Catalog, opts.Collection),
		leaderboard:  leaderboard.NewService(opts.Store, opts.LeaderboardMaxLimit),
		admin:        admin.NewService(auth, led, opts.Store),
	}
	if err := e.shop.Seed(ctx); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"starting_balance": opts.StartingBalance,
		"min_bet":          opts.MinBet,
		"max_bet":          opts.MaxBet,
		"rewards":          len(opts.Rewards),
	}).Info("Движок казино собран")
	return e, nil
}

// --- Кошелёк ---

// GetAccount возвращает аккаунт, создавая его со стартовым балансом.
func (e *Engine) GetAccount(ctx context.Context, id, displayName string) (*storage.Account, error) {
	return e.ledger.GetOrCreate(ctx, id, displayName)
}

// Transfer переводит amount от fromID к toID.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string, amount int64) (*ledger.TransferResult, error) {
	return e.ledger.Transfer(ctx, fromID, toID, amount)
}

// History — журнал аккаунта от новых к старым. kind != "" оставляет
// только записи этого вида (игра, daily, shop...).
func (e *Engine) History(ctx context.Context, id, kind string, limit int) ([]*storage.BetRecord, error) {
	return e.ledger.HistoryOf(ctx, id, kind, limit)
}

// CheckIntegrity сверяет баланс с журналом.
func (e *Engine) CheckIntegrity(ctx context.Context, id string) error {
	return e.ledger.CheckIntegrity(ctx, id)
}

// --- Игры ---

// PlaceBet делает ставку stake на игру kind с выбором selection.
func (e *Engine) PlaceBet(ctx context.Context, accountID, kind string, stake int64, selection string) (*casino.BetResult, error) {
	return e.casino.Dispatch(ctx, kind, accountID, stake, selection)
}

// Stats — статистика ставок игрока.
func (e *Engine) Stats(ctx context.Context, accountID string) (*casino.Stats, error) {
	return e.casino.Stats(ctx, accountID)
}

// BetLimits возвращает границы ставки.
func (e *Engine) BetLimits() (minBet, maxBet int64) {
	return e.casino.Limits()
}

// Games возвращает состояние переключателей всех игр.
func (e *Engine) Games(ctx context.Context) (map[string]bool, error) {
	return e.casino.Switches(ctx)
}

// --- Награды ---

// ClaimReward выдаёт награду kind (daily или quest).
func (e *Engine) ClaimReward(ctx context.Context, accountID, kind string) (*rewards.ClaimResult, error) {
	return e.rewards.Claim(ctx, accountID, kind)
}

// RewardStatus возвращает время до следующей награды.
func (e *Engine) RewardStatus(ctx context.Context, accountID, kind string) (time.Duration, error) {
	return e.rewards.Status(ctx, accountID, kind)
}

// --- Магазин ---

// Catalog возвращает товары магазина.
func (e *Engine) Catalog(ctx context.Context) ([]*storage.ShopItem, error) {
	return e.shop.Catalog(ctx)
}

// BuyItem покупает товар.
func (e *Engine) BuyItem(ctx context.Context, accountID, itemID string) (*shop.PurchaseResult, error) {
	return e.shop.Buy(ctx, accountID, itemID)
}

// ListInventory возвращает инвентарь в порядке покупки.
func (e *Engine) ListInventory(ctx context.Context, accountID string) ([]*storage.InventoryEntry, error) {
	return e.shop.Inventory(ctx, accountID)
}

// Achievements возвращает значки игрока.
func (e *Engine) Achievements(ctx context.Context, accountID string) ([]*storage.Achievement, error) {
	return e.achievements.List(ctx, accountID)
}

// --- Рейтинг ---

// Leaderboard возвращает рейтинг.
func (e *Engine) Leaderboard(ctx context.Context, limit int, orderBy string) ([]leaderboard.Entry, error) {
	return e.leaderboard.List(ctx, limit, orderBy)
}

// --- Админка ---

// IsAdmin проверяет список ADMIN_IDS (без учёта сессии).
func (e *Engine) IsAdmin(callerID string) bool {
	return e.admin.Auth().IsAdmin(callerID)
}

// AdminLogin открывает админ-сессию.
func (e *Engine) AdminLogin(ctx context.Context, callerID, password string) (*admin.Session, error) {
	return e.admin.Auth().Login(ctx, callerID, password)
}

// AdminLogout закрывает админ-сессию.
func (e *Engine) AdminLogout(callerID string) {
	e.admin.Auth().Logout(callerID)
}

// AdminSetBalance выставляет баланс.
func (e *Engine) AdminSetBalance(ctx context.Context, callerID, accountID string, amount int64) (*storage.Account, error) {
	return e.admin.SetBalance(ctx, callerID, accountID, amount)
}

// AdminGift начисляет подарок.
func (e *Engine) AdminGift(ctx context.Context, callerID, accountID string, amount int64) (*storage.Account, error) {
	return e.admin.Gift(ctx, callerID, accountID, amount)
}

// AdminToggle включает или выключает игру.
func (e *Engine) AdminToggle(ctx context.Context, callerID, kind string, enabled bool) error {
	return e.admin.ToggleGame(ctx, callerID, kind, enabled)
}

// AdminReset сбрасывает аккаунт.
func (e *Engine) AdminReset(ctx context.Context, callerID, accountID string) (*storage.Account, error) {
	return e.admin.ResetAccount(ctx, callerID, accountID)
}

// AdminBan блокирует аккаунт на d.
func (e *Engine) AdminBan(ctx context.Context, callerID, accountID string, d time.Duration) (*storage.Account, error) {
	return e.admin.Ban(ctx, callerID, accountID, d)
}

// AdminUnban снимает блокировку.
func (e *Engine) AdminUnban(ctx context.Context, callerID, accountID string) (*storage.Account, error) {
	return e.admin.Unban(ctx, callerID, accountID)
}

// AdminStats — сводка по экономике.
func (e *Engine) AdminStats(ctx context.Context, callerID string) (*admin.Stats, error) {
	return e.admin.Stats(ctx, callerID)
}

// --- Для фоновых задач ---

// Summary — сводка без проверки прав.
func (e *Engine) Summary(ctx context.Context) (*admin.Stats, error) {
	return e.admin.Summary(ctx, e.clock.Now())
}

// PurgeSessions удаляет истёкшие админ-сессии.
func (e *Engine) PurgeSessions() int {
	return e.admin.Auth().PurgeExpired()
}
