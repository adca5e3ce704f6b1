// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Драйверы хранилища
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	// Пустой токен — движок работает без транспорта (удобно для тестов и миграций).
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Групповые чаты, где бот отвечает. Пусто — любой чат. Личка разрешена всегда.
	BotAllowedChatIDs []int64 `envconfig:"BOT_ALLOWED_CHAT_IDS"`

	// --- Storage ---
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"casino.db"`

	// --- Database ---
	// Дефолт "postgres" — имя сервиса в docker-compose, для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"casino_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Admin ---
	AdminIDs []string `envconfig:"ADMIN_IDS"`
	// Argon2id-хеш пароля. Если задан — админ должен войти через /login.
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`

	// --- Economy ---
	EconomyStartingBalance int64 `envconfig:"ECONOMY_STARTING_BALANCE" default:"1000"`

	// --- Games ---
	GameMinBet int64 `envconfig:"GAME_MIN_BET" default:"10"`
	GameMaxBet int64 `envconfig:"GAME_MAX_BET" default:"100000"`
	// YAML с параметрами игр и каталогом магазина (необязательный)
	GameRulesPath string `envconfig:"GAME_RULES_PATH" default:"config/rules.yaml"`

	// --- Rewards ---
	// Окно задаётся либо длительностью, либо cron-расписанием (граница календарного дня).
	RewardDailyWindow   time.Duration `envconfig:"REWARD_DAILY_WINDOW" default:"24h"`
	RewardDailySchedule string        `envconfig:"REWARD_DAILY_SCHEDULE"`
	RewardDailyMin      int64         `envconfig:"REWARD_DAILY_MIN" default:"10"`
	RewardDailyMax      int64         `envconfig:"REWARD_DAILY_MAX" default:"50"`
	RewardQuestWindow   time.Duration `envconfig:"REWARD_QUEST_WINDOW"`
	RewardQuestSchedule string        `envconfig:"REWARD_QUEST_SCHEDULE" default:"0 0 * * *"`
	RewardQuestMin      int64         `envconfig:"REWARD_QUEST_MIN" default:"100"`
	RewardQuestMax      int64         `envconfig:"REWARD_QUEST_MAX" default:"100"`

	// --- Streak ---
	StreakBonusEvery  int   `envconfig:"STREAK_BONUS_EVERY" default:"3"`
	StreakBonusAmount int64 `envconfig:"STREAK_BONUS_AMOUNT" default:"50"`
	StreakMasterWins  int   `envconfig:"STREAK_MASTER_WINS" default:"5"`

	// --- Shop ---
	ShopCollectionThreshold int   `envconfig:"SHOP_COLLECTION_THRESHOLD" default:"3"`
	ShopCollectionBonus     int64 `envconfig:"SHOP_COLLECTION_BONUS" default:"100"`

	// --- Leaderboard ---
	// Максимум строк в рейтинге, 0 — без ограничения
	LeaderboardMaxLimit int `envconfig:"LEADERBOARD_MAX_LIMIT" default:"50"`

	// --- Jobs ---
	// Ночная сводка админам (cron в APP_TIMEZONE)
	JobsSummarySchedule string `envconfig:"JOBS_SUMMARY_SCHEDULE" default:"0 9 * * *"`
	// Чистка истёкших админ-сессий
	JobsPurgeSchedule string `envconfig:"JOBS_PURGE_SCHEDULE" default:"@every 15m"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Default возвращает конфигурацию со значениями по умолчанию без чтения окружения.
// Используется в тестах и в режиме STORAGE_DRIVER=memory.
func Default() *Config {
	return &Config{
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		StorageDriver:           StorageMemory,
		AppEnv:                  "test",
		AppLogLevel:             "debug",
		AppTimezone:             "Europe/Moscow",
		AdminSessionTTL:         24 * time.Hour,
		EconomyStartingBalance:  1000,
		GameMinBet:              10,
		GameMaxBet:              100000,
		RewardDailyWindow:       24 * time.Hour,
		RewardDailyMin:          10,
		RewardDailyMax:          50,
		RewardQuestSchedule:     "0 0 * * *",
		RewardQuestMin:          100,
		RewardQuestMax:          100,
		StreakBonusEvery:        3,
		StreakBonusAmount:       50,
		StreakMasterWins:        5,
		ShopCollectionThreshold: 3,
		ShopCollectionBonus:     100,
		LeaderboardMaxLimit:     50,
		JobsSummarySchedule:     "0 9 * * *",
		JobsPurgeSchedule:       "@every 15m",
		RateLimitRequests:       10,
		RateLimitWindow:         time.Minute,
	}
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORAGE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.EconomyStartingBalance < 0 {
		return fmt.Errorf("ECONOMY_STARTING_BALANCE не может быть отрицательным")
	}
	if c.GameMinBet <= 0 || c.GameMaxBet < c.GameMinBet {
		return fmt.Errorf("некорректные GAME_MIN_BET/GAME_MAX_BET")
	}
	if c.RewardDailyWindow <= 0 && c.RewardDailySchedule == "" {
		return fmt.Errorf("нужно задать REWARD_DAILY_WINDOW или REWARD_DAILY_SCHEDULE")
	}
	if c.RewardQuestWindow <= 0 && c.RewardQuestSchedule == "" {
		return fmt.Errorf("нужно задать REWARD_QUEST_WINDOW или REWARD_QUEST_SCHEDULE")
	}
	if c.RewardDailyMin < 0 || c.RewardDailyMax < c.RewardDailyMin {
		return fmt.Errorf("некорректные REWARD_DAILY_MIN/REWARD_DAILY_MAX")
	}
	if c.RewardQuestMin < 0 || c.RewardQuestMax < c.RewardQuestMin {
		return fmt.Errorf("некорректные REWARD_QUEST_MIN/REWARD_QUEST_MAX")
	}
	if c.StreakBonusEvery <= 0 || c.StreakBonusAmount < 0 {
		return fmt.Errorf("некорректные STREAK_BONUS_EVERY/STREAK_BONUS_AMOUNT")
	}
	if c.ShopCollectionThreshold <= 0 || c.ShopCollectionBonus < 0 {
		return fmt.Errorf("некорректные SHOP_COLLECTION_THRESHOLD/SHOP_COLLECTION_BONUS")
	}
	if c.LeaderboardMaxLimit < 0 {
		return fmt.Errorf("LEADERBOARD_MAX_LIMIT не может быть отрицательным")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
