// Package bot — тонкий Telegram-адаптер движка казино.
// bot.go запускает long polling, ограничивает параллелизм обработки
// и отправляет ответы Router.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coder/quartz"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/casino-bot/internal/bot/filters"
	"serotonyl.ru/casino-bot/internal/bot/middleware"
	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/config"
	"serotonyl.ru/casino-bot/internal/engine"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	router      *Router
	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
}

// NewAPI создаёт клиент Telegram Bot API. Логи клиента идут в logrus.
func NewAPI(cfg *config.Config) (*telego.Bot, error) {
	api, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(log.StandardLogger()))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	return api, nil
}

// New создаёт бота поверх движка.
func New(api *telego.Bot, cfg *config.Config, eng *engine.Engine, clock quartz.Clock) *Bot {
	return &Bot{
		api:         api,
		cfg:         cfg,
		router:      NewRouter(eng, common.LoadLocation(cfg.AppTimezone)),
		chatFilter:  filters.NewChatFilter(cfg.BotAllowedChatIDs),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clock),
	}
}

// Start получает апдейты до отмены ctx. Одновременно обрабатывается
// не больше BOT_MAX_INFLIGHT апдейтов. Возвращается после обработки
// всех принятых апдейтов.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("ошибка авторизации бота: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	go b.rateLimiter.Run(ctx)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	var g errgroup.Group
	g.SetLimit(b.cfg.BotMaxInflight)
	for update := range updates {
		g.Go(func() error {
			b.handleUpdate(ctx, update)
			return nil
		})
	}
	err = g.Wait()
	log.Info("Бот остановлен")
	return err
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	req := requestFromMessage(message)
	if !b.rateLimiter.Allow(req.UserID) {
		log.WithField("user_id", req.UserID).Debug("rate limited")
		return
	}

	if reply := b.router.Handle(ctx, req); reply != "" {
		b.sendMessage(ctx, message.Chat.ID, reply)
	}
}

// requestFromMessage переводит сообщение Telegram в Request.
// Id аккаунта — Telegram user id строкой.
func requestFromMessage(message *telego.Message) Request {
	req := Request{
		ChatID:      message.Chat.ID,
		UserID:      strconv.FormatInt(message.From.ID, 10),
		DisplayName: displayName(message.From),
		Private:     message.Chat.Type == telego.ChatTypePrivate,
		Text:        message.Text,
	}
	if reply := message.ReplyToMessage; reply != nil && reply.From != nil && !reply.From.IsBot {
		req.ReplyToUserID = strconv.FormatInt(reply.From.ID, 10)
	}
	return req
}

func displayName(u *telego.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет личное сообщение (для ночного отчёта).
// accountID — Telegram user id строкой.
func (b *Bot) SendMessageToUser(ctx context.Context, accountID, text string) {
	id, err := strconv.ParseInt(accountID, 10, 64)
	if err != nil {
		log.WithField("account_id", accountID).Warn("Не Telegram id, сообщение не отправлено")
		return
	}
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(id), text)); err != nil {
		log.WithError(err).WithField("user_id", id).Debug("Не удалось отправить сообщение")
		return
	}
	log.WithField("user_id", id).Debug("message sent")
}
