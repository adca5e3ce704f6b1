// Package bot — router.go переводит команды чата в вызовы движка.
// Router не знает о Telegram: на вход Request, на выход текст ответа.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/engine"
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/leaderboard"
	"serotonyl.ru/casino-bot/internal/features/rewards"
)

// Request — входящая команда без привязки к транспорту.
type Request struct {
	ChatID        int64
	UserID        string
	DisplayName   string
	Private       bool
	Text          string
	ReplyToUserID string // автор сообщения, на которое ответили
}

// gameAliases — команды, сразу означающие игру.
var gameAliases = map[string]string{
	"тайсиу": casino.KindTaiXiu, "тх": casino.KindTaiXiu, "taixiu": casino.KindTaiXiu, "tx": casino.KindTaiXiu,
	"монетка": casino.KindCoinFlip, "coinflip": casino.KindCoinFlip, "cf": casino.KindCoinFlip,
	"кость": casino.KindDice, "кубик": casino.KindDice, "dice": casino.KindDice,
	"рулетка": casino.KindRoulette, "roulette": casino.KindRoulette,
	"карта": casino.KindHighLow, "хайлоу": casino.KindHighLow, "highlow": casino.KindHighLow,
	"баукуа": casino.KindBauCua, "звери": casino.KindBauCua, "baucua": casino.KindBauCua,
}

// Router маршрутизирует команды.
type Router struct {
	engine *engine.Engine
	parser *CommandParser
	loc    *time.Location
}

// NewRouter создаёт маршрутизатор. loc — пояс для дат в ответах.
func NewRouter(eng *engine.Engine, loc *time.Location) *Router {
	return &Router{engine: eng, parser: NewCommandParser(), loc: loc}
}

// Handle обрабатывает сообщение. Пустой ответ — отвечать не нужно.
func (r *Router) Handle(ctx context.Context, req Request) string {
	cmd, args, isCommand := r.parser.ParseCommand(req.Text)
	if !isCommand {
		return ""
	}
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"user_id": req.UserID,
	}).Debug("routing command")

	if kind, ok := gameAliases[cmd]; ok {
		return r.bet(ctx, req, kind, args)
	}

	switch cmd {
	case "start", "help", "помощь":
		return helpText
	case "баланс", "balance", "б":
		return r.balance(ctx, req)
	case "ставка", "bet":
		if len(args) == 0 {
			return "Использование: !ставка <игра> <сумма> <выбор>"
		}
		kind, ok := gameAliases[strings.ToLower(args[0])]
		if !ok {
			return errorReply(fmt.Errorf("%w: %s", common.ErrUnknownGame, args[0]))
		}
		return r.bet(ctx, req, kind, args[1:])
	case "бонус", "daily":
		return r.claim(ctx, req, rewards.KindDaily)
	case "квест", "quest":
		return r.claim(ctx, req, rewards.KindQuest)
	case "награды", "rewards":
		return r.rewardStatus(ctx, req)
	case "магазин", "shop":
		return r.catalog(ctx)
	case "купить", "buy":
		return r.buy(ctx, req, args)
	case "инвентарь", "inv":
		return r.inventory(ctx, req)
	case "перевод", "отсыпать", "transfer":
		return r.transfer(ctx, req, args)
	case "топ", "top":
		return r.top(ctx, args)
	case "статс", "stats":
		return r.stats(ctx, req)
	case "история", "history":
		return r.history(ctx, req, args)
	case "значки", "badges":
		return r.badges(ctx, req)
	case "игры", "games":
		return r.games(ctx)
	case "login":
		return r.login(ctx, req, args)
	case "logout":
		r.engine.AdminLogout(req.UserID)
		return "👋 Сессия закрыта"
	case "админ", "admin":
		return r.admin(ctx, req, args)
	}
	return ""
}

func (r *Router) balance(ctx context.Context, req Request) string {
	acc, err := r.engine.GetAccount(ctx, req.UserID, req.DisplayName)
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("💰 Баланс: %s", common.FormatBalance(acc.Balance))
}

func (r *Router) bet(ctx context.Context, req Request, kind string, args []string) string {
	if len(args) < 2 {
		return fmt.Sprintf("Использование: %s — !%s <сумма> <выбор>", gameTitle(kind), kind)
	}
	stake, all, err := parseAmount(args[0])
	if err != nil {
		return errorReply(fmt.Errorf("%w: %s", common.ErrInvalidStake, err.Error()))
	}
	acc, err := r.engine.GetAccount(ctx, req.UserID, req.DisplayName)
	if err != nil {
		return errorReply(err)
	}
	if all {
		_, maxBet := r.engine.BetLimits()
		stake = min(acc.Balance, maxBet)
	}

	res, err := r.engine.PlaceBet(ctx, req.UserID, kind, stake, strings.Join(args[1:], " "))
	if err != nil {
		return errorReply(err)
	}
	return formatBet(res)
}

func (r *Router) claim(ctx context.Context, req Request, kind string) string {
	if _, err := r.engine.GetAccount(ctx, req.UserID, req.DisplayName); err != nil {
		return errorReply(err)
	}
	res, err := r.engine.ClaimReward(ctx, req.UserID, kind)
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("🎁 %s: %s\n💰 Баланс: %s\n⏳ Следующая: %s",
		rewardTitle(kind), common.FormatDelta(res.Amount), common.FormatBalance(res.NewBalance),
		common.FormatDateTime(res.NextAt, r.loc))
}

func (r *Router) rewardStatus(ctx context.Context, req Request) string {
	var sb strings.Builder
	sb.WriteString("⏳ Награды:\n")
	for _, kind := range []string{rewards.KindDaily, rewards.KindQuest} {
		left, err := r.engine.RewardStatus(ctx, req.UserID, kind)
		if errors.Is(err, common.ErrUnknownReward) {
			continue // награда не настроена
		}
		if err != nil {
			return errorReply(err)
		}
		if left == 0 {
			fmt.Fprintf(&sb, "%s: доступна ✅\n", rewardTitle(kind))
		} else {
			fmt.Fprintf(&sb, "%s: через %s\n", rewardTitle(kind), common.FormatDuration(left))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) catalog(ctx context.Context) string {
	items, err := r.engine.Catalog(ctx)
	if err != nil {
		return errorReply(err)
	}
	return formatCatalog(items)
}

func (r *Router) buy(ctx context.Context, req Request, args []string) string {
	if len(args) != 1 {
		return "Использование: !купить <id товара>. Список — !магазин"
	}
	if _, err := r.engine.GetAccount(ctx, req.UserID, req.DisplayName); err != nil {
		return errorReply(err)
	}
	res, err := r.engine.BuyItem(ctx, req.UserID, strings.ToLower(args[0]))
	if err != nil {
		return errorReply(err)
	}
	return formatPurchase(res)
}

func (r *Router) inventory(ctx context.Context, req Request) string {
	entries, err := r.engine.ListInventory(ctx, req.UserID)
	if err != nil {
		return errorReply(err)
	}
	items, err := r.engine.Catalog(ctx)
	if err != nil {
		return errorReply(err)
	}
	return formatInventory(entries, items)
}

// transfer: "!перевод <id> <сумма>" или ответом "!перевод <сумма>".
func (r *Router) transfer(ctx context.Context, req Request, args []string) string {
	var toID, rawAmount string
	switch {
	case len(args) == 1 && req.ReplyToUserID != "":
		toID, rawAmount = req.ReplyToUserID, args[0]
	case len(args) == 2:
		toID, rawAmount = strings.TrimPrefix(args[0], "@"), args[1]
	default:
		return "Использование: !перевод <id> <сумма> или ответом на сообщение: !перевод <сумма>"
	}
	amount, err := parsePositiveAmount(rawAmount)
	if err != nil {
		return errorReply(common.ErrInvalidAmount)
	}
	if _, err := r.engine.GetAccount(ctx, req.UserID, req.DisplayName); err != nil {
		return errorReply(err)
	}

	res, err := r.engine.Transfer(ctx, req.UserID, toID, amount)
	if err != nil {
		return errorReply(err)
	}
	name := res.To.DisplayName
	if name == "" {
		name = res.To.ID
	}
	return fmt.Sprintf("💸 Переведено %s → %s\n💰 Ваш баланс: %s",
		common.FormatBalance(amount), name, common.FormatBalance(res.From.Balance))
}

// top: "!топ", "!топ победы", "!топ 20", "!топ победы 20".
func (r *Router) top(ctx context.Context, args []string) string {
	order := leaderboard.OrderBalance
	limit := 0
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			limit = n
			continue
		}
		o, err := leaderboard.ParseOrder(strings.ToLower(a))
		if err != nil {
			return errorReply(err)
		}
		order = o
	}

	entries, err := r.engine.Leaderboard(ctx, limit, order)
	if err != nil {
		return errorReply(err)
	}
	if len(entries) == 0 {
		return "🏆 Рейтинг пуст"
	}

	var sb strings.Builder
	if order == leaderboard.OrderWins {
		sb.WriteString("🏆 Топ по победам:\n")
	} else {
		sb.WriteString("🏆 Топ по балансу:\n")
	}
	for _, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.AccountID
		}
		value := common.FormatBalance(e.Value)
		if order == leaderboard.OrderWins {
			value = fmt.Sprintf("%d %s", e.Value, common.PluralizeWins(int(e.Value)))
		}
		fmt.Fprintf(&sb, "%d. %s — %s\n", e.Rank, name, value)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) stats(ctx context.Context, req Request) string {
	st, err := r.engine.Stats(ctx, req.UserID)
	if errors.Is(err, common.ErrAccountNotFound) {
		return "📊 Вы ещё не делали ставок"
	}
	if err != nil {
		return errorReply(err)
	}
	return formatStats(st)
}

// history: "!история", "!история 20", "!история монетка 5".
func (r *Router) history(ctx context.Context, req Request, args []string) string {
	limit := 10
	kind := ""
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			if n > 0 && n <= 50 {
				limit = n
			}
			continue
		}
		k, ok := gameAliases[strings.ToLower(a)]
		if !ok {
			return errorReply(fmt.Errorf("%w: %s", common.ErrUnknownGame, a))
		}
		kind = k
	}
	recs, err := r.engine.History(ctx, req.UserID, kind, limit)
	if err != nil {
		return errorReply(err)
	}
	return formatHistory(recs, r.loc)
}

func (r *Router) badges(ctx context.Context, req Request) string {
	list, err := r.engine.Achievements(ctx, req.UserID)
	if err != nil {
		return errorReply(err)
	}
	if len(list) == 0 {
		return "🏅 Значков пока нет"
	}
	var sb strings.Builder
	sb.WriteString("🏅 Ваши значки:\n")
	for _, a := range list {
		fmt.Fprintf(&sb, "%s — %s\n", achievements.Title(a.Badge), common.FormatDateTime(a.UnlockedAt, r.loc))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) games(ctx context.Context) string {
	switches, err := r.engine.Games(ctx)
	if err != nil {
		return errorReply(err)
	}
	minBet, maxBet := r.engine.BetLimits()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎮 Игры (ставка %s – %s):\n", common.FormatNumber(minBet), common.FormatNumber(maxBet))
	for _, kind := range casino.Kinds {
		state := "✅"
		if !switches[kind] {
			state = "⛔"
		}
		fmt.Fprintf(&sb, "%s %s (!%s)\n", state, gameTitle(kind), kind)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) login(ctx context.Context, req Request, args []string) string {
	if !req.Private {
		return "🔐 Входите только в личных сообщениях"
	}
	if !r.engine.IsAdmin(req.UserID) {
		return errorReply(common.ErrNotAuthorized)
	}
	s, err := r.engine.AdminLogin(ctx, req.UserID, strings.Join(args, " "))
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("✅ Аутентификация успешна. Сессия до %s", common.FormatDateTime(s.ExpiresAt, r.loc))
}
