package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casino-bot/internal/common"
	"serotonyl.ru/casino-bot/internal/features/achievements"
	"serotonyl.ru/casino-bot/internal/features/casino"
	"serotonyl.ru/casino-bot/internal/features/ledger"
	"serotonyl.ru/casino-bot/internal/features/rewards"
	"serotonyl.ru/casino-bot/internal/features/shop"
	"serotonyl.ru/casino-bot/internal/storage"
)

const helpText = `🎰 Казино-бот. Команды (префикс ! . или /):

💰 !баланс — ваш счёт
🎲 !тайсиу <сумма> <тай|сиу> — три кости, 11-18 или 3-10
🪙 !монетка <сумма> <орел|решка>
🎯 !кость <сумма> <1-6> — угадай грань, x5
🎡 !рулетка <сумма> <red|black|even|odd|0-36>
🃏 !карта <сумма> <больше|меньше>
🦀 !баукуа <сумма> <bau cua tom ca ga nai> — до трёх зверей
   Сумма: число, 2к или «все»

🎁 !бонус — ежедневная награда, !квест — награда дня, !награды — таймеры
🛒 !магазин, !купить <id>, !инвентарь, !значки
💸 !перевод <id> <сумма> (или ответом на сообщение)
🏆 !топ [баланс|победы] [N], !статс, !история [игра] [N], !игры`

// userErrors — ошибки, текст которых можно показать игроку.
var userErrors = []error{
	common.ErrInsufficientFunds,
	common.ErrSelfTransfer,
	common.ErrInvalidAmount,
	common.ErrAccountNotFound,
	common.ErrBanned,
	common.ErrInvalidStake,
	common.ErrInvalidSelection,
	common.ErrFeatureDisabled,
	common.ErrUnknownGame,
	common.ErrUnknownReward,
	common.ErrItemNotFound,
	common.ErrInvalidOrder,
	common.ErrNotAuthorized,
	common.ErrWrongPassword,
	common.ErrTooManyAttempts,
}

// errorReply превращает ошибку движка в ответ.
// Внутренние ошибки логируются и не показываются.
func errorReply(err error) string {
	var cd *common.CooldownError
	if errors.As(err, &cd) {
		return fmt.Sprintf("⏳ %s будет доступна через %s", rewardTitle(cd.Kind), common.FormatDuration(cd.Remaining))
	}
	if errors.Is(err, common.ErrInsufficientFunds) {
		return "❌ Недостаточно фишек"
	}
	for _, known := range userErrors {
		if errors.Is(err, known) {
			return "❌ " + err.Error()
		}
	}
	log.WithError(err).Error("Ошибка обработки команды")
	return "⚠️ Что-то пошло не так, попробуйте позже"
}

func gameTitle(kind string) string {
	if t, ok := casino.Titles[kind]; ok {
		return t
	}
	return kind
}

func rewardTitle(kind string) string {
	switch kind {
	case rewards.KindDaily:
		return "Ежедневная награда"
	case rewards.KindQuest:
		return "Награда дня"
	}
	return kind
}

func formatBet(res *casino.BetResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n", gameTitle(res.Game), res.Outcome)
	if res.Win {
		fmt.Fprintf(&sb, "✅ Выигрыш: %s\n", common.FormatDelta(res.PayoutDelta))
	} else {
		fmt.Fprintf(&sb, "❌ Проигрыш: %s\n", common.FormatDelta(res.PayoutDelta))
	}
	if res.StreakBonus > 0 {
		fmt.Fprintf(&sb, "🔥 %d %s подряд! Бонус %s\n",
			res.WinStreak, common.PluralizeWins(res.WinStreak), common.FormatDelta(res.StreakBonus))
	}
	for _, badge := range res.Unlocked {
		fmt.Fprintf(&sb, "🏅 Новый значок: %s\n", achievements.Title(badge))
	}
	fmt.Fprintf(&sb, "💰 Баланс: %s", common.FormatBalance(res.NewBalance))
	return sb.String()
}

func formatPurchase(res *shop.PurchaseResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 Куплено: %s %s за %s\n", res.Item.Emoji, res.Item.Name, common.FormatBalance(res.Item.Price))
	fmt.Fprintf(&sb, "🎒 Предметов в инвентаре: %d\n", res.InventoryCount)
	if res.CollectionBonus > 0 {
		fmt.Fprintf(&sb, "💼 Бонус за коллекцию: %s\n", common.FormatDelta(res.CollectionBonus))
	}
	for _, badge := range res.Unlocked {
		fmt.Fprintf(&sb, "🏅 Новый значок: %s\n", achievements.Title(badge))
	}
	fmt.Fprintf(&sb, "💰 Баланс: %s", common.FormatBalance(res.NewBalance))
	return sb.String()
}

func formatCatalog(items []*storage.ShopItem) string {
	if len(items) == 0 {
		return "🛒 Магазин пуст"
	}
	var sb strings.Builder
	sb.WriteString("🛒 Магазин:\n\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "%s %s — %s (!купить %s)\n", it.Emoji, it.Name, common.FormatBalance(it.Price), it.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatInventory(entries []*storage.InventoryEntry, items []*storage.ShopItem) string {
	if len(entries) == 0 {
		return "🎒 Инвентарь пуст. Загляните в !магазин"
	}
	byID := make(map[string]*storage.ShopItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		if counts[e.ItemID] == 0 {
			order = append(order, e.ItemID)
		}
		counts[e.ItemID]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎒 Инвентарь (%d):\n", len(entries))
	for _, id := range order {
		label := id
		if it, ok := byID[id]; ok {
			label = it.Emoji + " " + it.Name
		}
		fmt.Fprintf(&sb, "%s × %d\n", label, counts[id])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(recs []*storage.BetRecord, loc *time.Location) string {
	if len(recs) == 0 {
		return "📜 История пуста"
	}
	var sb strings.Builder
	sb.WriteString("📜 Последние операции:\n")
	for _, r := range recs {
		fmt.Fprintf(&sb, "%s %s %s → %s\n",
			common.FormatDateTime(r.CreatedAt, loc), historyTitle(r.GameKind),
			common.FormatDelta(r.PayoutDelta), common.FormatNumber(r.Balance))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func historyTitle(kind string) string {
	if casino.IsGameKind(kind) {
		return gameTitle(kind)
	}
	switch kind {
	case ledger.KindGrant:
		return "🎉 стартовый капитал"
	case ledger.KindDaily:
		return "🎁 бонус"
	case ledger.KindQuest:
		return "📅 награда дня"
	case ledger.KindStreakBonus:
		return "🔥 серия"
	case ledger.KindShop:
		return "🛒 покупка"
	case ledger.KindCollectionBonus:
		return "💼 коллекция"
	case ledger.KindTransferOut:
		return "💸 перевод"
	case ledger.KindTransferIn:
		return "📥 перевод"
	case ledger.KindAdminGift:
		return "👑 подарок"
	case ledger.KindAdminSet:
		return "👑 корректировка"
	}
	return kind
}

func formatStats(st *casino.Stats) string {
	if st.TotalSpins == 0 {
		return "📊 Вы ещё не делали ставок"
	}
	var sb strings.Builder
	sb.WriteString("📊 Ваша статистика:\n")
	fmt.Fprintf(&sb, "Ставок: %d, побед: %d\n", st.TotalSpins, st.Wins)
	fmt.Fprintf(&sb, "Поставлено: %s\n", common.FormatBalance(st.TotalWagered))
	fmt.Fprintf(&sb, "Возвращено: %s\n", common.FormatBalance(st.TotalWon))
	fmt.Fprintf(&sb, "Крупнейший выигрыш: %s\n", common.FormatBalance(st.BiggestWin))
	fmt.Fprintf(&sb, "RTP: %.1f%%", st.CurrentRTP)
	for _, kind := range casino.Kinds {
		if n := st.PerGame[kind]; n > 0 {
			fmt.Fprintf(&sb, "\n%s: %d", gameTitle(kind), n)
		}
	}
	return sb.String()
}
