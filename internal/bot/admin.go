package bot

import (
	"context"
	"fmt"
	"strings"

	"serotonyl.ru/casino-bot/internal/common"
)

const adminHelp = `👑 Админ-команды:
!админ баланс <id> <сумма> — выставить баланс
!админ подарок <id> <сумма> — начислить
!админ игра <игра> <вкл|выкл>
!админ сброс <id> — стартовый баланс, без истории и серий
!админ бан <id> <срок: 30m, 2h, 3d>
!админ разбан <id>
!админ статс — сводка по экономике
!login <пароль> / !logout — сессия (в личке)`

// admin разбирает "!админ <действие> ...". Права проверяет движок.
func (r *Router) admin(ctx context.Context, req Request, args []string) string {
	if !r.engine.IsAdmin(req.UserID) {
		return ""
	}
	if len(args) == 0 {
		return adminHelp
	}
	action, rest := strings.ToLower(args[0]), args[1:]

	switch action {
	case "баланс", "set":
		if len(rest) != 2 {
			return "Использование: !админ баланс <id> <сумма>"
		}
		amount, err := parseAdminAmount(rest[1])
		if err != nil {
			return errorReply(err)
		}
		acc, err := r.engine.AdminSetBalance(ctx, req.UserID, rest[0], amount)
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("✅ Баланс %s: %s", acc.ID, common.FormatBalance(acc.Balance))

	case "подарок", "gift":
		if len(rest) != 2 {
			return "Использование: !админ подарок <id> <сумма>"
		}
		amount, err := parsePositiveAmount(rest[1])
		if err != nil {
			return errorReply(common.ErrInvalidAmount)
		}
		acc, err := r.engine.AdminGift(ctx, req.UserID, rest[0], amount)
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🎁 %s получил %s\n💰 Баланс: %s", acc.ID, common.FormatDelta(amount), common.FormatBalance(acc.Balance))

	case "игра", "toggle":
		if len(rest) != 2 {
			return "Использование: !админ игра <игра> <вкл|выкл>"
		}
		kind, ok := gameAliases[strings.ToLower(rest[0])]
		if !ok {
			return errorReply(fmt.Errorf("%w: %s", common.ErrUnknownGame, rest[0]))
		}
		var enabled bool
		switch strings.ToLower(rest[1]) {
		case "вкл", "on":
			enabled = true
		case "выкл", "off":
		default:
			return "Использование: !админ игра <игра> <вкл|выкл>"
		}
		if err := r.engine.AdminToggle(ctx, req.UserID, kind, enabled); err != nil {
			return errorReply(err)
		}
		if enabled {
			return fmt.Sprintf("✅ %s включена", gameTitle(kind))
		}
		return fmt.Sprintf("⛔ %s выключена", gameTitle(kind))

	case "сброс", "reset":
		if len(rest) != 1 {
			return "Использование: !админ сброс <id>"
		}
		acc, err := r.engine.AdminReset(ctx, req.UserID, rest[0])
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("♻️ Аккаунт %s сброшен. Баланс: %s", acc.ID, common.FormatBalance(acc.Balance))

	case "бан", "ban":
		if len(rest) != 2 {
			return "Использование: !админ бан <id> <срок>"
		}
		d, err := parseDuration(rest[1])
		if err != nil {
			return errorReply(fmt.Errorf("%w: %s", common.ErrInvalidAmount, err.Error()))
		}
		acc, err := r.engine.AdminBan(ctx, req.UserID, rest[0], d)
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🚫 %s заблокирован до %s", acc.ID, common.FormatDateTime(*acc.BannedUntil, r.loc))

	case "разбан", "unban":
		if len(rest) != 1 {
			return "Использование: !админ разбан <id>"
		}
		acc, err := r.engine.AdminUnban(ctx, req.UserID, rest[0])
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("✅ %s разблокирован", acc.ID)

	case "статс", "stats":
		st, err := r.engine.AdminStats(ctx, req.UserID)
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("📈 Экономика:\nАккаунтов: %d (в бане: %d)\nФишек в обороте: %s\nСтавок: %d\nПоставлено: %s\nВозвращено: %s",
			st.Accounts, st.Banned, common.FormatBalance(st.TotalBalance), st.Bets,
			common.FormatBalance(st.Wagered), common.FormatBalance(st.Won))
	}
	return adminHelp
}

// parseAdminAmount — как parseAmount, но допускает 0 и не понимает «все».
func parseAdminAmount(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "0" {
		return 0, nil
	}
	n, err := parsePositiveAmount(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, raw)
	}
	return n, nil
}
