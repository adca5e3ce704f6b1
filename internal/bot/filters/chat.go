// Package filters решает, в каких чатах бот отвечает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает личку и разрешённые групповые чаты.
// Пустой список разрешённых — бот работает в любом чате.
type ChatFilter struct {
	allowed map[int64]bool
}

// NewChatFilter создаёт фильтр по BOT_ALLOWED_CHAT_IDS.
func NewChatFilter(allowedChatIDs []int64) *ChatFilter {
	m := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		m[id] = true
	}
	return &ChatFilter{allowed: m}
}

// CheckAccess проверяет, обрабатывать ли сообщение.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil || message.From.IsBot {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: нет отправителя или бот")
		return false
	}

	if message.Chat.Type == telego.ChatTypePrivate {
		return true
	}
	if len(f.allowed) == 0 || f.allowed[message.Chat.ID] {
		return true
	}

	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"user_id":   message.From.ID,
	}).Info("deny: чат не в списке разрешённых")
	return false
}
