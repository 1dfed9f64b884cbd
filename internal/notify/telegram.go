// Package notify pushes run summaries to Telegram. The notifier is
// optional: a nil *Notifier is safe everywhere, so callers never check
// whether notifications are configured.
package notify

import (
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Notifier sends plain-text messages to one chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

// NewNotifier builds a notifier for the given bot token and chat. Any
// setup failure is logged and yields nil, which disables notifications
// without failing the run.
func NewNotifier(token string, chatID int64) *Notifier {
	if token == "" || chatID == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return &Notifier{bot: bot, chatID: chatID}
}

// Send delivers one message, throttled to the chat rate limit. Safe on
// a nil notifier.
func (n *Notifier) Send(text string) {
	if n == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := telegramSendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram message", "error", err)
		return
	}
	n.lastSend = time.Now()
}
