// Package telegram pushes ledger notices to a Telegram chat.
package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GabrielVictorica/rutina/tracker"
)

// Config holds the bot credentials and the destination chat.
type Config struct {
	BotToken string
	ChatID   int64
}

// Sink forwards tracker notices to a Telegram chat. Delivery is best
// effort: a failed send is logged, never surfaced to the toggle path.
type Sink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewSink(config *Config) (*Sink, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Sink{bot: bot, chatID: config.ChatID}, nil
}

// Notify implements the notice sink signature used by the tracker.
func (s *Sink) Notify(n tracker.Notice) {
	msg := tgbotapi.NewMessage(s.chatID, format(n))
	if _, err := s.bot.Send(msg); err != nil {
		slog.Warn("telegram: failed to send notice", "error", err)
	}
}

func format(n tracker.Notice) string {
	switch n.Severity {
	case tracker.SeveritySuccess:
		return "✅ " + n.Message
	case tracker.SeverityError:
		return "⚠️ " + n.Message
	default:
		return n.Message
	}
}
