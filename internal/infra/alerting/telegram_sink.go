// internal/infra/alerting/telegram_sink.go
package alerting

import (
	"context"
	"fmt"

	"office_cheer_bot/internal/domain/delivery"

	"gopkg.in/telebot.v3"
)

// TelegramSink pushes terminal-failure alerts to an ops chat so a human can
// step in. Implements the alert.Sink interface using gopkg.in/telebot.v3.
type TelegramSink struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelegramSink(bot *telebot.Bot, chatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID}
}

func (s *TelegramSink) Notify(_ context.Context, key delivery.Key, reason string) error {
	text := fmt.Sprintf("⚠️ Office Cheer: delivery for %s is terminally failed and needs manual attention.\nReason: %s", key, reason)
	_, err := s.bot.Send(telebot.ChatID(s.chatID), text, &telebot.SendOptions{})
	if err != nil {
		return fmt.Errorf("failed to send ops alert: %w", err)
	}
	return nil
}
