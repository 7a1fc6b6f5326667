package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/config"
)

// TelegramNotifier pushes auth events (new registrations) to an admin
// chat. Delivery is best-effort and never blocks the request path
// beyond the send itself.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier creates the notifier, or (nil, nil) when
// notifications are disabled in the configuration.
func NewTelegramNotifier(cfg *config.Config, logger *zap.Logger) (*TelegramNotifier, error) {
	if !cfg.Notifications.Enabled || cfg.Notifications.TelegramBotToken == "" {
		logger.Info("Telegram notifications are disabled")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))

	return &TelegramNotifier{
		api:    botAPI,
		chatID: cfg.Notifications.TelegramChatID,
		logger: logger,
	}, nil
}

// Notify sends a message to the configured admin chat.
func (n *TelegramNotifier) Notify(message string) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, message)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send Telegram notification", zap.Error(err))
	}
}
