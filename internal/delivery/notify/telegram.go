// Package notify pushes freshly created price alerts to Telegram when
// a bot token is configured. Delivery is best-effort; the refresh that
// produced the alert never waits on or fails with it.
package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tolarian/deckwatch/internal/domain"
	"go.uber.org/zap"
)

type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) NotifyAlert(ctx context.Context, alert domain.PriceAlert) error {
	arrow := "↑"
	if alert.Direction == domain.AlertDecrease {
		arrow = "↓"
	}
	text := fmt.Sprintf("%s %s (%s): %s -> %s (%s%%)",
		arrow,
		alert.CardID,
		alert.Treatment,
		formatCents(alert.OldPriceCents),
		formatCents(alert.NewPriceCents),
		alert.PercentageChange,
	)

	n.logger.Info("telegram alert send",
		zap.Int64("chat_id", n.chatID),
		zap.String("card_id", alert.CardID),
	)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("failed to send telegram alert", zap.Error(err))
		return err
	}
	return nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
