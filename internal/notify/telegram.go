package notify

import (
	"context"
	"fmt"
	"strings"

	"dealership/internal/config"
	"dealership/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const timeFormat = "02.01.2006 15:04"

// Sender is the part of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts dealership events to the admin chat.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramNotifier returns a disabled notifier when no token or chat is set.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.AdminChatID == 0 {
		logger.Warn().Msg("Telegram bot token or admin chat is empty, notifications disabled")
		return &TelegramNotifier{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	return NewWithSender(bot, cfg.AdminChatID, logger), nil
}

func NewWithSender(bot Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}
}

func (n *TelegramNotifier) Enabled() bool {
	return n.bot != nil
}

func (n *TelegramNotifier) NotifyServiceBooked(ctx context.Context, req models.ServiceRequest, serviceName, garageName string) {
	text := fmt.Sprintf(
		"*Новая заявка на обслуживание #%d*\n\n"+"Клиент: %d\n"+"Услуга: %s\n"+"Сервис: %s\n"+"Создана: %s",
		req.RequestID, req.CustomerID, escape(serviceName), escape(garageName), req.Timestamp.Format(timeFormat),
	)
	n.send(ctx, text)
}

func (n *TelegramNotifier) NotifyReservationsExpired(ctx context.Context, expired []models.Reservation) {
	if len(expired) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Истекло резервов: %d*\n", len(expired))
	for _, r := range expired {
		fmt.Fprintf(&b, "\nРезерв #%d: авто %d, клиент %d, до %s", r.ReservationID, r.CarID, r.CustomerID, r.ExpiryTime.Format(timeFormat))
	}
	n.send(ctx, b.String())
}

func (n *TelegramNotifier) send(ctx context.Context, text string) {
	if n.bot == nil {
		n.logger.Debug().Str("text", text).Msg("Notification skipped (bot disabled)")
		return
	}

	if err := ctx.Err(); err != nil {
		n.logger.Debug().Int64("chat_id", n.chatID).Msg("Notification skipped (context canceled)")
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send telegram notification")
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
