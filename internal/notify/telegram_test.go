package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dealership/internal/config"
	"dealership/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNotifyServiceBooked(t *testing.T) {
	logger := zerolog.Nop()
	sender := new(mockSender)
	n := NewWithSender(sender, 100, &logger)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 100 &&
			msg.ParseMode == tgbotapi.ModeMarkdown &&
			strings.Contains(msg.Text, "#7") &&
			strings.Contains(msg.Text, `Oil\_change`)
	})).Return(tgbotapi.Message{}, nil).Once()

	req := models.ServiceRequest{RequestID: 7, CustomerID: 1, ServiceID: 1, GarageID: 1, Timestamp: at}
	n.NotifyServiceBooked(context.Background(), req, "Oil_change", "Fixit")
	sender.AssertExpectations(t)
}

func TestNotifyReservationsExpired(t *testing.T) {
	logger := zerolog.Nop()
	sender := new(mockSender)
	n := NewWithSender(sender, 100, &logger)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg := c.(tgbotapi.MessageConfig)
		return strings.Contains(msg.Text, "Истекло резервов: 2") && strings.Contains(msg.Text, "Резерв #2")
	})).Return(tgbotapi.Message{}, errors.New("telegram down")).Once()

	n.NotifyReservationsExpired(context.Background(), []models.Reservation{
		{ReservationID: 1, CarID: 5, CustomerID: 1, ExpiryTime: at},
		{ReservationID: 2, CarID: 6, CustomerID: 2, ExpiryTime: at},
	})
	sender.AssertExpectations(t)

	n.NotifyReservationsExpired(context.Background(), nil)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotifierSkips(t *testing.T) {
	logger := zerolog.Nop()

	disabled, err := NewTelegramNotifier(config.TelegramConfig{}, &logger)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled())
	assert.NotPanics(t, func() {
		disabled.NotifyServiceBooked(context.Background(), models.ServiceRequest{}, "x", "y")
	})

	sender := new(mockSender)
	n := NewWithSender(sender, 100, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.NotifyServiceBooked(ctx, models.ServiceRequest{}, "x", "y")
	sender.AssertNotCalled(t, "Send", mock.Anything)
}
