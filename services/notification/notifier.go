package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"driftwell/models"
	"driftwell/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeConfirmationSend is the asynq task type for confirmation pushes.
const TypeConfirmationSend = "confirmation:send"

// AsynqNotifier queues confirmation sends onto Redis; the background
// worker in cron/ delivers them.
type AsynqNotifier struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewAsynqNotifier(client *asynq.Client, logger *zap.Logger) *AsynqNotifier {
	return &AsynqNotifier{Client: client, Logger: logger}
}

func (n *AsynqNotifier) EnqueueConfirmation(ctx context.Context, booking models.Booking, serviceName string) error {
	p := models.ConfirmationPayload{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		DeviceToken: booking.DeviceToken,
		ServiceName: serviceName,
		Date:        booking.Date,
		Start:       booking.Start,
		TotalCents:  booking.Quote.TotalCents,
	}
	if booking.Guest != nil {
		p.GuestEmail = booking.Guest.Email
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation payload: %w", err)
	}

	task := asynq.NewTask(TypeConfirmationSend, payload)
	if _, err := n.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue confirmation for booking %s: %w", booking.ID, err)
	}
	n.Logger.Debug("confirmation enqueued", zap.String("booking", booking.ID))
	return nil
}

// SendConfirmationPush delivers one confirmation over FCM. Called by the
// worker; a missing device token is not an error (guests without the app
// simply get no push).
func SendConfirmationPush(ctx context.Context, p models.ConfirmationPayload, logger *zap.Logger) error {
	if p.DeviceToken == "" {
		logger.Debug("no device token for confirmation, skipping push",
			zap.String("booking", p.BookingID))
		return nil
	}

	msg := &messaging.Message{
		Token: p.DeviceToken,
		Notification: &messaging.Notification{
			Title: "Booking confirmed",
			Body: fmt.Sprintf("Your %s visit on %s is confirmed. Total: $%.2f",
				p.ServiceName, p.Date, float64(p.TotalCents)/100),
		},
		Data: map[string]string{
			"bookingId": p.BookingID,
			"date":      p.Date,
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM confirmation for booking %s: %w", p.BookingID, err)
	}
	logger.Info("confirmation push sent", zap.String("booking", p.BookingID))
	return nil
}
