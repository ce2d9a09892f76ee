package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/kafka"
	"github.com/honeynil/ecommerce-api/internal/models"
)

const (
	publishRetries = 3
	publishTimeout = 5 * time.Second
)

// publishAsync sends the event in the background with a few retries. Event
// delivery never affects the outcome of the operation that produced it.
func publishAsync(publisher kafka.EventPublisher, eventType models.AccountEventType, user *models.User) {
	if publisher == nil || user == nil {
		return
	}
	event := models.AccountEvent{
		EventType: eventType,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	go func() {
		for i := 0; i < publishRetries; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err := publisher.Publish(ctx, event)
			cancel()
			if err == nil {
				return
			}
			time.Sleep(time.Second * time.Duration(i+1))
		}
		slog.Error("failed to send account event after retries",
			"event_type", eventType,
			"user_id", user.ID)
	}()
}
