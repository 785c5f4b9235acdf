package event

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/domain/identity"
	"github.com/khoahotran/skilldeck/pkg/logger"
	"github.com/khoahotran/skilldeck/pkg/metrics"
)

type AuthEventPublisher interface {
	PublishAuthEvent(ctx context.Context, payload AuthEventPayload) error
}

const forwardTimeout = 5 * time.Second

// ForwardIdentityEvents subscribes to hub and mirrors every transition onto
// auth.events. Hub subscribers must not block, so each write runs on its
// own goroutine.
func ForwardIdentityEvents(hub *identity.Hub, pub AuthEventPublisher, log logger.Logger) (unsubscribe func()) {
	return hub.Subscribe(func(e identity.Event) {
		payload := AuthEventPayload{
			EventType:  string(e.Type),
			UserID:     e.UserID,
			OccurredAt: e.OccurredAt,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
			defer cancel()
			err := pub.PublishAuthEvent(ctx, payload)
			metrics.PublishedEvents.WithLabelValues(TopicAuthEvents, metrics.Outcome(err)).Inc()
			if err != nil {
				log.Error("Failed to publish auth event", err, zap.String("event_type", payload.EventType), zap.String("user_id", payload.UserID.String()))
			}
		}()
	})
}

// LogIdentityEvents records transitions in the application log.
func LogIdentityEvents(hub *identity.Hub, log logger.Logger) (unsubscribe func()) {
	return hub.Subscribe(func(e identity.Event) {
		log.Info("Identity changed", zap.String("event_type", string(e.Type)), zap.String("user_id", e.UserID.String()))
	})
}
