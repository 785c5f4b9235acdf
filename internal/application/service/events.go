package service

import (
	"context"

	"github.com/khoahotran/skilldeck/adapters/event"
)

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, payload event.ProfileEventPayload) error
	PublishAuthEvent(ctx context.Context, payload event.AuthEventPayload) error
}

// NopEventPublisher is used when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishProfileEvent(context.Context, event.ProfileEventPayload) error {
	return nil
}

func (NopEventPublisher) PublishAuthEvent(context.Context, event.AuthEventPayload) error {
	return nil
}
