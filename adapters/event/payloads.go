package event

import (
	"time"

	"github.com/google/uuid"
)

type ProfileEventType string

const (
	ProfileEventTypeCreated      ProfileEventType = "profile.created"
	ProfileEventTypeUpdated      ProfileEventType = "profile.updated"
	ProfileEventTypeSkillAdded   ProfileEventType = "skill.added"
	ProfileEventTypeSkillRemoved ProfileEventType = "skill.removed"
	ProfileEventTypeProofAdded   ProfileEventType = "proof.added"
	ProfileEventTypeProofUpdated ProfileEventType = "proof.updated"
	ProfileEventTypeProofRemoved ProfileEventType = "proof.removed"
)

type ProfileEventPayload struct {
	EventType ProfileEventType `json:"event_type"`
	ProfileID uuid.UUID        `json:"profile_id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	// Usernames whose cached lookups are stale after this event.
	Usernames  []string  `json:"usernames,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuthEventPayload struct {
	EventType  string    `json:"event_type"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
