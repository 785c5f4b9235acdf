package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityStates(t *testing.T) {
	assert.Equal(t, StateUnknown, Identity{}.State)
	assert.False(t, Unknown().IsSignedIn())
	assert.Nil(t, SignedOut().Viewer())

	id := uuid.New()
	in := SignedIn(id, "ada@example.com", "jti", time.Now().Add(time.Hour))
	assert.True(t, in.IsSignedIn())
	if assert.NotNil(t, in.Viewer()) {
		assert.Equal(t, id, *in.Viewer())
	}
	assert.Equal(t, "signed_in", in.State.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := NewHub()
	var got []EventType
	var second int

	unsubFirst := h.Subscribe(func(e Event) { got = append(got, e.Type) })
	unsubSecond := h.Subscribe(func(Event) { second++ })
	assert.Equal(t, 2, h.Len())

	h.Publish(Event{Type: EventSignedIn, UserID: uuid.New()})
	unsubSecond()
	unsubSecond()
	h.Publish(Event{Type: EventSignedOut})
	unsubFirst()
	h.Publish(Event{Type: EventSignedIn})

	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, got)
	assert.Equal(t, 1, second)
	assert.Equal(t, 0, h.Len())
}

func TestHub_PublishStampsTime(t *testing.T) {
	h := NewHub()
	var seen Event
	h.Subscribe(func(e Event) { seen = e })
	h.Publish(Event{Type: EventSignedUp})
	assert.False(t, seen.OccurredAt.IsZero())
}
