// Package identity models who is making a request and broadcasts
// sign-in/sign-out transitions to interested components.
package identity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	// StateUnknown means identity has not been resolved yet. It is not the
	// same as signed out.
	StateUnknown State = iota
	StateSignedOut
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateSignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

type Identity struct {
	State   State
	UserID  uuid.UUID
	Email   string
	TokenID string
	Expires time.Time
}

func Unknown() Identity   { return Identity{State: StateUnknown} }
func SignedOut() Identity { return Identity{State: StateSignedOut} }

func SignedIn(userID uuid.UUID, email, tokenID string, expires time.Time) Identity {
	return Identity{State: StateSignedIn, UserID: userID, Email: email, TokenID: tokenID, Expires: expires}
}

func (i Identity) IsSignedIn() bool {
	return i.State == StateSignedIn && i.UserID != uuid.Nil
}

// Viewer returns the user ID as an optional viewer, nil when not signed in.
func (i Identity) Viewer() *uuid.UUID {
	if !i.IsSignedIn() {
		return nil
	}
	id := i.UserID
	return &id
}

type EventType string

const (
	EventSignedUp  EventType = "signed_up"
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

type Event struct {
	Type       EventType
	UserID     uuid.UUID
	Email      string
	OccurredAt time.Time
}

// Hub is an explicit observer registry. Subscribers are called
// synchronously in subscription order and must not block.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the function that removes it.
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			for i, v := range h.order {
				if v == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (h *Hub) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
