package service

import (
	"context"
	"time"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
)

// ProfileCache holds anonymous lookups of public profiles by username.
// A miss is (nil, nil).
type ProfileCache interface {
	Get(ctx context.Context, username string) (*profile.Details, error)
	Set(ctx context.Context, username string, d *profile.Details) error
	Invalidate(ctx context.Context, usernames ...string) error
}

type NopProfileCache struct{}

func (NopProfileCache) Get(context.Context, string) (*profile.Details, error) { return nil, nil }
func (NopProfileCache) Set(context.Context, string, *profile.Details) error   { return nil }
func (NopProfileCache) Invalidate(context.Context, ...string) error           { return nil }

// TokenStore remembers revoked access tokens until they expire anyway.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
