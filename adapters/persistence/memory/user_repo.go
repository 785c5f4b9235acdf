package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/apperror"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]user.User)}
}

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NewNotFound("user", id.String())
	}
	return &u, nil
}

func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewConflict("user", "email", u.Email)
		}
	}
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

// TokenStore is an in-process revocation list.
type TokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{revoked: make(map[string]time.Time)}
}

func (s *TokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (s *TokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
