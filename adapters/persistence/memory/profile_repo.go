// Package memory holds process-local repositories for local demos and
// tests. They mirror the Postgres semantics, uniqueness included.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
)

type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]profile.Profile
	skills   map[uuid.UUID]profile.Skill
	proofs   map[uuid.UUID]profile.ProofOfWork
	last     time.Time
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{
		profiles: make(map[uuid.UUID]profile.Profile),
		skills:   make(map[uuid.UUID]profile.Skill),
		proofs:   make(map[uuid.UUID]profile.ProofOfWork),
	}
}

// now hands out strictly increasing timestamps so creation order survives
// a coarse clock. Callers hold the write lock.
func (r *ProfileRepo) now() time.Time {
	t := time.Now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

var _ profile.Repository = (*ProfileRepo)(nil)

func (r *ProfileRepo) Create(_ context.Context, ownerID uuid.UUID, data profile.Fields) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.OwnerID == ownerID {
			return nil, apperror.NewConflict("profile", "owner", ownerID.String())
		}
		if strings.EqualFold(p.Username, data.Username) {
			return nil, apperror.NewConflict("profile", "username", data.Username)
		}
	}

	now := r.now()
	p := profile.Profile{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FullName:    data.FullName,
		Headline:    data.Headline,
		Bio:         data.Bio,
		Username:    data.Username,
		IsPublic:    data.IsPublic,
		PhotoURL:    data.PhotoURL,
		SocialLinks: data.SocialLinks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.profiles[p.ID] = p
	out := p
	return &out, nil
}

// details must be called with the lock held.
func (r *ProfileRepo) details(p profile.Profile) *profile.Details {
	out := p
	return &profile.Details{
		Profile: &out,
		Skills:  r.skillsOf(p.ID),
		Proofs:  r.proofsOf(p.ID),
	}
}

func (r *ProfileRepo) skillsOf(profileID uuid.UUID) []profile.Skill {
	skills := make([]profile.Skill, 0)
	for _, s := range r.skills {
		if s.ProfileID == profileID {
			skills = append(skills, s)
		}
	}
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].CreatedAt.Equal(skills[j].CreatedAt) {
			return skills[i].ID.String() < skills[j].ID.String()
		}
		return skills[i].CreatedAt.Before(skills[j].CreatedAt)
	})
	return skills
}

func (r *ProfileRepo) proofsOf(profileID uuid.UUID) []profile.ProofOfWork {
	proofs := make([]profile.ProofOfWork, 0)
	for _, p := range r.proofs {
		if p.ProfileID == profileID {
			proofs = append(proofs, p)
		}
	}
	sort.Slice(proofs, func(i, j int) bool {
		if proofs[i].CreatedAt.Equal(proofs[j].CreatedAt) {
			return proofs[i].ID.String() < proofs[j].ID.String()
		}
		return proofs[i].CreatedAt.Before(proofs[j].CreatedAt)
	})
	return proofs
}

func (r *ProfileRepo) GetByID(_ context.Context, profileID uuid.UUID) (*profile.Details, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[profileID]
	if !ok {
		return nil, nil
	}
	return r.details(p), nil
}

func (r *ProfileRepo) GetByUserID(_ context.Context, ownerID uuid.UUID) (*profile.Details, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.OwnerID == ownerID {
			return r.details(p), nil
		}
	}
	return nil, nil
}

func (r *ProfileRepo) GetByUsername(_ context.Context, username string, viewerID *uuid.UUID) (*profile.Details, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if !strings.EqualFold(p.Username, username) {
			continue
		}
		if p.IsPublic || (viewerID != nil && *viewerID == p.OwnerID) {
			return r.details(p), nil
		}
	}
	return nil, nil
}

func (r *ProfileRepo) Update(_ context.Context, profileID uuid.UUID, data profile.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[profileID]
	if !ok {
		return apperror.NewNotFound("profile", profileID.String())
	}
	if data.Username != nil {
		for id, other := range r.profiles {
			if id != profileID && strings.EqualFold(other.Username, *data.Username) {
				return apperror.NewConflict("profile", "username", *data.Username)
			}
		}
	}
	data.Apply(&p)
	p.UpdatedAt = r.now()
	r.profiles[profileID] = p
	return nil
}

func (r *ProfileRepo) AddSkill(_ context.Context, profileID uuid.UUID, name string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profileID]; !ok {
		return uuid.Nil, apperror.NewNotFound("profile", profileID.String())
	}
	s := profile.Skill{ID: uuid.New(), ProfileID: profileID, Name: name, CreatedAt: r.now()}
	r.skills[s.ID] = s
	return s.ID, nil
}

func (r *ProfileRepo) RemoveSkill(_ context.Context, profileID, skillID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.skills[skillID]
	if !ok || s.ProfileID != profileID {
		return apperror.NewNotFound("skill", skillID.String())
	}
	delete(r.skills, skillID)
	return nil
}

func (r *ProfileRepo) ListSkills(_ context.Context, profileID uuid.UUID) ([]profile.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skillsOf(profileID), nil
}

func (r *ProfileRepo) AddProof(_ context.Context, profileID uuid.UUID, data profile.ProofFields) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profileID]; !ok {
		return uuid.Nil, apperror.NewNotFound("profile", profileID.String())
	}
	p := profile.ProofOfWork{ID: uuid.New(), ProfileID: profileID, Title: data.Title, URL: data.URL, CreatedAt: r.now()}
	r.proofs[p.ID] = p
	return p.ID, nil
}

func (r *ProfileRepo) RemoveProof(_ context.Context, profileID, proofID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proofs[proofID]
	if !ok || p.ProfileID != profileID {
		return apperror.NewNotFound("proof", proofID.String())
	}
	delete(r.proofs, proofID)
	return nil
}

func (r *ProfileRepo) UpdateProof(_ context.Context, profileID, proofID uuid.UUID, data profile.ProofUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proofs[proofID]
	if !ok || p.ProfileID != profileID {
		return apperror.NewNotFound("proof", proofID.String())
	}
	data.Apply(&p)
	r.proofs[proofID] = p
	return nil
}

func (r *ProfileRepo) ListProofs(_ context.Context, profileID uuid.UUID) ([]profile.ProofOfWork, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.proofsOf(profileID), nil
}

func (r *ProfileRepo) ListPublic(_ context.Context, limit, offset int) ([]profile.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	public := make([]profile.Profile, 0)
	for _, p := range r.profiles {
		if p.IsPublic {
			public = append(public, p)
		}
	}
	sort.Slice(public, func(i, j int) bool {
		if public[i].UpdatedAt.Equal(public[j].UpdatedAt) {
			return public[i].ID.String() < public[j].ID.String()
		}
		return public[i].UpdatedAt.After(public[j].UpdatedAt)
	})

	cards := make([]profile.Card, 0)
	if offset < 0 || limit <= 0 || offset >= len(public) {
		return cards, nil
	}
	end := offset + limit
	if end > len(public) || end < offset {
		end = len(public)
	}
	for _, p := range public[offset:end] {
		out := p
		cards = append(cards, profile.Card{Profile: &out, Skills: r.skillsOf(p.ID)})
	}
	return cards, nil
}
