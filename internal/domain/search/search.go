package search

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
)

// ProfileDoc is the directory's view of one public profile.
type ProfileDoc struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Headline  string    `json:"headline"`
	PhotoURL  string    `json:"photo_url"`
	Skills    []string  `json:"skills"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProfileDoc(p *profile.Profile, skills []profile.Skill) ProfileDoc {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return ProfileDoc{
		ProfileID: p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Headline:  p.Headline,
		PhotoURL:  p.PhotoURL,
		Skills:    names,
		UpdatedAt: p.UpdatedAt,
	}
}

// Matches reports whether term is a case-insensitive substring of the full
// name, the headline or any skill name. An empty term matches everything.
func Matches(card profile.Card, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(card.Profile.FullName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(card.Profile.Headline), term) {
		return true
	}
	for _, s := range card.Skills {
		if strings.Contains(strings.ToLower(s.Name), term) {
			return true
		}
	}
	return false
}

type Index interface {
	IndexProfile(ctx context.Context, doc ProfileDoc) error
	BulkIndex(ctx context.Context, docs []ProfileDoc) error
	RemoveProfile(ctx context.Context, profileID uuid.UUID) error
	SearchProfiles(ctx context.Context, term string, limit int) ([]ProfileDoc, error)
}
