package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type Profile struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	FullName    string      `json:"full_name"`
	Headline    string      `json:"headline"`
	Bio         string      `json:"bio"`
	Username    string      `json:"username"`
	IsPublic    bool        `json:"is_public"`
	PhotoURL    string      `json:"photo_url"`
	SocialLinks SocialLinks `json:"social_links"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Skill struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProofOfWork may have an empty title and URL while it is a placeholder.
type ProofOfWork struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Details is a profile with its eagerly loaded children.
type Details struct {
	Profile *Profile      `json:"profile"`
	Skills  []Skill       `json:"skills"`
	Proofs  []ProofOfWork `json:"proofs"`
}

// Card is the directory view: proofs are not loaded.
type Card struct {
	Profile *Profile `json:"profile"`
	Skills  []Skill  `json:"skills"`
}

// Fields is the data supplied when a profile is created.
type Fields struct {
	FullName    string
	Headline    string
	Bio         string
	Username    string
	IsPublic    bool
	PhotoURL    string
	SocialLinks SocialLinks
}

// Update is a partial update: nil fields are left untouched.
type Update struct {
	FullName    *string
	Headline    *string
	Bio         *string
	Username    *string
	IsPublic    *bool
	PhotoURL    *string
	SocialLinks *SocialLinks
}

func (u Update) IsEmpty() bool {
	return u.FullName == nil && u.Headline == nil && u.Bio == nil && u.Username == nil &&
		u.IsPublic == nil && u.PhotoURL == nil && u.SocialLinks == nil
}

// Apply merges u into p. Timestamps are the store's business.
func (u Update) Apply(p *Profile) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Headline != nil {
		p.Headline = *u.Headline
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.IsPublic != nil {
		p.IsPublic = *u.IsPublic
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
	if u.SocialLinks != nil {
		p.SocialLinks = *u.SocialLinks
	}
}

type ProofFields struct {
	Title string
	URL   string
}

type ProofUpdate struct {
	Title *string
	URL   *string
}

func (u ProofUpdate) Apply(p *ProofOfWork) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.URL != nil {
		p.URL = *u.URL
	}
}

var (
	ErrFullNameRequired = errors.New("full name is required")
	ErrHeadlineRequired = errors.New("headline is required")
	ErrBioRequired      = errors.New("bio is required")
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidUsername  = errors.New("username only includes lowercase letter, digit and -")
	ErrSkillNameEmpty   = errors.New("skill name is required")
)

func (f *Fields) Validate() error {
	if strings.TrimSpace(f.FullName) == "" {
		return ErrFullNameRequired
	}
	if strings.TrimSpace(f.Headline) == "" {
		return ErrHeadlineRequired
	}
	if strings.TrimSpace(f.Bio) == "" {
		return ErrBioRequired
	}
	return ValidateUsername(f.Username)
}

// Validate checks only the supplied fields; a supplied required field may
// not be blank.
func (u *Update) Validate() error {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return ErrFullNameRequired
	}
	if u.Headline != nil && strings.TrimSpace(*u.Headline) == "" {
		return ErrHeadlineRequired
	}
	if u.Bio != nil && strings.TrimSpace(*u.Bio) == "" {
		return ErrBioRequired
	}
	if u.Username != nil {
		return ValidateUsername(*u.Username)
	}
	return nil
}

func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !slug.IsSlug(username) {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeUsername turns free text ("Ada Lovelace") into a public lookup
// key ("ada-lovelace").
func NormalizeUsername(raw string) string {
	return slug.Make(strings.TrimSpace(raw))
}

// DefaultUsername derives a username from the local part of an email.
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if u := NormalizeUsername(local); u != "" {
		return u
	}
	return "user"
}

type Repository interface {
	Create(ctx context.Context, ownerID uuid.UUID, data Fields) (*Profile, error)
	GetByID(ctx context.Context, profileID uuid.UUID) (*Details, error)
	GetByUserID(ctx context.Context, ownerID uuid.UUID) (*Details, error)
	GetByUsername(ctx context.Context, username string, viewerID *uuid.UUID) (*Details, error)
	Update(ctx context.Context, profileID uuid.UUID, data Update) error

	AddSkill(ctx context.Context, profileID uuid.UUID, name string) (uuid.UUID, error)
	RemoveSkill(ctx context.Context, profileID, skillID uuid.UUID) error
	ListSkills(ctx context.Context, profileID uuid.UUID) ([]Skill, error)

	AddProof(ctx context.Context, profileID uuid.UUID, data ProofFields) (uuid.UUID, error)
	RemoveProof(ctx context.Context, profileID, proofID uuid.UUID) error
	UpdateProof(ctx context.Context, profileID, proofID uuid.UUID, data ProofUpdate) error
	ListProofs(ctx context.Context, profileID uuid.UUID) ([]ProofOfWork, error)

	ListPublic(ctx context.Context, limit, offset int) ([]Card, error)
}

// EmbeddedProfile is a profile still carrying skills and proofs inside its
// own row, the first schema generation.
type EmbeddedProfile struct {
	ProfileID uuid.UUID
	Skills    []string
	Proofs    []ProofFields
}

type LegacyRepository interface {
	ListEmbedded(ctx context.Context, limit int) ([]EmbeddedProfile, error)
	MoveEmbedded(ctx context.Context, p EmbeddedProfile) error
}
