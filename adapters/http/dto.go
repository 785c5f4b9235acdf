package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/search"
)

// Profile DTOs
type SocialLinksDTO struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

func (s SocialLinksDTO) toDomain() profile.SocialLinks {
	return profile.SocialLinks{LinkedIn: s.LinkedIn, Twitter: s.Twitter, GitHub: s.GitHub, Website: s.Website}
}

type ProfileDTO struct {
	ID          uuid.UUID      `json:"id"`
	FullName    string         `json:"full_name"`
	Headline    string         `json:"headline"`
	Bio         string         `json:"bio"`
	Username    string         `json:"username"`
	IsPublic    bool           `json:"is_public"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	SocialLinks SocialLinksDTO `json:"social_links"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type SkillDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ProofDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileDetailsDTO struct {
	Profile ProfileDTO `json:"profile"`
	Skills  []SkillDTO `json:"skills"`
	Proofs  []ProofDTO `json:"proofs"`
	// IsOwner lets the page offer editing on the owner's own public URL.
	IsOwner bool `json:"is_owner"`
}

type DirectoryCardDTO struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Headline  string    `json:"headline"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Skills    []string  `json:"skills"`
}

type DirectoryDTO struct {
	Profiles []DirectoryCardDTO `json:"profiles"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

type CreateProfileRequest struct {
	FullName    string          `json:"full_name" binding:"required"`
	Headline    string          `json:"headline" binding:"required"`
	Bio         string          `json:"bio" binding:"required"`
	Username    string          `json:"username"`
	IsPublic    bool            `json:"is_public"`
	PhotoURL    string          `json:"photo_url"`
	SocialLinks *SocialLinksDTO `json:"social_links"`
}

// UpdateProfileRequest is a partial update: absent keys stay untouched.
type UpdateProfileRequest struct {
	FullName    *string         `json:"full_name"`
	Headline    *string         `json:"headline"`
	Bio         *string         `json:"bio"`
	Username    *string         `json:"username"`
	IsPublic    *bool           `json:"is_public"`
	PhotoURL    *string         `json:"photo_url"`
	SocialLinks *SocialLinksDTO `json:"social_links"`
}

func (req *UpdateProfileRequest) toDomain() profile.Update {
	u := profile.Update{
		FullName: req.FullName,
		Headline: req.Headline,
		Bio:      req.Bio,
		Username: req.Username,
		IsPublic: req.IsPublic,
		PhotoURL: req.PhotoURL,
	}
	if req.SocialLinks != nil {
		links := req.SocialLinks.toDomain()
		u.SocialLinks = &links
	}
	return u
}

type AddSkillRequest struct {
	Name string `json:"name" binding:"required"`
}

type ProofRequest struct {
	Title *string `json:"title"`
	URL   *string `json:"url"`
}

type AuthRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

func ToProfileDTO(p *profile.Profile) ProfileDTO {
	return ProfileDTO{
		ID:       p.ID,
		FullName: p.FullName,
		Headline: p.Headline,
		Bio:      p.Bio,
		Username: p.Username,
		IsPublic: p.IsPublic,
		PhotoURL: p.PhotoURL,
		SocialLinks: SocialLinksDTO{
			LinkedIn: p.SocialLinks.LinkedIn,
			Twitter:  p.SocialLinks.Twitter,
			GitHub:   p.SocialLinks.GitHub,
			Website:  p.SocialLinks.Website,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToSkillDTOs(skills []profile.Skill) []SkillDTO {
	dtos := make([]SkillDTO, len(skills))
	for i, s := range skills {
		dtos[i] = SkillDTO{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
	}
	return dtos
}

func ToProofDTOs(proofs []profile.ProofOfWork) []ProofDTO {
	dtos := make([]ProofDTO, len(proofs))
	for i, p := range proofs {
		dtos[i] = ProofDTO{ID: p.ID, Title: p.Title, URL: p.URL, CreatedAt: p.CreatedAt}
	}
	return dtos
}

func ToProfileDetailsDTO(d *profile.Details, viewerID *uuid.UUID) ProfileDetailsDTO {
	return ProfileDetailsDTO{
		Profile: ToProfileDTO(d.Profile),
		Skills:  ToSkillDTOs(d.Skills),
		Proofs:  ToProofDTOs(d.Proofs),
		IsOwner: viewerID != nil && *viewerID == d.Profile.OwnerID,
	}
}

func ToDirectoryDTO(docs []search.ProfileDoc, page, limit int) DirectoryDTO {
	cards := make([]DirectoryCardDTO, len(docs))
	for i, d := range docs {
		skills := d.Skills
		if skills == nil {
			skills = []string{}
		}
		cards[i] = DirectoryCardDTO{
			ProfileID: d.ProfileID,
			Username:  d.Username,
			FullName:  d.FullName,
			Headline:  d.Headline,
			PhotoURL:  d.PhotoURL,
			Skills:    skills,
		}
	}
	return DirectoryDTO{Profiles: cards, Page: page, Limit: limit}
}
