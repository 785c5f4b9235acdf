package memory

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
)

type ProfileRepoTestSuite struct {
	suite.Suite
	repo  *ProfileRepo
	ctx   context.Context
	owner uuid.UUID
}

func (s *ProfileRepoTestSuite) SetupTest() {
	s.repo = NewProfileRepo()
	s.ctx = context.Background()
	s.owner = uuid.New()
}

func TestProfileRepo(t *testing.T) {
	suite.Run(t, new(ProfileRepoTestSuite))
}

func (s *ProfileRepoTestSuite) create(owner uuid.UUID, username string, public bool) *profile.Profile {
	p, err := s.repo.Create(s.ctx, owner, profile.Fields{
		FullName: "Ada Lovelace",
		Headline: "Engineer",
		Bio:      "First programmer",
		Username: username,
		IsPublic: public,
	})
	s.Require().NoError(err)
	return p
}

func (s *ProfileRepoTestSuite) Test_Create_Then_GetByID() {
	p := s.create(s.owner, "ada", true)

	got, err := s.repo.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("ada", got.Profile.Username)
	s.Equal(s.owner, got.Profile.OwnerID)
	s.Empty(got.Skills)
	s.Empty(got.Proofs)
	s.Equal(got.Profile.CreatedAt, got.Profile.UpdatedAt)
}

func (s *ProfileRepoTestSuite) Test_GetByID_Absent() {
	got, err := s.repo.GetByID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(got)
}

func (s *ProfileRepoTestSuite) Test_Create_Conflicts() {
	s.create(s.owner, "ada", true)

	_, err := s.repo.Create(s.ctx, uuid.New(), profile.Fields{Username: "ada"})
	s.ErrorIs(err, apperror.ErrConflict)

	_, err = s.repo.Create(s.ctx, s.owner, profile.Fields{Username: "other"})
	s.ErrorIs(err, apperror.ErrConflict)
}

func (s *ProfileRepoTestSuite) Test_Username_CaseInsensitive() {
	p := s.create(s.owner, "ada", true)

	_, err := s.repo.Create(s.ctx, uuid.New(), profile.Fields{Username: "ADA"})
	s.ErrorIs(err, apperror.ErrConflict)

	other := s.create(uuid.New(), "grace", true)
	upper := "Ada"
	s.ErrorIs(s.repo.Update(s.ctx, other.ID, profile.Update{Username: &upper}), apperror.ErrConflict)

	got, err := s.repo.GetByUsername(s.ctx, "AdA", nil)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(p.ID, got.Profile.ID)
}

func (s *ProfileRepoTestSuite) Test_GetByUsername_Visibility() {
	private := s.create(s.owner, "hidden", false)
	stranger := uuid.New()

	got, err := s.repo.GetByUsername(s.ctx, "hidden", nil)
	s.NoError(err)
	s.Nil(got)

	got, err = s.repo.GetByUsername(s.ctx, "hidden", &stranger)
	s.NoError(err)
	s.Nil(got)

	got, err = s.repo.GetByUsername(s.ctx, "hidden", &s.owner)
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(private.ID, got.Profile.ID)
}

func (s *ProfileRepoTestSuite) Test_Update_Partial() {
	p := s.create(s.owner, "ada", false)
	headline := "Analyst"
	public := true

	err := s.repo.Update(s.ctx, p.ID, profile.Update{Headline: &headline, IsPublic: &public})
	s.Require().NoError(err)

	got, err := s.repo.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Analyst", got.Profile.Headline)
	s.Equal("Ada Lovelace", got.Profile.FullName)
	s.True(got.Profile.IsPublic)
	s.True(got.Profile.UpdatedAt.After(got.Profile.CreatedAt))
}

func (s *ProfileRepoTestSuite) Test_Update_Missing_And_UsernameTaken() {
	name := "x"
	err := s.repo.Update(s.ctx, uuid.New(), profile.Update{FullName: &name})
	s.ErrorIs(err, apperror.ErrNotFound)

	s.create(uuid.New(), "taken", true)
	p := s.create(s.owner, "ada", true)
	taken := "taken"
	err = s.repo.Update(s.ctx, p.ID, profile.Update{Username: &taken})
	s.ErrorIs(err, apperror.ErrConflict)
}

func (s *ProfileRepoTestSuite) Test_Skills_OrderAndRemove() {
	p := s.create(s.owner, "ada", true)

	goID, err := s.repo.AddSkill(s.ctx, p.ID, "Go")
	s.Require().NoError(err)
	_, err = s.repo.AddSkill(s.ctx, p.ID, "SQL")
	s.Require().NoError(err)

	skills, err := s.repo.ListSkills(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(skills, 2)
	s.Equal("Go", skills[0].Name)
	s.Equal("SQL", skills[1].Name)

	s.Require().NoError(s.repo.RemoveSkill(s.ctx, p.ID, goID))
	s.ErrorIs(s.repo.RemoveSkill(s.ctx, p.ID, goID), apperror.ErrNotFound)

	skills, err = s.repo.ListSkills(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(skills, 1)
}

func (s *ProfileRepoTestSuite) Test_AddSkill_UnknownProfile() {
	_, err := s.repo.AddSkill(s.ctx, uuid.New(), "Go")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ProfileRepoTestSuite) Test_RemoveSkill_OtherProfile() {
	a := s.create(s.owner, "ada", true)
	b := s.create(uuid.New(), "bob", true)
	skillID, err := s.repo.AddSkill(s.ctx, a.ID, "Go")
	s.Require().NoError(err)

	s.ErrorIs(s.repo.RemoveSkill(s.ctx, b.ID, skillID), apperror.ErrNotFound)
}

func (s *ProfileRepoTestSuite) Test_Proofs_UpdateTwice() {
	p := s.create(s.owner, "ada", true)
	proofID, err := s.repo.AddProof(s.ctx, p.ID, profile.ProofFields{})
	s.Require().NoError(err)

	title := "Analytical Engine notes"
	s.Require().NoError(s.repo.UpdateProof(s.ctx, p.ID, proofID, profile.ProofUpdate{Title: &title}))
	url := "https://example.com/notes"
	s.Require().NoError(s.repo.UpdateProof(s.ctx, p.ID, proofID, profile.ProofUpdate{URL: &url}))

	proofs, err := s.repo.ListProofs(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(proofs, 1)
	s.Equal(title, proofs[0].Title)
	s.Equal(url, proofs[0].URL)

	s.Require().NoError(s.repo.RemoveProof(s.ctx, p.ID, proofID))
	s.ErrorIs(s.repo.UpdateProof(s.ctx, p.ID, proofID, profile.ProofUpdate{Title: &title}), apperror.ErrNotFound)
}

func (s *ProfileRepoTestSuite) Test_ListPublic_Pagination() {
	s.create(uuid.New(), "first", true)
	s.create(uuid.New(), "hidden", false)
	second := s.create(uuid.New(), "second", true)
	_, err := s.repo.AddSkill(s.ctx, second.ID, "Rust")
	s.Require().NoError(err)

	cards, err := s.repo.ListPublic(s.ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Equal("second", cards[0].Profile.Username)
	s.Require().Len(cards[0].Skills, 1)
	s.Equal("Rust", cards[0].Skills[0].Name)
	s.Equal("first", cards[1].Profile.Username)

	cards, err = s.repo.ListPublic(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal("first", cards[0].Profile.Username)

	cards, err = s.repo.ListPublic(s.ctx, 10, 5)
	s.NoError(err)
	s.Empty(cards)
}

func (s *ProfileRepoTestSuite) Test_ListPublic_OutOfRangeOffset() {
	s.create(uuid.New(), "first", true)

	cards, err := s.repo.ListPublic(s.ctx, 20, -20)
	s.NoError(err)
	s.Empty(cards)

	cards, err = s.repo.ListPublic(s.ctx, math.MaxInt, 0)
	s.NoError(err)
	s.Len(cards, 1)
}
