package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type ProfileRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool      *pgxpool.Pool
	pgContainer *postgres.PostgresContainer
	testLogger  logger.Logger
	profileRepo profile.Repository
	legacyRepo  profile.LegacyRepository
	userRepo    user.Repository
}

func (s *ProfileRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool
	s.testLogger = logger.NewNopLogger()

	s.profileRepo = NewPostgresProfileRepo(s.dbPool, s.testLogger)
	s.legacyRepo = NewPostgresLegacyProfileRepo(s.dbPool, s.testLogger)
	s.userRepo = NewPostgresUserRepo(s.dbPool, s.testLogger)
}

func (s *ProfileRepoIntegrationTestSuite) SetupTest() {
	_, err := s.dbPool.Exec(context.Background(), `TRUNCATE profiles, users CASCADE`)
	s.Require().NoError(err)
}

func (s *ProfileRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func TestProfileRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(ProfileRepoIntegrationTestSuite))
}

func (s *ProfileRepoIntegrationTestSuite) createProfile(owner uuid.UUID, username string, public bool) *profile.Profile {
	p, err := s.profileRepo.Create(context.Background(), owner, profile.Fields{
		FullName: "Ada Lovelace",
		Headline: "Engineer",
		Bio:      "Wrote the first program",
		Username: username,
		IsPublic: public,
		SocialLinks: profile.SocialLinks{
			GitHub: "https://github.com/ada",
		},
	})
	s.Require().NoError(err)
	return p
}

func (s *ProfileRepoIntegrationTestSuite) Test_Create_And_GetByUsername() {
	ctx := context.Background()
	owner := uuid.New()

	created := s.createProfile(owner, "ada", true)
	s.NotEqual(uuid.Nil, created.ID)
	s.Equal(created.CreatedAt, created.UpdatedAt)

	_, err := s.profileRepo.AddSkill(ctx, created.ID, "Go")
	s.Require().NoError(err)
	_, err = s.profileRepo.AddSkill(ctx, created.ID, "SQL")
	s.Require().NoError(err)

	got, err := s.profileRepo.GetByUsername(ctx, "ada", nil)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(created.ID, got.Profile.ID)
	s.Equal("https://github.com/ada", got.Profile.SocialLinks.GitHub)
	s.Require().Len(got.Skills, 2)
	s.Equal("Go", got.Skills[0].Name)
	s.Equal("SQL", got.Skills[1].Name)
	s.Empty(got.Proofs)
}

func (s *ProfileRepoIntegrationTestSuite) Test_GetByID_Absent() {
	got, err := s.profileRepo.GetByID(context.Background(), uuid.New())
	s.NoError(err)
	s.Nil(got)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Private_VisibleToOwnerOnly() {
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	s.createProfile(owner, "hidden", false)

	got, err := s.profileRepo.GetByUsername(ctx, "hidden", nil)
	s.NoError(err)
	s.Nil(got)

	got, err = s.profileRepo.GetByUsername(ctx, "hidden", &stranger)
	s.NoError(err)
	s.Nil(got)

	got, err = s.profileRepo.GetByUsername(ctx, "hidden", &owner)
	s.NoError(err)
	s.NotNil(got)

	cards, err := s.profileRepo.ListPublic(ctx, 10, 0)
	s.NoError(err)
	s.Empty(cards)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Uniqueness() {
	owner := uuid.New()
	s.createProfile(owner, "ada", true)

	_, err := s.profileRepo.Create(context.Background(), uuid.New(), profile.Fields{
		FullName: "Other", Headline: "h", Bio: "b", Username: "ada",
	})
	s.ErrorIs(err, apperror.ErrConflict)

	_, err = s.profileRepo.Create(context.Background(), owner, profile.Fields{
		FullName: "Other", Headline: "h", Bio: "b", Username: "ada-two",
	})
	s.ErrorIs(err, apperror.ErrConflict)

	_, err = s.profileRepo.Create(context.Background(), uuid.New(), profile.Fields{
		FullName: "Other", Headline: "h", Bio: "b", Username: "ADA",
	})
	s.ErrorIs(err, apperror.ErrConflict)

	got, err := s.profileRepo.GetByUsername(context.Background(), "Ada", nil)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("ada", got.Profile.Username)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Update_PartialAndMissing() {
	ctx := context.Background()
	owner := uuid.New()
	created := s.createProfile(owner, "ada", false)

	headline := "Analyst"
	public := true
	s.Require().NoError(s.profileRepo.Update(ctx, created.ID, profile.Update{Headline: &headline, IsPublic: &public}))

	got, err := s.profileRepo.GetByUserID(ctx, owner)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Analyst", got.Profile.Headline)
	s.Equal("Ada Lovelace", got.Profile.FullName)
	s.Equal("https://github.com/ada", got.Profile.SocialLinks.GitHub)
	s.True(got.Profile.IsPublic)
	s.True(got.Profile.UpdatedAt.After(got.Profile.CreatedAt))

	err = s.profileRepo.Update(ctx, uuid.New(), profile.Update{Headline: &headline})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Skills_RemoveAndMissingProfile() {
	ctx := context.Background()
	p := s.createProfile(uuid.New(), "ada", true)

	id, err := s.profileRepo.AddSkill(ctx, p.ID, "Go")
	s.Require().NoError(err)
	s.Require().NoError(s.profileRepo.RemoveSkill(ctx, p.ID, id))
	s.ErrorIs(s.profileRepo.RemoveSkill(ctx, p.ID, id), apperror.ErrNotFound)

	_, err = s.profileRepo.AddSkill(ctx, uuid.New(), "Go")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Proofs_TwoUpdatesMerge() {
	ctx := context.Background()
	p := s.createProfile(uuid.New(), "ada", true)

	proofID, err := s.profileRepo.AddProof(ctx, p.ID, profile.ProofFields{})
	s.Require().NoError(err)

	title := "Notes on the Engine"
	url := "https://example.com/notes"
	s.Require().NoError(s.profileRepo.UpdateProof(ctx, p.ID, proofID, profile.ProofUpdate{Title: &title}))
	s.Require().NoError(s.profileRepo.UpdateProof(ctx, p.ID, proofID, profile.ProofUpdate{URL: &url}))

	proofs, err := s.profileRepo.ListProofs(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(proofs, 1)
	s.Equal(title, proofs[0].Title)
	s.Equal(url, proofs[0].URL)

	s.Require().NoError(s.profileRepo.RemoveProof(ctx, p.ID, proofID))
	s.ErrorIs(s.profileRepo.UpdateProof(ctx, p.ID, proofID, profile.ProofUpdate{}), apperror.ErrNotFound)
}

func (s *ProfileRepoIntegrationTestSuite) Test_ListPublic_PaginatesWithSkills() {
	ctx := context.Background()
	first := s.createProfile(uuid.New(), "first", true)
	s.createProfile(uuid.New(), "hidden", false)
	second := s.createProfile(uuid.New(), "second", true)

	_, err := s.profileRepo.AddSkill(ctx, first.ID, "Go")
	s.Require().NoError(err)
	_, err = s.profileRepo.AddSkill(ctx, second.ID, "Rust")
	s.Require().NoError(err)

	cards, err := s.profileRepo.ListPublic(ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Equal("second", cards[0].Profile.Username)
	s.Equal("Rust", cards[0].Skills[0].Name)
	s.Equal("first", cards[1].Profile.Username)
	s.Equal("Go", cards[1].Skills[0].Name)

	cards, err = s.profileRepo.ListPublic(ctx, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal("first", cards[0].Profile.Username)
}

func (s *ProfileRepoIntegrationTestSuite) Test_LegacyMove() {
	ctx := context.Background()
	p := s.createProfile(uuid.New(), "legacy", true)
	_, err := s.dbPool.Exec(ctx, `
		UPDATE profiles
		SET legacy_skills = '["Go","SQL"]', legacy_proofs = '[{"title":"Blog","url":"https://example.com"}]'
		WHERE id = $1
	`, p.ID)
	s.Require().NoError(err)

	pending, err := s.legacyRepo.ListEmbedded(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal([]string{"Go", "SQL"}, pending[0].Skills)

	s.Require().NoError(s.legacyRepo.MoveEmbedded(ctx, pending[0]))

	got, err := s.profileRepo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Len(got.Skills, 2)
	s.Require().Len(got.Proofs, 1)
	s.Equal("Blog", got.Proofs[0].Title)

	pending, err = s.legacyRepo.ListEmbedded(ctx, 10)
	s.NoError(err)
	s.Empty(pending)
}

func (s *ProfileRepoIntegrationTestSuite) Test_LegacyMove_ObjectSkills() {
	ctx := context.Background()
	p := s.createProfile(uuid.New(), "legacy", true)
	_, err := s.dbPool.Exec(ctx, `
		UPDATE profiles SET legacy_skills = '[{"name":"Go"},"SQL"]' WHERE id = $1
	`, p.ID)
	s.Require().NoError(err)

	pending, err := s.legacyRepo.ListEmbedded(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal([]string{"Go", "SQL"}, pending[0].Skills)
	s.Require().NoError(s.legacyRepo.MoveEmbedded(ctx, pending[0]))

	skills, err := s.profileRepo.ListSkills(ctx, p.ID)
	s.Require().NoError(err)
	s.Len(skills, 2)
}

func (s *ProfileRepoIntegrationTestSuite) Test_LegacyMove_UndecodableIsLeftInPlace() {
	ctx := context.Background()
	p := s.createProfile(uuid.New(), "legacy", true)
	_, err := s.dbPool.Exec(ctx, `
		UPDATE profiles SET legacy_skills = '[{"label":"Go"}]', legacy_proofs = '[{"title":"Blog"}]' WHERE id = $1
	`, p.ID)
	s.Require().NoError(err)

	_, err = s.legacyRepo.ListEmbedded(ctx, 10)
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrInternal)

	var skillsKept, proofsKept bool
	err = s.dbPool.QueryRow(ctx, `
		SELECT legacy_skills IS NOT NULL, legacy_proofs IS NOT NULL FROM profiles WHERE id = $1
	`, p.ID).Scan(&skillsKept, &proofsKept)
	s.Require().NoError(err)
	s.True(skillsKept)
	s.True(proofsKept)
}

func (s *ProfileRepoIntegrationTestSuite) Test_User_CreateAndDuplicate() {
	ctx := context.Background()
	u := &user.User{ID: uuid.New(), Email: "Ada@Example.com", PasswordHash: "hash"}
	s.Require().NoError(s.userRepo.Create(ctx, u))

	found, err := s.userRepo.FindByEmail(ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	err = s.userRepo.Create(ctx, &user.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "x"})
	s.ErrorIs(err, apperror.ErrConflict)
}
