package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

var psqlProfile = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var profileColumns = []string{
	"id", "owner_id", "full_name", "headline", "bio", "username",
	"is_public", "photo_url", "social_links", "created_at", "updated_at",
}

func scanProfile(row pgx.Row, l logger.Logger) (*profile.Profile, error) {
	p := &profile.Profile{}
	var socialLinksBytes []byte

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.FullName, &p.Headline, &p.Bio, &p.Username,
		&p.IsPublic, &p.PhotoURL, &socialLinksBytes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(socialLinksBytes) > 0 {
		if err := json.Unmarshal(socialLinksBytes, &p.SocialLinks); err != nil {
			l.Warn("Failed to unmarshal social_links", zap.String("profile_id", p.ID.String()), zap.Error(err))
			p.SocialLinks = profile.SocialLinks{}
		}
	}
	return p, nil
}

// uniqueConflict maps a unique violation on profiles to a Conflict error.
func uniqueConflict(constraint string, ownerID uuid.UUID, username string) error {
	if constraint == "profiles_owner_id_key" {
		return apperror.NewConflict("profile", "owner", ownerID.String())
	}
	return apperror.NewConflict("profile", "username", username)
}

func (r *postgresProfileRepo) Create(ctx context.Context, ownerID uuid.UUID, data profile.Fields) (*profile.Profile, error) {
	socialLinksBytes, err := json.Marshal(data.SocialLinks)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal social_links", err)
	}

	sql, args, err := psqlProfile.Insert("profiles").
		Columns("owner_id", "full_name", "headline", "bio", "username", "is_public", "photo_url", "social_links", "created_at", "updated_at").
		Values(ownerID, data.FullName, data.Headline, data.Bio, data.Username, data.IsPublic, data.PhotoURL, socialLinksBytes, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id, owner_id, full_name, headline, bio, username, is_public, photo_url, social_links, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build create profile query", err)
	}

	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...), r.logger)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgUniqueViolation {
			return nil, uniqueConflict(constraint, ownerID, data.Username)
		}
		return nil, storeError("failed to create profile", err)
	}
	return p, nil
}

func (r *postgresProfileRepo) findOne(ctx context.Context, builder sq.SelectBuilder) (*profile.Profile, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile query", err)
	}
	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...), r.logger)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeError("failed to query profile", err)
	}
	return p, nil
}

// withChildren loads skills and proofs concurrently.
func (r *postgresProfileRepo) withChildren(ctx context.Context, p *profile.Profile) (*profile.Details, error) {
	if p == nil {
		return nil, nil
	}
	d := &profile.Details{Profile: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		skills, err := r.ListSkills(gctx, p.ID)
		d.Skills = skills
		return err
	})
	g.Go(func() error {
		proofs, err := r.ListProofs(gctx, p.ID)
		d.Proofs = proofs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *postgresProfileRepo) GetByID(ctx context.Context, profileID uuid.UUID) (*profile.Details, error) {
	p, err := r.findOne(ctx, psqlProfile.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"id": profileID}))
	if err != nil {
		return nil, err
	}
	return r.withChildren(ctx, p)
}

// GetByUserID returns the oldest profile of the owner when several exist.
func (r *postgresProfileRepo) GetByUserID(ctx context.Context, ownerID uuid.UUID) (*profile.Details, error) {
	p, err := r.findOne(ctx, psqlProfile.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at ASC").
		Limit(1))
	if err != nil {
		return nil, err
	}
	return r.withChildren(ctx, p)
}

func (r *postgresProfileRepo) GetByUsername(ctx context.Context, username string, viewerID *uuid.UUID) (*profile.Details, error) {
	visible := sq.Sqlizer(sq.Eq{"is_public": true})
	if viewerID != nil {
		visible = sq.Or{sq.Eq{"is_public": true}, sq.Eq{"owner_id": *viewerID}}
	}

	p, err := r.findOne(ctx, psqlProfile.Select(profileColumns...).
		From("profiles").
		Where(sq.And{sq.Expr("lower(username) = lower(?)", username), visible}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	return r.withChildren(ctx, p)
}

func (r *postgresProfileRepo) Update(ctx context.Context, profileID uuid.UUID, data profile.Update) error {
	builder := psqlProfile.Update("profiles").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": profileID})

	if data.FullName != nil {
		builder = builder.Set("full_name", *data.FullName)
	}
	if data.Headline != nil {
		builder = builder.Set("headline", *data.Headline)
	}
	if data.Bio != nil {
		builder = builder.Set("bio", *data.Bio)
	}
	if data.Username != nil {
		builder = builder.Set("username", *data.Username)
	}
	if data.IsPublic != nil {
		builder = builder.Set("is_public", *data.IsPublic)
	}
	if data.PhotoURL != nil {
		builder = builder.Set("photo_url", *data.PhotoURL)
	}
	if data.SocialLinks != nil {
		socialLinksBytes, err := json.Marshal(data.SocialLinks)
		if err != nil {
			return apperror.NewInternal("failed to marshal social_links", err)
		}
		builder = builder.Set("social_links", socialLinksBytes)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build update profile query", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgUniqueViolation {
			username := ""
			if data.Username != nil {
				username = *data.Username
			}
			return uniqueConflict(constraint, uuid.Nil, username)
		}
		return storeError("failed to update profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("profile", profileID.String())
	}
	return nil
}

func (r *postgresProfileRepo) AddSkill(ctx context.Context, profileID uuid.UUID, name string) (uuid.UUID, error) {
	query := `
		INSERT INTO profile_skills (profile_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, profileID, name).Scan(&id); err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return uuid.Nil, apperror.NewNotFound("profile", profileID.String())
		}
		return uuid.Nil, storeError("failed to add skill", err)
	}
	return id, nil
}

func (r *postgresProfileRepo) RemoveSkill(ctx context.Context, profileID, skillID uuid.UUID) error {
	query := `DELETE FROM profile_skills WHERE id = $1 AND profile_id = $2`
	cmdTag, err := r.db.Exec(ctx, query, skillID, profileID)
	if err != nil {
		return storeError("failed to remove skill", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("skill", skillID.String())
	}
	return nil
}

func scanSkills(rows pgx.Rows) ([]profile.Skill, error) {
	defer rows.Close()
	skills := make([]profile.Skill, 0)
	for rows.Next() {
		var s profile.Skill
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.Name, &s.CreatedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan skill", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating skills", err)
	}
	return skills, nil
}

func (r *postgresProfileRepo) ListSkills(ctx context.Context, profileID uuid.UUID) ([]profile.Skill, error) {
	query := `
		SELECT id, profile_id, name, created_at
		FROM profile_skills
		WHERE profile_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, storeError("failed to query skills", err)
	}
	return scanSkills(rows)
}

func (r *postgresProfileRepo) AddProof(ctx context.Context, profileID uuid.UUID, data profile.ProofFields) (uuid.UUID, error) {
	query := `
		INSERT INTO profile_proofs (profile_id, title, url, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, profileID, data.Title, data.URL).Scan(&id); err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return uuid.Nil, apperror.NewNotFound("profile", profileID.String())
		}
		return uuid.Nil, storeError("failed to add proof", err)
	}
	return id, nil
}

func (r *postgresProfileRepo) RemoveProof(ctx context.Context, profileID, proofID uuid.UUID) error {
	query := `DELETE FROM profile_proofs WHERE id = $1 AND profile_id = $2`
	cmdTag, err := r.db.Exec(ctx, query, proofID, profileID)
	if err != nil {
		return storeError("failed to remove proof", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("proof", proofID.String())
	}
	return nil
}

func (r *postgresProfileRepo) UpdateProof(ctx context.Context, profileID, proofID uuid.UUID, data profile.ProofUpdate) error {
	builder := psqlProfile.Update("profile_proofs").
		Where(sq.Eq{"id": proofID, "profile_id": profileID})

	switch {
	case data.Title == nil && data.URL == nil:
		// nothing to merge, still report a missing row
		builder = builder.Set("title", sq.Expr("title"))
	default:
		if data.Title != nil {
			builder = builder.Set("title", *data.Title)
		}
		if data.URL != nil {
			builder = builder.Set("url", *data.URL)
		}
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build update proof query", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return storeError("failed to update proof", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("proof", proofID.String())
	}
	return nil
}

func (r *postgresProfileRepo) ListProofs(ctx context.Context, profileID uuid.UUID) ([]profile.ProofOfWork, error) {
	query := `
		SELECT id, profile_id, title, url, created_at
		FROM profile_proofs
		WHERE profile_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, storeError("failed to query proofs", err)
	}
	defer rows.Close()

	proofs := make([]profile.ProofOfWork, 0)
	for rows.Next() {
		var p profile.ProofOfWork
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Title, &p.URL, &p.CreatedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan proof", err)
		}
		proofs = append(proofs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating proofs", err)
	}
	return proofs, nil
}

// ListPublic reads one page of public profiles and their skills with a
// single batched query instead of one query per profile.
func (r *postgresProfileRepo) ListPublic(ctx context.Context, limit, offset int) ([]profile.Card, error) {
	if offset < 0 || limit <= 0 {
		return []profile.Card{}, nil
	}
	sql, args, err := psqlProfile.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"is_public": true}).
		OrderBy("updated_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list public profiles query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError("failed to query public profiles", err)
	}

	cards := make([]profile.Card, 0)
	index := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		p, err := scanProfile(rows, r.logger)
		if err != nil {
			rows.Close()
			return nil, apperror.NewInternal("failed to scan profile row", err)
		}
		index[p.ID] = len(cards)
		ids = append(ids, p.ID)
		cards = append(cards, profile.Card{Profile: p, Skills: []profile.Skill{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating public profiles", err)
	}
	if len(ids) == 0 {
		return cards, nil
	}

	skillRows, err := r.db.Query(ctx, `
		SELECT id, profile_id, name, created_at
		FROM profile_skills
		WHERE profile_id = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return nil, storeError("failed to query skills for public profiles", err)
	}
	skills, err := scanSkills(skillRows)
	if err != nil {
		return nil, err
	}
	for _, s := range skills {
		i := index[s.ProfileID]
		cards[i].Skills = append(cards[i].Skills, s)
	}
	return cards, nil
}
