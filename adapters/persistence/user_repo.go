package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, logger logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: logger}
}

func (r *postgresUserRepo) scanOne(row pgx.Row, identifier string) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", identifier)
		}
		return nil, storeError("error when query user", err)
	}
	return u, nil
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.db.QueryRow(ctx, query, email), email)
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id), id.String())
}

func (r *postgresUserRepo) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.QueryRow(ctx, query, u.ID, u.Email, u.Name, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return apperror.NewConflict("user", "email", u.Email)
		}
		return storeError("failed to create user", err)
	}
	return nil
}
