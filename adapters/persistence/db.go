package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func NewPostgresPool(cfg config.Config, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg.DB.DSN == "" {
		return nil, apperror.NewStoreUnavailable("database DSN is not configured", nil)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		return nil, apperror.NewStoreUnavailable("do not create connection pool", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, apperror.NewStoreUnavailable("ping database failed", err)
	}

	log.Info("Connect PostgreSQL successfully.")
	return pool, nil
}

// storeError classifies a driver error: connectivity problems become
// StoreUnavailable, everything else Internal.
func storeError(details string, err error) error {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || errors.Is(err, pgx.ErrTxClosed) {
		return apperror.NewStoreUnavailable(details, err)
	}
	return apperror.NewInternal(details, err)
}

func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}
