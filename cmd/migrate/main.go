package main

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/adapters/persistence"
	"github.com/khoahotran/skilldeck/internal/application/usecase/migration"
	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

func main() {
	source := pflag.String("source", "file://migrations", "schema migrations source URL")
	batch := pflag.Int("batch", 100, "profiles moved per batch")
	schemaOnly := pflag.Bool("schema-only", false, "apply schema migrations without moving embedded data")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("FATAL: cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	// Schema
	m, err := migrate.New(*source, cfg.DB.DSN)
	if err != nil {
		appLogger.Fatal("Cannot create migrate instance", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		appLogger.Fatal("Schema migration failed", err)
	}
	version, dirty, _ := m.Version()
	appLogger.Info("Schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))

	if *schemaOnly {
		return
	}

	// Embedded skills and proofs
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	uc := migration.NewMigrateEmbeddedUseCase(persistence.NewPostgresLegacyProfileRepo(dbPool, appLogger), appLogger)
	out, err := uc.Execute(context.Background(), *batch)
	if err != nil {
		appLogger.Fatal("Embedded data migration failed", err)
	}
	appLogger.Info("Embedded data migrated",
		zap.Int("profiles", out.Profiles),
		zap.Int("skills", out.Skills),
		zap.Int("proofs", out.Proofs),
	)
}
