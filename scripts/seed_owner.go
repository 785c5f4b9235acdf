package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/adapters/persistence"
	profileUC "github.com/khoahotran/skilldeck/internal/application/usecase/profile"
	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

// Seeds a demo account with a public profile so the directory is not empty.
func main() {
	fmt.Println("adding demo user into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	ctx := context.Background()
	appLogger := logger.NewZapLogger("development")

	pool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	users := persistence.NewPostgresUserRepo(pool, appLogger)
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	if err := users.Create(ctx, u); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			log.Fatalf("cannot add user: %v", err)
		}
		if u, err = users.FindByEmail(ctx, email); err != nil {
			log.Fatalf("cannot load existing user: %v", err)
		}
	}

	profiles := profileUC.NewProfileUseCase(persistence.NewPostgresProfileRepo(pool, appLogger), nil, nil, appLogger)
	p, err := profiles.CreateProfile(ctx, profileUC.CreateProfileInput{
		OwnerID:  u.ID,
		Email:    u.Email,
		FullName: "Demo User",
		Headline: "Building things with Go",
		Bio:      "Seeded profile for local development.",
		IsPublic: true,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			fmt.Printf("user '%s' already has a profile\n", email)
			return
		}
		log.Fatalf("cannot create profile: %v", err)
	}

	for _, skill := range []string{"Go", "PostgreSQL", "Kafka"} {
		if _, err := profiles.AddSkill(ctx, u.ID, skill); err != nil {
			log.Fatalf("cannot add skill %q: %v", skill, err)
		}
	}
	if _, err := profiles.AddProof(ctx, u.ID, profile.ProofFields{Title: "SkillDeck", URL: "https://github.com/khoahotran/skilldeck"}); err != nil {
		log.Fatalf("cannot add proof: %v", err)
	}

	fmt.Printf("seeded '%s' at /u/%s\n", email, p.Username)
}
