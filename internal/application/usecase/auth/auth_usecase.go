package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/identity"
	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("email address is badly formatted")
)

var tracer = otel.Tracer("auth_usecase")

type AuthUseCase struct {
	userRepo user.Repository
	jwtSvc   *auth.JWTService
	tokens   service.TokenStore
	hub      *identity.Hub
	logger   logger.Logger
}

func NewAuthUseCase(repo user.Repository, jwtSvc *auth.JWTService, tokens service.TokenStore, hub *identity.Hub, log logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: repo,
		jwtSvc:   jwtSvc,
		tokens:   tokens,
		hub:      hub,
		logger:   log,
	}
}

type Credentials struct {
	Email    string
	Password string
	Name     string
}

type AuthOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *user.User
}

func identityError(err error) error {
	return apperror.NewIdentityError(err.Error(), err)
}

func (uc *AuthUseCase) issue(u *user.User) (*AuthOutput, error) {
	token, claims, err := uc.jwtSvc.GenerateToken(u.ID, u.Email)
	if err != nil {
		uc.logger.Error("Failed to generate token", err, zap.String("user_id", u.ID.String()))
		return nil, apperror.NewInternal("failed to generate token", err)
	}
	return &AuthOutput{AccessToken: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

func (uc *AuthUseCase) SignUp(ctx context.Context, input Credentials) (*AuthOutput, error) {
	ctx, span := tracer.Start(ctx, "SignUp")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, identityError(ErrInvalidEmail)
	}
	if len(input.Password) < minPasswordLength {
		return nil, identityError(ErrWeakPassword)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	if name := strings.TrimSpace(input.Name); name != "" {
		u.Name = &name
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.NewAppError(apperror.ErrConflict, ErrEmailInUse.Error(), email, err)
		}
		return nil, err
	}

	out, err := uc.issue(u)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	uc.hub.Publish(identity.Event{Type: identity.EventSignedUp, UserID: u.ID, Email: u.Email})
	return out, nil
}

func (uc *AuthUseCase) SignIn(ctx context.Context, input Credentials) (*AuthOutput, error) {
	ctx, span := tracer.Start(ctx, "SignIn")
	defer span.End()

	u, err := uc.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, identityError(ErrInvalidCredentials)
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(input.Password, u.PasswordHash) {
		err := identityError(ErrInvalidCredentials)
		span.RecordError(err)
		return nil, err
	}

	out, err := uc.issue(u)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	uc.hub.Publish(identity.Event{Type: identity.EventSignedIn, UserID: u.ID, Email: u.Email})
	return out, nil
}

// SignOut revokes the presented token for the rest of its lifetime.
func (uc *AuthUseCase) SignOut(ctx context.Context, who identity.Identity) error {
	ctx, span := tracer.Start(ctx, "SignOut")
	defer span.End()

	if !who.IsSignedIn() {
		return apperror.NewUnauthorized("not signed in", nil)
	}
	if err := uc.tokens.Revoke(ctx, who.TokenID, time.Until(who.Expires)); err != nil {
		span.RecordError(err)
		return err
	}
	uc.hub.Publish(identity.Event{Type: identity.EventSignedOut, UserID: who.UserID, Email: who.Email})
	return nil
}

// Me returns the signed-in user, or nil for anonymous callers.
func (uc *AuthUseCase) Me(ctx context.Context, who identity.Identity) (*user.User, error) {
	if !who.IsSignedIn() {
		return nil, nil
	}
	return uc.userRepo.FindByID(ctx, who.UserID)
}
