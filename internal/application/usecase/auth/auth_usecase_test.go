package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/skilldeck/adapters/persistence/memory"
	"github.com/khoahotran/skilldeck/internal/domain/identity"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type AuthUseCaseTestSuite struct {
	suite.Suite
	ctx    context.Context
	jwtSvc *auth.JWTService
	tokens *memory.TokenStore
	hub    *identity.Hub
	events []identity.Event
	uc     *AuthUseCase
}

func (s *AuthUseCaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.jwtSvc = auth.NewJWTService("test-secret", time.Hour)
	s.tokens = memory.NewTokenStore()
	s.hub = identity.NewHub()
	s.events = nil
	s.hub.Subscribe(func(e identity.Event) { s.events = append(s.events, e) })
	s.uc = NewAuthUseCase(memory.NewUserRepo(), s.jwtSvc, s.tokens, s.hub, logger.NewNopLogger())
}

func TestAuthUseCase(t *testing.T) {
	suite.Run(t, new(AuthUseCaseTestSuite))
}

func (s *AuthUseCaseTestSuite) Test_SignUp_ThenSignIn() {
	out, err := s.uc.SignUp(s.ctx, Credentials{Email: " Ada@Example.com ", Password: "engine1", Name: "Ada"})
	s.Require().NoError(err)
	s.Equal("ada@example.com", out.User.Email)
	s.NotEmpty(out.AccessToken)

	claims, err := s.jwtSvc.ValidateToken(out.AccessToken)
	s.Require().NoError(err)
	s.Equal(out.User.ID, claims.OwnerID)

	in, err := s.uc.SignIn(s.ctx, Credentials{Email: "ada@example.com", Password: "engine1"})
	s.Require().NoError(err)
	s.Equal(out.User.ID, in.User.ID)

	s.Require().Len(s.events, 2)
	s.Equal(identity.EventSignedUp, s.events[0].Type)
	s.Equal(identity.EventSignedIn, s.events[1].Type)
}

func (s *AuthUseCaseTestSuite) Test_SignUp_ProviderMessages() {
	_, err := s.uc.SignUp(s.ctx, Credentials{Email: "not-an-email", Password: "engine1"})
	s.assertMessage(err, apperror.ErrIdentity, "email address is badly formatted")

	_, err = s.uc.SignUp(s.ctx, Credentials{Email: "ada@example.com", Password: "short"})
	s.assertMessage(err, apperror.ErrIdentity, "password must be at least 6 characters")

	_, err = s.uc.SignUp(s.ctx, Credentials{Email: "ada@example.com", Password: "engine1"})
	s.Require().NoError(err)
	_, err = s.uc.SignUp(s.ctx, Credentials{Email: "ADA@example.com", Password: "engine1"})
	s.assertMessage(err, apperror.ErrConflict, "email address is already in use")
}

func (s *AuthUseCaseTestSuite) Test_SignIn_WrongCredentials() {
	_, err := s.uc.SignUp(s.ctx, Credentials{Email: "ada@example.com", Password: "engine1"})
	s.Require().NoError(err)

	_, err = s.uc.SignIn(s.ctx, Credentials{Email: "ada@example.com", Password: "wrong-pass"})
	s.assertMessage(err, apperror.ErrIdentity, "email or password is incorrect")

	_, err = s.uc.SignIn(s.ctx, Credentials{Email: "nobody@example.com", Password: "engine1"})
	s.assertMessage(err, apperror.ErrIdentity, "email or password is incorrect")
}

func (s *AuthUseCaseTestSuite) Test_SignOut_RevokesToken() {
	out, err := s.uc.SignUp(s.ctx, Credentials{Email: "ada@example.com", Password: "engine1"})
	s.Require().NoError(err)
	claims, err := s.jwtSvc.ValidateToken(out.AccessToken)
	s.Require().NoError(err)

	who := identity.SignedIn(claims.OwnerID, claims.Email, claims.ID, claims.ExpiresAt.Time)
	s.Require().NoError(s.uc.SignOut(s.ctx, who))

	revoked, err := s.tokens.IsRevoked(s.ctx, claims.ID)
	s.Require().NoError(err)
	s.True(revoked)
	s.Equal(identity.EventSignedOut, s.events[len(s.events)-1].Type)

	s.ErrorIs(s.uc.SignOut(s.ctx, identity.SignedOut()), apperror.ErrUnauthorized)
}

func (s *AuthUseCaseTestSuite) Test_Me() {
	u, err := s.uc.Me(s.ctx, identity.SignedOut())
	s.NoError(err)
	s.Nil(u)

	out, err := s.uc.SignUp(s.ctx, Credentials{Email: "ada@example.com", Password: "engine1", Name: "Ada"})
	s.Require().NoError(err)
	u, err = s.uc.Me(s.ctx, identity.SignedIn(out.User.ID, out.User.Email, "jti", out.ExpiresAt))
	s.Require().NoError(err)
	s.Equal("Ada", u.DisplayName())
}

func (s *AuthUseCaseTestSuite) assertMessage(err error, base error, message string) {
	s.Require().ErrorIs(err, base)
	var appErr *apperror.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(message, appErr.Message)
}
