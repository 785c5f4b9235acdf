package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/skilldeck/internal/application/usecase/auth"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	authModeLogin  = "login"
	authModeSignup = "signup"
)

type AuthHandler struct {
	authUseCase *auth.AuthUseCase
	logger      logger.Logger
}

func NewAuthHandler(authUC *auth.AuthUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUC,
		logger:      log,
	}
}

// Authenticate serves both sign-in and sign-up; ?mode= picks one and
// defaults to login.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	mode := c.DefaultQuery("mode", authModeLogin)
	if mode != authModeLogin && mode != authModeSignup {
		c.Error(apperror.NewInvalidInput("mode must be 'login' or 'signup'", nil))
		return
	}

	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("email and password are required", err))
		return
	}

	input := auth.Credentials{Email: req.Email, Password: req.Password, Name: req.Name}

	var (
		output *auth.AuthOutput
		err    error
		status = http.StatusOK
	)
	if mode == authModeSignup {
		output, err = h.authUseCase.SignUp(c.Request.Context(), input)
		status = http.StatusCreated
	} else {
		output, err = h.authUseCase.SignIn(c.Request.Context(), input)
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(status, gin.H{
		"access_token": output.AccessToken,
		"expires_at":   output.ExpiresAt,
		"user": gin.H{
			"id":           output.User.ID,
			"email":        output.User.Email,
			"display_name": output.User.DisplayName(),
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUseCase.SignOut(c.Request.Context(), GetIdentityFromGinContext(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	who := GetIdentityFromGinContext(c)
	u, err := h.authUseCase.Me(c.Request.Context(), who)
	if err != nil {
		c.Error(err)
		return
	}

	resp := gin.H{"state": who.State.String()}
	if u != nil {
		resp["user"] = gin.H{
			"id":           u.ID,
			"email":        u.Email,
			"display_name": u.DisplayName(),
		}
	}
	c.JSON(http.StatusOK, resp)
}
