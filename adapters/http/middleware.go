package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/identity"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	GinContextKeyOwnerID  = "ownerID"
	GinContextKeyIdentity = "identity"
)

var (
	errNoToken      = errors.New("authorization header is required")
	errTokenFormat  = errors.New("invalid token format")
	errTokenInvalid = errors.New("invalid or expired token")
	errTokenRevoked = errors.New("token has been revoked")
)

// resolveIdentity reads the bearer token. A store failure while checking
// revocation is returned as is so it is not mistaken for a bad token.
func resolveIdentity(c *gin.Context, jwtSvc *auth.JWTService, tokens service.TokenStore) (identity.Identity, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return identity.SignedOut(), errNoToken
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return identity.SignedOut(), errTokenFormat
	}

	claims, err := jwtSvc.ValidateToken(tokenString)
	if err != nil {
		return identity.SignedOut(), errTokenInvalid
	}

	revoked, err := tokens.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		return identity.Unknown(), err
	}
	if revoked {
		return identity.SignedOut(), errTokenRevoked
	}

	return identity.SignedIn(claims.OwnerID, claims.Email, claims.ID, claims.ExpiresAt.Time), nil
}

func setIdentity(c *gin.Context, who identity.Identity) {
	c.Set(GinContextKeyIdentity, who)
	if who.IsSignedIn() {
		c.Set(GinContextKeyOwnerID, who.UserID)
	}
}

func AuthMiddleware(jwtSvc *auth.JWTService, tokens service.TokenStore, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := resolveIdentity(c, jwtSvc, tokens)
		if err != nil {
			if who.State == identity.StateUnknown {
				log.Error("Token revocation check failed", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Something went wrong, please try again later"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": capitalize(err.Error())})
			return
		}

		setIdentity(c, who)
		c.Next()
	}
}

// OptionalAuthMiddleware lets anonymous requests through as signed out.
// A bad token is treated like no token.
func OptionalAuthMiddleware(jwtSvc *auth.JWTService, tokens service.TokenStore, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := resolveIdentity(c, jwtSvc, tokens)
		if err != nil && !errors.Is(err, errNoToken) {
			log.Debug("Ignoring unusable token on optional route", zap.Error(err))
		}
		if who.State == identity.StateUnknown {
			who = identity.SignedOut()
		}
		setIdentity(c, who)
		c.Next()
	}
}

func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}
		status := apperror.ToHTTPStatus(appErr)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.String("details", appErr.Details),
		}
		if status >= http.StatusInternalServerError {
			log.Error(appErr.Message, err, fields...)
		} else {
			log.Warn(appErr.Message, append(fields, zap.Error(err))...)
		}

		if !c.Writer.Written() {
			c.JSON(status, appErr.ToJSON())
		}
	}
}

func GetOwnerIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := c.Get(GinContextKeyOwnerID)
	if !ok {
		return uuid.Nil, false
	}
	ownerIDUUID, ok := ownerID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return ownerIDUUID, true
}

// GetIdentityFromGinContext returns Unknown when no auth middleware ran.
func GetIdentityFromGinContext(c *gin.Context) identity.Identity {
	v, ok := c.Get(GinContextKeyIdentity)
	if !ok {
		return identity.Unknown()
	}
	who, ok := v.(identity.Identity)
	if !ok {
		return identity.Unknown()
	}
	return who
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TracingMiddleware opens a server span per request so use case spans
// nest under it. Upstream trace context is honoured.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
