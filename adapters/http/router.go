package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
	"github.com/khoahotran/skilldeck/pkg/metrics"
)

type RouterDeps struct {
	AuthHandler      *AuthHandler
	ProfileHandler   *ProfileHandler
	DirectoryHandler *DirectoryHandler
	JWTService       *auth.JWTService
	Tokens           service.TokenStore
	Logger           logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), TracingMiddleware("skilldeck-api"), metrics.GinMiddleware(), ErrorMiddleware(deps.Logger))

	authMiddleware := AuthMiddleware(deps.JWTService, deps.Tokens, deps.Logger)
	optionalAuth := OptionalAuthMiddleware(deps.JWTService, deps.Tokens, deps.Logger)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		authGroup := api.Group("/auth")
		{
			authGroup.POST("", deps.AuthHandler.Authenticate)
			authGroup.GET("/me", optionalAuth, deps.AuthHandler.Me)
			authGroup.POST("/logout", authMiddleware, deps.AuthHandler.Logout)
		}

		api.GET("/profiles", deps.DirectoryHandler.ListProfiles)
		api.GET("/profiles/feed.xml", deps.DirectoryHandler.GenerateRSS)
		api.GET("/u/:username", optionalAuth, deps.ProfileHandler.GetPublicProfile)

		me := api.Group("/profile/me")
		me.Use(authMiddleware)
		{
			me.GET("", deps.ProfileHandler.GetOwnProfile)
			me.POST("", deps.ProfileHandler.CreateProfile)
			me.PATCH("", deps.ProfileHandler.UpdateProfile)
			me.POST("/avatar", deps.ProfileHandler.UploadAvatar)

			me.GET("/skills", deps.ProfileHandler.ListSkills)
			me.POST("/skills", deps.ProfileHandler.AddSkill)
			me.DELETE("/skills/:id", deps.ProfileHandler.RemoveSkill)

			me.GET("/proofs", deps.ProfileHandler.ListProofs)
			me.POST("/proofs", deps.ProfileHandler.AddProof)
			me.PATCH("/proofs/:id", deps.ProfileHandler.UpdateProof)
			me.DELETE("/proofs/:id", deps.ProfileHandler.RemoveProof)
		}
	}

	return router
}

// WithCORS wraps the router for the browser front end. No origins means
// allow all, which is only meant for local development.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(h)
}
