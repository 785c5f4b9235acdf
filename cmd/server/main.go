package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/adapters/event"
	httpAdapter "github.com/khoahotran/skilldeck/adapters/http"
	"github.com/khoahotran/skilldeck/adapters/media_storage"
	"github.com/khoahotran/skilldeck/adapters/persistence"
	"github.com/khoahotran/skilldeck/adapters/persistence/memory"
	"github.com/khoahotran/skilldeck/adapters/search_index"
	"github.com/khoahotran/skilldeck/internal/application/service"
	authUC "github.com/khoahotran/skilldeck/internal/application/usecase/auth"
	directoryUC "github.com/khoahotran/skilldeck/internal/application/usecase/directory"
	mediaUC "github.com/khoahotran/skilldeck/internal/application/usecase/media"
	profileUC "github.com/khoahotran/skilldeck/internal/application/usecase/profile"
	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/internal/domain/identity"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/internal/domain/user"
	"github.com/khoahotran/skilldeck/pkg/auth"
	"github.com/khoahotran/skilldeck/pkg/logger"
	"github.com/khoahotran/skilldeck/pkg/metrics"
	"github.com/khoahotran/skilldeck/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("FATAL: cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start SkillDeck API Server...", zap.String("env", cfg.App.Env))

	if cfg.Auth.JWTSecret == "" {
		appLogger.Fatal("JWT secret is not configured", errors.New("JWT_SECRET is empty"))
	}

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "skilldeck-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	defer tp.Shutdown(context.Background())

	metrics.Register()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	var (
		userRepo    user.Repository
		profileRepo profile.Repository
	)
	switch cfg.DB.Driver {
	case config.DBDriverMemory:
		appLogger.Warn("Using in-memory store, data is lost on restart")
		userRepo = memory.NewUserRepo()
		profileRepo = memory.NewProfileRepo()
	default:
		dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Postgres", err)
		}
		defer dbPool.Close()
		userRepo = persistence.NewPostgresUserRepo(dbPool, appLogger)
		profileRepo = persistence.NewPostgresProfileRepo(dbPool, appLogger)
	}

	// Cache and token revocation
	var (
		profileCache service.ProfileCache = service.NopProfileCache{}
		tokenStore   service.TokenStore   = memory.NewTokenStore()
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		profileCache = persistence.NewRedisProfileCache(redisClient, cfg.Redis.CacheTTL, appLogger)
		tokenStore = persistence.NewRedisTokenStore(redisClient)
	} else {
		appLogger.Warn("Redis not configured, profile cache disabled and revocations kept in process")
	}

	// Events
	hub := identity.NewHub()
	defer event.LogIdentityEvents(hub, appLogger)()

	var publisher service.EventPublisher = service.NopEventPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
		defer event.ForwardIdentityEvents(hub, kafkaClient, appLogger)()
	} else {
		appLogger.Warn("Kafka not configured, profile events are not published")
	}

	// Search
	var index search.Index
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search_index.NewElasticClient(cfg)
		if err != nil {
			appLogger.Fatal("Cannot init Elasticsearch client", err)
		}
		esIndex := search_index.NewElasticIndex(esClient, cfg.Elastic.Index, appLogger)
		if err := esIndex.EnsureIndex(context.Background()); err != nil {
			appLogger.Warn("Elasticsearch index unavailable, directory search scans the store", zap.Error(err))
		} else {
			index = esIndex
		}
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader := media_storage.NewCloudinaryAdapter(cfg, appLogger)

	// Use Cases
	authUseCase := authUC.NewAuthUseCase(userRepo, jwtSvc, tokenStore, hub, appLogger)
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, profileCache, publisher, appLogger)
	uploadAvatarUseCase := mediaUC.NewUploadAvatarUseCase(profileUseCase, uploader, appLogger)
	directoryUseCase := directoryUC.NewDirectoryUseCase(profileRepo, index, cfg.App.BaseURL, appLogger)

	// HTTP
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		AuthHandler:      httpAdapter.NewAuthHandler(authUseCase, appLogger),
		ProfileHandler:   httpAdapter.NewProfileHandler(profileUseCase, uploadAvatarUseCase, appLogger),
		DirectoryHandler: httpAdapter.NewDirectoryHandler(directoryUseCase, appLogger),
		JWTService:       jwtSvc,
		Tokens:           tokenStore,
		Logger:           appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           httpAdapter.WithCORS(router, cfg.App.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
