package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/adapters/event"
	"github.com/khoahotran/skilldeck/adapters/persistence"
	"github.com/khoahotran/skilldeck/adapters/search_index"
	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/application/usecase/indexing"
	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/internal/domain/search"
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
	appLogger.Info("Starting SkillDeck Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Kafka brokers not configured", errors.New("KAFKA_BROKERS is empty"))
	}

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "skilldeck-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	defer tp.Shutdown(context.Background())

	metrics.Register()

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)

	var profileCache service.ProfileCache = service.NopProfileCache{}
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		profileCache = persistence.NewRedisProfileCache(redisClient, cfg.Redis.CacheTTL, appLogger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Search index
	var index search.Index
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search_index.NewElasticClient(cfg)
		if err != nil {
			appLogger.Fatal("Cannot init Elasticsearch client", err)
		}
		esIndex := search_index.NewElasticIndex(esClient, cfg.Elastic.Index, appLogger)
		if err := esIndex.EnsureIndex(ctx); err != nil {
			appLogger.Fatal("Cannot ensure Elasticsearch index", err)
		}
		index = esIndex
		// "worker reindex" rebuilds the index from the store before consuming.
		if len(os.Args) > 1 && os.Args[1] == "reindex" {
			n, err := indexing.NewReindexUseCase(profileRepo, esIndex, appLogger).Execute(ctx)
			if err != nil {
				appLogger.Fatal("Reindex failed", err)
			}
			appLogger.Info("Reindex finished", zap.Int("profiles", n))
		}
	} else {
		appLogger.Warn("Elasticsearch not configured, worker only invalidates caches")
	}

	// Worker Use Case
	processUC := indexing.NewProcessProfileEventUseCase(profileRepo, index, profileCache, appLogger)

	// Kafka Consumer
	profileConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer profileConsumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := profileConsumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		var payload event.ProfileEventPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			appLogger.Warn("Failed to unmarshal event, skipping", zap.Error(err), zap.Int64("offset", msg.Offset))
			metrics.FailedEvents.Inc()
			commitMessage(profileConsumer, msg, appLogger)
			continue
		}

		appLogger.Debug("Processing event",
			zap.String("event_type", string(payload.EventType)),
			zap.String("profile_id", payload.ProfileID.String()),
		)

		if err := processUC.Execute(ctx, payload); err != nil {
			appLogger.Error("Failed to process event", err, zap.String("profile_id", payload.ProfileID.String()))
			metrics.FailedEvents.Inc()
			continue
		}
		metrics.ProcessedEvents.Inc()

		commitMessage(profileConsumer, msg, appLogger)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
