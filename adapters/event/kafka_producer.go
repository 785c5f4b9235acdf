package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	TopicProfileEvents = "profile.events"
	TopicAuthEvents    = "auth.events"
)

type KafkaProducerClient struct {
	ProfileEventsWriter *kafka.Writer
	AuthEventsWriter    *kafka.Writer
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'profile.events', keyed by profile so a profile's events stay ordered
	profileWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicProfileEvents,
		Balancer: &kafka.Hash{},
	}

	// writer 'auth.events'
	authWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicAuthEvents,
		Balancer: &kafka.LeastBytes{},
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
		AuthEventsWriter:    authWriter,
		logger:              log,
	}, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, payload ProfileEventPayload) error {
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal profile event failed: %w", err)
	}
	return c.ProfileEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.ProfileID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) PublishAuthEvent(ctx context.Context, payload AuthEventPayload) error {
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal auth event failed: %w", err)
	}
	return c.AuthEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.UserID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		c.ProfileEventsWriter.Close()
	}
	if c.AuthEventsWriter != nil {
		c.AuthEventsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producers")
}
