package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/gema-assignments-api/internal/dto"
	"github.com/noah-isme/gema-assignments-api/internal/observability"
)

// Notifier hands a submission event to a topic on the configured broker.
type Notifier interface {
	Publish(ctx context.Context, topic string, event dto.SubmissionEvent) error
}

// NATSPublisher is the subset of *nats.Conn used by NATSNotifier.
type NATSPublisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// KafkaWriter is the subset of *kafka.Writer used by KafkaNotifier.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NATSNotifier publishes events on a NATS subject and waits for the server to acknowledge the flush.
type NATSNotifier struct {
	conn   NATSPublisher
	logger zerolog.Logger
}

// NewNATSNotifier constructs a NATS-backed notifier.
func NewNATSNotifier(conn NATSPublisher, logger zerolog.Logger) *NATSNotifier {
	return &NATSNotifier{conn: conn, logger: logger.With().Str("component", "nats_notifier").Logger()}
}

func (n *NATSNotifier) Publish(ctx context.Context, topic string, event dto.SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(topic, payload); err != nil {
		return record("nats", fmt.Errorf("nats publish: %w", err))
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return record("nats", fmt.Errorf("nats flush: %w", err))
	}

	n.logger.Debug().Str("topic", topic).Str("submission_id", event.SubmissionID).Msg("submission event published")
	return record("nats", nil)
}

// RedisNotifier publishes events on a Redis pub/sub channel.
type RedisNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisNotifier constructs a Redis-backed notifier.
func NewRedisNotifier(client *redis.Client, logger zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger.With().Str("component", "redis_notifier").Logger()}
}

func (n *RedisNotifier) Publish(ctx context.Context, topic string, event dto.SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, topic, payload).Err(); err != nil {
		return record("redis", fmt.Errorf("redis publish: %w", err))
	}

	n.logger.Debug().Str("topic", topic).Str("submission_id", event.SubmissionID).Msg("submission event published")
	return record("redis", nil)
}

// KafkaNotifier writes events to a Kafka topic keyed by assignment id.
type KafkaNotifier struct {
	writer KafkaWriter
	logger zerolog.Logger
}

// NewKafkaNotifier constructs a Kafka-backed notifier.
func NewKafkaNotifier(writer KafkaWriter, logger zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, logger: logger.With().Str("component", "kafka_notifier").Logger()}
}

func (n *KafkaNotifier) Publish(ctx context.Context, topic string, event dto.SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatUint(uint64(event.AssignmentID), 10)),
		Value: payload,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return record("kafka", fmt.Errorf("kafka write: %w", err))
	}

	n.logger.Debug().Str("topic", topic).Str("submission_id", event.SubmissionID).Msg("submission event published")
	return record("kafka", nil)
}

// LogNotifier is a basic provider that logs events. Used for local development.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a logging notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "log_notifier").Logger()}
}

// Publish logs the event and returns nil to indicate success.
func (n *LogNotifier) Publish(ctx context.Context, topic string, event dto.SubmissionEvent) error {
	n.logger.Info().
		Str("topic", topic).
		Uint("assignment_id", event.AssignmentID).
		Str("submission_id", event.SubmissionID).
		Str("submission_url", event.SubmissionURL).
		Str("user_email", event.UserEmail).
		Msg("submission event published")
	return record("log", nil)
}

func record(backend string, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.NotificationsPublished().WithLabelValues(backend, result).Inc()
	return err
}
