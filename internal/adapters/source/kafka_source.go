package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSource drains pending email records from a Kafka topic. Load fetches
// until no message arrives within the idle timeout, then returns the batch.
type KafkaSource struct {
	reader         *kafka.Reader
	idleTimeout    time.Duration
	sortByPriority bool
	logger         *zap.Logger
}

// NewKafkaSource creates a new Kafka source
func NewKafkaSource(brokers []string, topic, groupID string, idleTimeout time.Duration, sortByPriority bool, logger *zap.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &KafkaSource{
		reader:         reader,
		idleTimeout:    idleTimeout,
		sortByPriority: sortByPriority,
		logger:         logger,
	}
}

// Load drains the topic into a batch. Messages that fail to decode or
// validate are committed and skipped so they are not redelivered.
func (s *KafkaSource) Load(ctx context.Context) ([]*core.Email, error) {
	emails := []*core.Email{}
	skipped := 0

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, s.idleTimeout)
		msg, err := s.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				// Topic drained
				break
			}
			if errors.Is(err, context.Canceled) {
				break
			}
			return nil, fmt.Errorf("failed to fetch from kafka: %w", err)
		}

		email, err := DecodeEmail(msg.Value)
		if err != nil {
			skipped++
			s.logger.Warn("Skipping invalid email message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		} else {
			emails = append(emails, email)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to commit kafka message: %w", err)
		}
	}

	if s.sortByPriority {
		SortByPriority(emails)
	}

	s.logger.Info("Drained emails from kafka",
		zap.Int("loaded", len(emails)),
		zap.Int("skipped", skipped))

	return emails, nil
}

// Close releases the underlying Kafka reader
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
