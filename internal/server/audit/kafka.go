package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"akeno/internal/types"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig represents the kafka audit sink configuration
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// KafkaSink publishes audit entries to a kafka topic, keyed by user ID
// so one user's trail stays ordered within a partition
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a new kafka audit sink
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "akeno.audit"
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: writer}, nil
}

// Name returns the sink name
func (s *KafkaSink) Name() string { return "kafka" }

// Publish sends one audit entry to the topic
func (s *KafkaSink) Publish(ctx context.Context, entry types.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.UserID),
		Value: data,
		Time:  entry.Timestamp,
	})
}

// Close closes the kafka writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
