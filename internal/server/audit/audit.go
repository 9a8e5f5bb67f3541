package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"akeno/internal/server/storage"
	"akeno/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyPrefix = "audit:"

	// maxOutputChars bounds the stored command output per entry
	maxOutputChars = 500

	// DefaultQueryLimit caps query results when no limit is given
	DefaultQueryLimit = 50

	// DefaultMaxEntries is the entry count Cleanup keeps when the
	// configuration does not say otherwise
	DefaultMaxEntries = 1000
)

// Config represents the audit logger configuration
type Config struct {
	// MaxEntries caps how many entries Cleanup keeps; oldest beyond
	// this count are deleted
	MaxEntries int `mapstructure:"max_entries"`

	// Retention additionally drops entries older than this age; zero
	// disables the age sweep
	Retention time.Duration `mapstructure:"retention"`

	Kafka KafkaConfig `mapstructure:"kafka"`
	AMQP  AMQPConfig  `mapstructure:"amqp"`
}

// Logger records every command attempt, executed or not. Recording is
// best-effort: a broken audit backend must never block or fail the
// command pipeline, so Log swallows storage and sink errors after
// logging them.
type Logger struct {
	kv     storage.Store
	sinks  []Sink
	logger *zap.Logger
}

// NewLogger creates a new audit logger writing to the given store and
// optional stream sinks
func NewLogger(kv storage.Store, sinks []Sink, logger *zap.Logger) *Logger {
	return &Logger{kv: kv, sinks: sinks, logger: logger}
}

// Log records one audit entry. It assigns the ID and timestamp and
// truncates oversized output. Failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, entry types.AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ID == "" {
		// Zero-padded nanosecond prefix keeps IDs sortable in
		// creation order; the suffix disambiguates same-instant entries
		entry.ID = fmt.Sprintf("%020d-%s", entry.Timestamp.UnixNano(), uuid.NewString()[:8])
	}
	if len(entry.Output) > maxOutputChars {
		entry.Output = entry.Output[:maxOutputChars]
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("Failed to encode audit entry",
			zap.String("id", entry.ID),
			zap.Error(err))
		return
	}

	// Nanosecond timestamp in the key keeps entries chronologically
	// ordered under the store's key ordering
	key := fmt.Sprintf("%s%020d:%s", keyPrefix, entry.Timestamp.UnixNano(), entry.ID)
	if err := l.kv.Set(ctx, key, string(data)); err != nil {
		l.logger.Error("Failed to persist audit entry",
			zap.String("id", entry.ID),
			zap.String("user_id", entry.UserID),
			zap.Error(err))
	}

	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, entry); err != nil {
			l.logger.Warn("Failed to publish audit entry to sink",
				zap.String("sink", sink.Name()),
				zap.String("id", entry.ID),
				zap.Error(err))
		}
	}
}

// Query returns matching entries newest first
func (l *Logger) Query(ctx context.Context, q types.AuditQuery) ([]types.AuditEntry, error) {
	kvs, err := l.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	entries := make([]types.AuditEntry, 0, limit)
	// Walk newest first; keys sort ascending by timestamp
	for i := len(kvs) - 1; i >= 0 && len(entries) < limit; i-- {
		var entry types.AuditEntry
		if err := json.Unmarshal([]byte(kvs[i].Value), &entry); err != nil {
			l.logger.Warn("Skipping undecodable audit record",
				zap.String("key", kvs[i].Key),
				zap.Error(err))
			continue
		}
		if matches(entry, q) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Cleanup deletes the oldest entries beyond the newest keep and returns
// the number removed
func (l *Logger) Cleanup(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = DefaultMaxEntries
	}

	kvs, err := l.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup failed: %w", err)
	}

	excess := len(kvs) - keep
	deleted := 0
	for i := 0; i < excess; i++ {
		if err := l.kv.Delete(ctx, kvs[i].Key); err != nil {
			return deleted, fmt.Errorf("audit cleanup failed: %w", err)
		}
		deleted++
	}

	if deleted > 0 {
		l.logger.Info("Cleaned up audit entries", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// CleanupOlderThan deletes entries older than the given age and returns
// the number removed
func (l *Logger) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	kvs, err := l.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup failed: %w", err)
	}

	cutoff := fmt.Sprintf("%s%020d", keyPrefix, time.Now().Add(-age).UnixNano())
	deleted := 0
	for _, kv := range kvs {
		if strings.Compare(kv.Key, cutoff) >= 0 {
			break
		}
		if err := l.kv.Delete(ctx, kv.Key); err != nil {
			return deleted, fmt.Errorf("audit cleanup failed: %w", err)
		}
		deleted++
	}

	if deleted > 0 {
		l.logger.Info("Cleaned up audit entries", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// Close closes all stream sinks
func (l *Logger) Close() error {
	var errs []string
	for _, sink := range l.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("audit sink close errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func matches(entry types.AuditEntry, q types.AuditQuery) bool {
	if q.UserID != "" && entry.UserID != q.UserID {
		return false
	}
	if q.Type != "" && entry.Type != q.Type {
		return false
	}
	if q.Success != nil && entry.Success != *q.Success {
		return false
	}
	if q.GuildID != "" && entry.GuildID != q.GuildID {
		return false
	}
	if q.Since != nil && entry.Timestamp.Before(*q.Since) {
		return false
	}
	if q.Until != nil && entry.Timestamp.After(*q.Until) {
		return false
	}
	return true
}
