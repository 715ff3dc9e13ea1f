package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/client"
	"posture-service/internal/models"
)

// Invalidator drops cached read models after a sync. Implemented by the
// redis dashboard cache.
type Invalidator interface {
	Invalidate(ctx context.Context, scope string) error
}

// SyncNotifier publishes a sync-completed event for external listeners.
// Publishing is best effort; the pipeline never waits on consumers.
type SyncNotifier struct {
	producer *client.KafkaProducer
	topic    string
	logger   *zap.Logger
}

func NewSyncNotifier(producer *client.KafkaProducer, topic string, logger *zap.Logger) *SyncNotifier {
	return &SyncNotifier{producer: producer, topic: topic, logger: logger}
}

type syncCompletedEvent struct {
	Scope       string    `json:"scope"`
	Success     bool      `json:"success"`
	TotalCount  int       `json:"total_count"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// SyncCompleted emits one event covering the given scope ("all" or a
// single source id).
func (n *SyncNotifier) SyncCompleted(ctx context.Context, scope string, result *models.CombinedSyncResult) error {
	if n == nil || n.producer == nil {
		return nil
	}

	event := syncCompletedEvent{
		Scope:       scope,
		CompletedAt: time.Now().UTC(),
	}
	if result != nil {
		event.Success = result.Success
		event.TotalCount = result.TotalCount
		event.DurationMs = result.DurationMs
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	return n.producer.ProduceMessage(ctx, n.topic, []byte(scope), value,
		map[string]string{"event": "sync.completed"})
}
