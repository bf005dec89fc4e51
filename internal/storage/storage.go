package storage

import (
	"context"
	"time"

	"github.com/shohag/lineapi/internal/models"
)

// Storage is the ledger of webhook events that were handled, used to drop
// redeliveries.
type Storage interface {
	IsEventProcessed(ctx context.Context, webhookEventID string) (bool, error)
	// MarkEventProcessed is a no-op when the event is already recorded.
	MarkEventProcessed(ctx context.Context, ev *models.ProcessedEvent) error
	CountProcessedEvents(ctx context.Context) (int64, error)
	PurgeProcessedEvents(ctx context.Context, before time.Time) (int64, error)

	Ping(ctx context.Context) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
