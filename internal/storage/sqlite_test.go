package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/lineapi/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestProcessedEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seen, err := store.IsEventProcessed(ctx, "01H810YECXQQZ37VAXPF6H9E6T")
	require.NoError(t, err)
	assert.False(t, seen)

	ev := &models.ProcessedEvent{WebhookEventID: "01H810YECXQQZ37VAXPF6H9E6T", EventType: models.EventMessage}
	require.NoError(t, store.MarkEventProcessed(ctx, ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.ProcessedAt.IsZero())

	seen, err = store.IsEventProcessed(ctx, "01H810YECXQQZ37VAXPF6H9E6T")
	require.NoError(t, err)
	assert.True(t, seen)

	// Recording the same event twice keeps one row.
	require.NoError(t, store.MarkEventProcessed(ctx, &models.ProcessedEvent{
		WebhookEventID: "01H810YECXQQZ37VAXPF6H9E6T", EventType: models.EventMessage,
	}))
	n, err := store.CountProcessedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPurgeProcessedEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.MarkEventProcessed(ctx, &models.ProcessedEvent{
		WebhookEventID: "old", EventType: models.EventFollow, ProcessedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, store.MarkEventProcessed(ctx, &models.ProcessedEvent{
		WebhookEventID: "new", EventType: models.EventFollow, ProcessedAt: now,
	}))

	purged, err := store.PurgeProcessedEvents(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	seen, err := store.IsEventProcessed(ctx, "new")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, store.Ping(ctx))
}
