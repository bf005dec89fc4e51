package webhook

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/signing"
	"github.com/shohag/lineapi/internal/storage"
)

const secret = "channel-secret"

const twoEvents = `{"destination":"Ubot","events":[` +
	`{"type":"message","mode":"active","timestamp":1692251666727,"source":{"type":"user","userId":"U1"},` +
	`"webhookEventId":"01H810YECXQQZ37VAXPF6H9E6T","deliveryContext":{"isRedelivery":false},` +
	`"replyToken":"rt-1","message":{"id":"100","type":"text","quoteToken":"q","text":"hello"}},` +
	`{"type":"follow","mode":"active","timestamp":1692251666728,"source":{"type":"user","userId":"U2"},` +
	`"webhookEventId":"01H810YECXQQZ37VAXPF6H9E6U","deliveryContext":{"isRedelivery":false},"replyToken":"rt-2"}` +
	`]}`

var _ Ledger = (*storage.SQLiteStorage)(nil)

type memLedger struct {
	mu   sync.Mutex
	seen map[string]models.EventType
	err  error
}

func newMemLedger() *memLedger { return &memLedger{seen: map[string]models.EventType{}} }

func (l *memLedger) IsEventProcessed(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	_, ok := l.seen[id]
	return ok, nil
}

func (l *memLedger) MarkEventProcessed(_ context.Context, ev *models.ProcessedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[ev.WebhookEventID] = ev.EventType
	return nil
}

func handle(t *testing.T, h *Handler, body string) (*Response, error) {
	t.Helper()
	return h.HandleWebhook(context.Background(), []byte(body), signing.Sign(secret, []byte(body)))
}

func TestHandleWebhookDispatchesByType(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())

	var texts, followers []string
	h.OnMessage(func(_ context.Context, ev *models.Event) error {
		texts = append(texts, ev.Message.Text)
		assert.Equal(t, "rt-1", ev.ReplyToken)
		return nil
	})
	h.OnFollow(func(_ context.Context, ev *models.Event) error {
		followers = append(followers, ev.Source.UserID)
		return nil
	})

	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, &Response{Status: "ok", ProcessedEvents: 2}, resp)
	assert.Equal(t, []string{"hello"}, texts)
	assert.Equal(t, []string{"U2"}, followers)
}

func TestHandleWebhookSignature(t *testing.T) {
	called := false
	h := NewHandler(secret, zerolog.Nop())
	h.OnAny(func(context.Context, *models.Event) error { called = true; return nil })

	body := []byte(twoEvents)

	_, err := h.HandleWebhook(context.Background(), body, "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = h.HandleWebhook(context.Background(), body, signing.Sign("wrong-secret", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	tampered := []byte(twoEvents[:len(twoEvents)-2] + `,{"type":"unfollow"}]}`)
	_, err = h.HandleWebhook(context.Background(), tampered, signing.Sign(secret, body))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	assert.False(t, called, "handlers must not run for unverified requests")
}

func TestHandleWebhookInvalidPayload(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())
	for name, body := range map[string]string{
		"not json":      `{"events":`,
		"no events":     `{"destination":"U"}`,
		"null events":   `{"destination":"U","events":null}`,
		"events object": `{"destination":"U","events":{}}`,
		"untyped event": `{"destination":"U","events":[{"timestamp":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := handle(t, h, body)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestHandleWebhookVerificationPing(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())
	resp, err := handle(t, h, `{"destination":"Ubot","events":[]}`)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedEvents)
}

func TestFallbackAndUnhandled(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())
	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedEvents, "events without handlers are not counted")

	var seen []models.EventType
	h.OnMessage(func(context.Context, *models.Event) error { return nil })
	h.OnAny(func(_ context.Context, ev *models.Event) error {
		seen = append(seen, ev.Type)
		return nil
	})
	resp, err = handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedEvents)
	assert.Equal(t, []models.EventType{models.EventFollow}, seen)
}

func TestHandlerErrorsAreCollected(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())
	boom := errors.New("boom")
	h.OnMessage(func(context.Context, *models.Event) error { return boom })
	h.OnFollow(func(context.Context, *models.Event) error { panic("kaboom") })

	resp, err := handle(t, h, twoEvents)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panic: kaboom")
	require.NotNil(t, resp)
	assert.Equal(t, 0, resp.ProcessedEvents)
	assert.Equal(t, "error", resp.Status)
}

func TestHandlersRunInOrderAndStopOnError(t *testing.T) {
	h := NewHandler(secret, zerolog.Nop())
	var order []int
	h.OnMessage(func(context.Context, *models.Event) error { order = append(order, 1); return nil })
	h.OnMessage(func(context.Context, *models.Event) error { order = append(order, 2); return errors.New("stop") })
	h.OnMessage(func(context.Context, *models.Event) error { order = append(order, 3); return nil })

	_, err := handle(t, h, twoEvents)
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.Equal(t, []int{1, 2}, order)
}

func TestLedgerSkipsRedeliveries(t *testing.T) {
	ledger := newMemLedger()
	h := NewHandler(secret, zerolog.Nop(), WithLedger(ledger))
	calls := 0
	h.OnAny(func(context.Context, *models.Event) error { calls++; return nil })

	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedEvents)
	assert.Equal(t, models.EventMessage, ledger.seen["01H810YECXQQZ37VAXPF6H9E6T"])

	resp, err = handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedEvents)
	assert.Equal(t, 2, calls)
}

func TestLedgerKeepsFailedEventsForRedelivery(t *testing.T) {
	ledger := newMemLedger()
	h := NewHandler(secret, zerolog.Nop(), WithLedger(ledger))
	fail := true
	h.OnMessage(func(context.Context, *models.Event) error {
		if fail {
			return errors.New("temporary")
		}
		return nil
	})

	_, err := handle(t, h, twoEvents)
	require.Error(t, err)
	assert.NotContains(t, ledger.seen, "01H810YECXQQZ37VAXPF6H9E6T")

	fail = false
	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedEvents)
}

func TestLedgerLookupFailureStillDispatches(t *testing.T) {
	ledger := newMemLedger()
	ledger.err = errors.New("db down")
	h := NewHandler(secret, zerolog.Nop(), WithLedger(ledger))
	h.OnAny(func(context.Context, *models.Event) error { return nil })

	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedEvents)
}

func TestSQLiteLedger(t *testing.T) {
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(context.Background()))

	h := NewHandler(secret, zerolog.Nop(), WithLedger(store))
	h.OnAny(func(context.Context, *models.Event) error { return nil })

	resp, err := handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedEvents)

	resp, err = handle(t, h, twoEvents)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedEvents)

	n, err := store.CountProcessedEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
