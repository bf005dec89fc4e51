// Package webhook verifies LINE webhook requests and dispatches their events
// to registered handlers.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/shohag/lineapi/internal/metrics"
	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/signing"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrHandlerFailed    = errors.New("event handler failed")
)

// HandlerFunc handles one event. Returning an error marks the event failed;
// the remaining events of the request are still dispatched.
type HandlerFunc func(ctx context.Context, ev *models.Event) error

// Ledger remembers handled events so redeliveries can be dropped.
type Ledger interface {
	IsEventProcessed(ctx context.Context, webhookEventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, ev *models.ProcessedEvent) error
}

// Response is the JSON body returned to LINE.
type Response struct {
	Status          string `json:"status"`
	ProcessedEvents int    `json:"processed_events"`
}

type Handler struct {
	secret string
	log    zerolog.Logger
	ledger Ledger

	mu       sync.RWMutex
	handlers map[models.EventType][]HandlerFunc
	fallback []HandlerFunc
}

type Option func(*Handler)

func WithLedger(l Ledger) Option {
	return func(h *Handler) { h.ledger = l }
}

func NewHandler(channelSecret string, log zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		secret:   channelSecret,
		log:      log.With().Str("component", "webhook").Logger(),
		handlers: make(map[models.EventType][]HandlerFunc),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// On registers fn for events of type t. Handlers run in registration order.
func (h *Handler) On(t models.EventType, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[t] = append(h.handlers[t], fn)
}

func (h *Handler) OnMessage(fn HandlerFunc)  { h.On(models.EventMessage, fn) }
func (h *Handler) OnFollow(fn HandlerFunc)   { h.On(models.EventFollow, fn) }
func (h *Handler) OnUnfollow(fn HandlerFunc) { h.On(models.EventUnfollow, fn) }
func (h *Handler) OnPostback(fn HandlerFunc) { h.On(models.EventPostback, fn) }
func (h *Handler) OnJoin(fn HandlerFunc)     { h.On(models.EventJoin, fn) }
func (h *Handler) OnLeave(fn HandlerFunc)    { h.On(models.EventLeave, fn) }

// OnAny registers fn for event types that have no handler of their own.
func (h *Handler) OnAny(fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallback = append(h.fallback, fn)
}

func (h *Handler) handlersFor(t models.EventType) []HandlerFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if fns := h.handlers[t]; len(fns) > 0 {
		return fns
	}
	return h.fallback
}

// ParsePayload decodes a webhook body. The events array must be present;
// LINE sends it empty when verifying the webhook URL.
func ParsePayload(body []byte) (*models.WebhookPayload, error) {
	var raw struct {
		Destination string          `json:"destination"`
		Events      json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(raw.Events) == 0 || bytes.Equal(raw.Events, []byte("null")) {
		return nil, fmt.Errorf("%w: events is required", ErrInvalidPayload)
	}

	payload := &models.WebhookPayload{Destination: raw.Destination}
	if err := json.Unmarshal(raw.Events, &payload.Events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	for i := range payload.Events {
		if payload.Events[i].Type == "" {
			return nil, fmt.Errorf("%w: event %d has no type", ErrInvalidPayload, i)
		}
	}
	return payload, nil
}

// HandleWebhook verifies signature against the raw body, parses it and
// dispatches every event. On ErrHandlerFailed the returned Response still
// reports the events that succeeded.
func (h *Handler) HandleWebhook(ctx context.Context, body []byte, signature string) (*Response, error) {
	if signature == "" {
		metrics.WebhookRequests.WithLabelValues("missing_signature").Inc()
		return nil, ErrMissingSignature
	}
	if !signing.Verify(h.secret, body, signature) {
		metrics.WebhookRequests.WithLabelValues("invalid_signature").Inc()
		h.log.Warn().Int("body_bytes", len(body)).Msg("webhook signature mismatch")
		return nil, ErrInvalidSignature
	}

	payload, err := ParsePayload(body)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid_payload").Inc()
		return nil, err
	}

	processed, err := h.Dispatch(ctx, payload)
	resp := &Response{Status: "ok", ProcessedEvents: processed}

	var logEv *zerolog.Event
	if err != nil {
		logEv = h.log.Error().Err(err)
	} else {
		logEv = h.log.Info()
	}
	logEv.Str("destination", payload.Destination).
		Int("events", len(payload.Events)).
		Int("processed_events", processed).
		Msg("webhook processed")

	if err != nil {
		metrics.WebhookRequests.WithLabelValues("handler_failed").Inc()
		resp.Status = "error"
		return resp, fmt.Errorf("%w: %w", ErrHandlerFailed, err)
	}
	metrics.WebhookRequests.WithLabelValues("ok").Inc()
	return resp, nil
}

// Dispatch runs the handlers for each event in order and returns how many
// events were handled. Handler errors are collected, not short-circuited.
func (h *Handler) Dispatch(ctx context.Context, payload *models.WebhookPayload) (int, error) {
	var result *multierror.Error
	processed := 0

	for i := range payload.Events {
		ev := &payload.Events[i]
		evLog := h.log.With().
			Str("event_type", string(ev.Type)).
			Str("webhook_event_id", ev.WebhookEventID).
			Logger()

		if h.alreadyProcessed(ctx, ev, evLog) {
			metrics.WebhookEvents.WithLabelValues(string(ev.Type), metrics.OutcomeDuplicate).Inc()
			evLog.Info().Msg("skipping redelivered event")
			continue
		}

		fns := h.handlersFor(ev.Type)
		if len(fns) == 0 {
			metrics.WebhookEvents.WithLabelValues(string(ev.Type), metrics.OutcomeUnhandled).Inc()
			evLog.Debug().Msg("no handler registered")
			continue
		}

		if err := runHandlers(ctx, fns, ev); err != nil {
			metrics.WebhookEvents.WithLabelValues(string(ev.Type), metrics.OutcomeFailed).Inc()
			evLog.Error().Err(err).Msg("event handler failed")
			result = multierror.Append(result, fmt.Errorf("event %d (%s): %w", i, ev.Type, err))
			continue
		}

		processed++
		metrics.WebhookEvents.WithLabelValues(string(ev.Type), metrics.OutcomeHandled).Inc()
		h.markProcessed(ctx, ev, evLog)
	}

	return processed, result.ErrorOrNil()
}

func runHandlers(ctx context.Context, fns []HandlerFunc, ev *models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	for _, fn := range fns {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) alreadyProcessed(ctx context.Context, ev *models.Event, log zerolog.Logger) bool {
	if h.ledger == nil || ev.WebhookEventID == "" {
		return false
	}
	seen, err := h.ledger.IsEventProcessed(ctx, ev.WebhookEventID)
	if err != nil {
		// A failed lookup never drops the event.
		log.Warn().Err(err).Msg("ledger lookup failed")
		return false
	}
	return seen
}

func (h *Handler) markProcessed(ctx context.Context, ev *models.Event, log zerolog.Logger) {
	if h.ledger == nil || ev.WebhookEventID == "" {
		return
	}
	err := h.ledger.MarkEventProcessed(ctx, &models.ProcessedEvent{
		WebhookEventID: ev.WebhookEventID,
		EventType:      ev.Type,
		ProcessedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record processed event")
	}
}
