// Package metrics holds the Prometheus collectors shared by the webhook
// handler, the messaging client and the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lineapi"

var (
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_requests_total",
		Help:      "Webhook requests received, by result.",
	}, []string{"result"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Webhook events seen, by event type and outcome.",
	}, []string{"type", "outcome"})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Calls to the Messaging API, by endpoint and status code.",
	}, []string{"endpoint", "status_code"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Time in seconds spent calling the Messaging API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Outcomes for WebhookEvents.
const (
	OutcomeHandled   = "handled"
	OutcomeFailed    = "failed"
	OutcomeUnhandled = "unhandled"
	OutcomeDuplicate = "duplicate"
)
