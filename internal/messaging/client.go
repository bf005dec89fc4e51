package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shohag/lineapi/internal/config"
	"github.com/shohag/lineapi/internal/metrics"
)

const (
	headerRequestID         = "X-Line-Request-Id"
	headerAcceptedRequestID = "X-Line-Accepted-Request-Id"
	headerRetryKey          = "X-Line-Retry-Key"

	maxResponseSize = 1 << 20
	userAgent       = "lineapi/0.1"
)

// Client calls the Messaging API with a channel access token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client built from the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func NewClient(cfg config.LineConfig, log zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = "https://api.line.me"
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.ChannelAccessToken,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "messaging").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call sends one request. endpoint is the path template used for metrics and
// logs; path is the concrete request path.
func (c *Client) call(ctx context.Context, method, endpoint, path string, header http.Header, in, out any) (string, error) {
	start := time.Now()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get(headerRequestID)
	metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return requestID, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status_code", resp.StatusCode).
		Str("request_id", requestID).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("line api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode:        resp.StatusCode,
			RequestID:         requestID,
			AcceptedRequestID: resp.Header.Get(headerAcceptedRequestID),
		}
		if jerr := json.Unmarshal(respBody, apiErr); jerr != nil {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		c.log.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("request_id", requestID).
			Str("error", apiErr.Message).
			Msg("line api rejected request")
		return requestID, apiErr
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return requestID, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return requestID, nil
}
