package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shohag/lineapi/internal/models"
)

const (
	MaxMessagesPerRequest  = 5
	MaxMulticastRecipients = 500
)

type SentMessage struct {
	ID         string `json:"id"`
	QuoteToken string `json:"quoteToken,omitempty"`
}

// SendResponse is returned by every send call. SentMessages is empty for
// multicast and broadcast.
type SendResponse struct {
	RequestID    string        `json:"-"`
	SentMessages []SentMessage `json:"sentMessages,omitempty"`
}

type sendOptions struct {
	notificationDisabled bool
	retryKey             string
}

type SendOption func(*sendOptions)

// WithNotificationDisabled delivers without a push notification.
func WithNotificationDisabled() SendOption {
	return func(o *sendOptions) { o.notificationDisabled = true }
}

// WithRetryKey makes a push, multicast or broadcast idempotent: LINE answers
// 409 to a second request carrying the same key. Reply ignores it.
func WithRetryKey(key uuid.UUID) SendOption {
	return func(o *sendOptions) { o.retryKey = key.String() }
}

func WithNewRetryKey() SendOption {
	return WithRetryKey(uuid.New())
}

func buildOptions(opts []SendOption) sendOptions {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o sendOptions) header() http.Header {
	h := http.Header{}
	if o.retryKey != "" {
		h.Set(headerRetryKey, o.retryKey)
	}
	return h
}

type replyRequest struct {
	ReplyToken           string           `json:"replyToken"`
	Messages             []models.Message `json:"messages"`
	NotificationDisabled bool             `json:"notificationDisabled,omitempty"`
}

type pushRequest struct {
	To                   string           `json:"to"`
	Messages             []models.Message `json:"messages"`
	NotificationDisabled bool             `json:"notificationDisabled,omitempty"`
}

type multicastRequest struct {
	To                   []string         `json:"to"`
	Messages             []models.Message `json:"messages"`
	NotificationDisabled bool             `json:"notificationDisabled,omitempty"`
}

type broadcastRequest struct {
	Messages             []models.Message `json:"messages"`
	NotificationDisabled bool             `json:"notificationDisabled,omitempty"`
}

// ReplyMessage answers an event with its reply token. Replies are free but
// the token can be used once and expires shortly after the event.
func (c *Client) ReplyMessage(ctx context.Context, replyToken string, messages []models.Message, opts ...SendOption) (*SendResponse, error) {
	if replyToken == "" {
		return nil, fmt.Errorf("%w: reply token is required", ErrInvalidRequest)
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var out SendResponse
	id, err := c.call(ctx, http.MethodPost, "/v2/bot/message/reply", "/v2/bot/message/reply", nil,
		replyRequest{ReplyToken: replyToken, Messages: messages, NotificationDisabled: o.notificationDisabled}, &out)
	out.RequestID = id
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PushMessage sends to a user, group or room id at any time. Push messages
// count against the channel's message quota.
func (c *Client) PushMessage(ctx context.Context, to string, messages []models.Message, opts ...SendOption) (*SendResponse, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidRequest)
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var out SendResponse
	id, err := c.call(ctx, http.MethodPost, "/v2/bot/message/push", "/v2/bot/message/push", o.header(),
		pushRequest{To: to, Messages: messages, NotificationDisabled: o.notificationDisabled}, &out)
	out.RequestID = id
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Multicast sends the same messages to up to 500 user ids.
func (c *Client) Multicast(ctx context.Context, to []string, messages []models.Message, opts ...SendOption) (*SendResponse, error) {
	if len(to) == 0 || len(to) > MaxMulticastRecipients {
		return nil, fmt.Errorf("%w: multicast needs 1..%d recipients, got %d", ErrInvalidRequest, MaxMulticastRecipients, len(to))
	}
	for i, id := range to {
		if id == "" {
			return nil, fmt.Errorf("%w: recipient %d is empty", ErrInvalidRequest, i)
		}
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var out SendResponse
	id, err := c.call(ctx, http.MethodPost, "/v2/bot/message/multicast", "/v2/bot/message/multicast", o.header(),
		multicastRequest{To: to, Messages: messages, NotificationDisabled: o.notificationDisabled}, &out)
	out.RequestID = id
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Broadcast sends to every user who added the channel as a friend.
func (c *Client) Broadcast(ctx context.Context, messages []models.Message, opts ...SendOption) (*SendResponse, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var out SendResponse
	id, err := c.call(ctx, http.MethodPost, "/v2/bot/message/broadcast", "/v2/bot/message/broadcast", o.header(),
		broadcastRequest{Messages: messages, NotificationDisabled: o.notificationDisabled}, &out)
	out.RequestID = id
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateKind selects which send endpoint's rules ValidateMessages checks.
type ValidateKind string

const (
	ValidateReply     ValidateKind = "reply"
	ValidatePush      ValidateKind = "push"
	ValidateMulticast ValidateKind = "multicast"
	ValidateBroadcast ValidateKind = "broadcast"
)

// ValidateMessages asks the API to check message objects without sending
// them. A rejection comes back as *APIError with per-property details.
func (c *Client) ValidateMessages(ctx context.Context, kind ValidateKind, messages []models.Message) error {
	switch kind {
	case ValidateReply, ValidatePush, ValidateMulticast, ValidateBroadcast:
	default:
		return fmt.Errorf("%w: unknown validation kind %q", ErrInvalidRequest, kind)
	}
	if err := validateMessages(messages); err != nil {
		return err
	}

	path := "/v2/bot/message/validate/" + string(kind)
	_, err := c.call(ctx, http.MethodPost, path, path, nil, broadcastRequest{Messages: messages}, nil)
	return err
}

func validateMessages(messages []models.Message) error {
	if len(messages) == 0 || len(messages) > MaxMessagesPerRequest {
		return fmt.Errorf("%w: need 1..%d messages, got %d", ErrInvalidRequest, MaxMessagesPerRequest, len(messages))
	}
	for i, m := range messages {
		if m == nil {
			return fmt.Errorf("%w: message %d is nil", ErrInvalidRequest, i)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidRequest, i, err)
		}
	}
	return nil
}
