package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shohag/lineapi/internal/flex"
	"github.com/shohag/lineapi/internal/messaging"
	"github.com/shohag/lineapi/internal/models"
)

const maxPayloadSize = 256 * 1024 // 256KB

type MessageHandler struct {
	sender MessageSender
}

func NewMessageHandler(sender MessageSender) *MessageHandler {
	return &MessageHandler{sender: sender}
}

type pushRequest struct {
	To                   string            `json:"to"`
	Text                 string            `json:"text"`
	Messages             []json.RawMessage `json:"messages"`
	NotificationDisabled bool              `json:"notification_disabled"`
	RetryKey             bool              `json:"retry_key"`
}

// Push sends a push message. Unlike replies these are billed.
func (h *MessageHandler) Push(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	var msgs []models.Message
	if req.Text != "" {
		msgs = append(msgs, models.NewTextMessage(req.Text))
	}
	for _, raw := range req.Messages {
		m := models.RawMessage(raw)
		if m.MessageType() == "flex" {
			if err := flex.ValidateJSON(raw); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		writeError(w, http.StatusBadRequest, "text or messages is required")
		return
	}
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var opts []messaging.SendOption
	if req.NotificationDisabled {
		opts = append(opts, messaging.WithNotificationDisabled())
	}
	if req.RetryKey {
		opts = append(opts, messaging.WithNewRetryKey())
	}

	resp, err := h.sender.PushMessage(r.Context(), req.To, msgs, opts...)
	if err != nil {
		var apiErr *messaging.APIError
		switch {
		case errors.Is(err, messaging.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &apiErr):
			writeError(w, http.StatusBadGateway, apiErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Push message sent",
		"request_id":    resp.RequestID,
		"sent_messages": resp.SentMessages,
	})
}

// ValidateFlex checks a flex container or flex message without sending it.
func (h *MessageHandler) ValidateFlex(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := flex.ValidateJSON(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}
