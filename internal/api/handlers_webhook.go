package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/shohag/lineapi/internal/signing"
	"github.com/shohag/lineapi/internal/webhook"
)

const maxWebhookBody = 1 << 20 // 1MB

type WebhookHandler struct {
	webhook WebhookProcessor
}

func NewWebhookHandler(wh WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{webhook: wh}
}

// Receive verifies the raw body before anything decodes it; the signature
// covers the exact bytes LINE sent.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	resp, err := h.webhook.HandleWebhook(r.Context(), body, r.Header.Get(signing.HeaderName))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, webhook.ErrMissingSignature):
		writeError(w, http.StatusBadRequest, "Missing signature header")
	case errors.Is(err, webhook.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, webhook.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
