package api

import (
	"net/http"

	"github.com/shohag/lineapi/internal/storage"
)

type HealthHandler struct {
	store storage.Storage
}

func NewHealthHandler(store storage.Storage) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"message": "LINE webhook service is active",
		"endpoints": map[string]string{
			"webhook": "/webhook",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":           "healthy",
		"service":          "lineapi",
		"webhook_handler":  "ready",
		"messaging_client": "ready",
	}
	if h.store == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		resp["status"] = "unhealthy"
		resp["storage"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	n, err := h.store.CountProcessedEvents(r.Context())
	if err != nil {
		resp["status"] = "unhealthy"
		resp["storage"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["storage"] = "ready"
	resp["processed_events"] = n
	writeJSON(w, http.StatusOK, resp)
}
