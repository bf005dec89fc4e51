package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shohag/lineapi/internal/config"
	"github.com/shohag/lineapi/internal/messaging"
	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/storage"
	"github.com/shohag/lineapi/internal/webhook"
)

// WebhookProcessor is satisfied by *webhook.Handler.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) (*webhook.Response, error)
}

// MessageSender is satisfied by *messaging.Client.
type MessageSender interface {
	PushMessage(ctx context.Context, to string, messages []models.Message, opts ...messaging.SendOption) (*messaging.SendResponse, error)
}

type Server struct {
	cfg     config.ServerConfig
	webhook WebhookProcessor
	sender  MessageSender
	store   storage.Storage
	router  *chi.Mux
	log     zerolog.Logger
	http    *http.Server
}

// NewServer wires the routes. store may be nil when no ledger is configured.
func NewServer(cfg config.ServerConfig, wh WebhookProcessor, sender MessageSender, store storage.Storage, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		webhook: wh,
		sender:  sender,
		store:   store,
		log:     log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	whHandler := NewWebhookHandler(s.webhook)
	msgHandler := NewMessageHandler(s.sender)
	healthHandler := NewHealthHandler(s.store)

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// LINE authenticates itself with the request signature.
	r.Post("/webhook", whHandler.Receive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AdminToken))

		r.Post("/push", msgHandler.Push)
		r.Post("/flex/validate", msgHandler.ValidateFlex)
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
