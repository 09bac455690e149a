// Package api serves the solver over HTTP: synchronous and queued solves,
// progress streaming, webhook subscriptions, health and metrics.
package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"routesmith/internal/auth"
	"routesmith/internal/config"
	"routesmith/internal/routing"
	"routesmith/internal/store"
	"routesmith/internal/webhooks"
)

type Server struct {
	Cfg      config.Config
	Store    store.Store
	Pub      *webhooks.Publisher
	Auth     *auth.Verifier
	Broker   EventBroker
	Provider routing.MatrixProvider

	limiters *clientLimiters
}

// NewServer wires the service from configuration: store by DATABASE_URL,
// broker by REDIS_URL, matrix provider by OSRM/ORS endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Printf("redis broker unavailable, falling back to memory: %v", err)
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	var provider routing.MatrixProvider
	switch {
	case cfg.OSRMURL != "":
		provider = routing.NewOSRM(cfg.OSRMURL)
	case cfg.ORSURL != "":
		provider = routing.NewORS(cfg.ORSURL, cfg.ORSKey)
	}

	return &Server{
		Cfg:      cfg,
		Store:    s,
		Pub:      webhooks.NewPublisher(s),
		Auth:     auth.NewVerifier(cfg.AuthToken),
		Broker:   broker,
		Provider: provider,
		limiters: newClientLimiters(cfg.RateLimit, cfg.Burst),
	}, nil
}

// Routes builds the service mux with all middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/solve", s.SolveHandler)
	mux.HandleFunc("/v1/solves", s.SolvesHandler)
	mux.HandleFunc("/v1/solves/", s.SolveByIDHandler)

	mux.HandleFunc("/v1/subscriptions", s.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", s.SubscriptionByIDHandler)

	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/version", s.VersionHandler)
	mux.Handle("/metrics", s.MetricsHandler())

	return s.logMiddleware(s.rateLimitMiddleware(s.authMiddleware(mux)))
}

// NewWebhookWorker creates the background webhook delivery worker.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}

// NewSolveWorker creates the background worker that drains queued solves.
func (s *Server) NewSolveWorker() *SolveWorker {
	return NewSolveWorker(s)
}
