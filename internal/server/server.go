// Package server provides the HTTP API over the engine: ingestion, recent
// activity reads, simulation, and the live websocket stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/config"
	"github.com/invisible-tech/streamwatch/internal/engine"
	"github.com/invisible-tech/streamwatch/internal/simulate"
	"github.com/invisible-tech/streamwatch/internal/types"
	"github.com/invisible-tech/streamwatch/internal/version"
)

// Server exposes the engine over HTTP. It keeps bounded buffers of recent
// events and anomalies fed through engine subscriptions; display retention
// belongs to this consumer, not to the engine.
type Server struct {
	cfg    config.ServerConfig
	engine *engine.Engine
	log    *logrus.Logger

	mu              sync.RWMutex
	recentEvents    []types.Event
	recentAnomalies []types.Anomaly

	unsubscribes []func()
	httpServer   *http.Server
}

// New creates the HTTP server, registers routes, and subscribes the recent
// buffers to the engine.
func New(cfg config.ServerConfig, eng *engine.Engine, log *logrus.Logger) *Server {
	s := &Server{cfg: cfg, engine: eng, log: log}
	s.unsubscribes = append(s.unsubscribes,
		eng.SubscribeEvents(s.bufferEvent),
		eng.SubscribeAnomalies(s.bufferAnomaly),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", s.handleIngest)
		r.Get("/events/recent", s.handleRecentEvents)
		r.Get("/anomalies", s.handleAnomalies)
		r.Get("/metrics", s.handleMetrics)
		r.Post("/simulate/{scenario}", s.handleSimulate)
		r.Get("/stream", s.handleStream)
	})

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the route tree, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server. It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.cfg.HTTPAddr).Info("Engine API listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and detaches from the engine.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) bufferEvent(ev types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentEvents = append(s.recentEvents, ev)
	if len(s.recentEvents) > s.cfg.RecentEventCount {
		s.recentEvents = s.recentEvents[len(s.recentEvents)-s.cfg.RecentEventCount:]
	}
}

func (s *Server) bufferAnomaly(a types.Anomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentAnomalies = append(s.recentAnomalies, a)
	if len(s.recentAnomalies) > s.cfg.RecentAnomalyCount {
		s.recentAnomalies = s.recentAnomalies[len(s.recentAnomalies)-s.cfg.RecentAnomalyCount:]
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version.Version,
	})
}

// ingestResponse is returned by the synchronous ingest endpoint.
type ingestResponse struct {
	Anomaly *types.Anomaly        `json:"anomaly,omitempty"`
	Metrics types.MetricsSnapshot `json:"metrics"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var ev types.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	snapshot, anomaly, err := s.engine.Ingest(ev)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Ingestion failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ingestResponse{Anomaly: anomaly, Metrics: snapshot})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]types.Event, len(s.recentEvents))
	copy(out, s.recentEvents)
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]types.Anomaly, len(s.recentAnomalies))
	copy(out, s.recentAnomalies)
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Metrics())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	scenario := chi.URLParam(r, "scenario")
	if err := simulate.Run(s.engine, scenario); err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.WithField("scenario", scenario).Info("Simulation scenario injected")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "injected", "scenario": scenario})
}
