// Package api provides the HTTP and WebSocket server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lumen-labs/signal-backend/internal/config"
	"github.com/lumen-labs/signal-backend/internal/market"
	"github.com/lumen-labs/signal-backend/internal/metrics"
	"github.com/lumen-labs/signal-backend/internal/session"
	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server is the HTTP/WebSocket API server.
type Server struct {
	logger     *zap.Logger
	cfg        config.Config
	router     *mux.Router
	httpServer *http.Server
	registry   *strategy.Registry
	sessions   *session.Store
	provider   market.Provider
	metrics    *metrics.Metrics
}

// NewServer creates a new API server.
func NewServer(
	logger *zap.Logger,
	cfg config.Config,
	registry *strategy.Registry,
	sessions *session.Store,
	provider market.Provider,
	m *metrics.Metrics,
) *Server {
	s := &Server{
		logger:   logger,
		cfg:      cfg,
		router:   mux.NewRouter(),
		registry: registry,
		sessions: sessions,
		provider: provider,
		metrics:  m,
	}
	s.setupRoutes()
	return s
}

// Router exposes the route table, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies", s.handleCreateStrategy).Methods("POST")
	s.router.HandleFunc("/api/v1/strategies", s.handleListStrategies).Methods("GET")
	s.router.HandleFunc("/api/v1/quotes/{symbol}", s.handleGetQuote).Methods("GET")
	s.router.HandleFunc("/ws/{strategyId}", s.handleWebSocket)
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// handleCreateStrategy registers a strategy and seeds its session.
func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var cfg strategy.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id, err := s.registry.Create(cfg)
	if err != nil {
		var verr *strategy.ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.sessions.Create(id, cfg.Symbol)

	s.writeJSON(w, http.StatusOK, map[string]string{
		"strategy_id": id,
		"message":     "Strategy created successfully",
	})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

// handleGetQuote proxies a quote lookup. Provider failures come back as a
// structured error payload rather than a bare 500.
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	quote, err := s.provider.GetQuote(r.Context(), symbol)
	if err != nil {
		s.logger.Error("Quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		s.metrics.ProviderErrors.Inc()
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": fmt.Sprintf("Could not fetch data for %s", symbol),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
