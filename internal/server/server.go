// Package server exposes the recall pipeline over a JSON HTTP API with a
// WebSocket endpoint for live location-driven refreshes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/wayword-go/internal/embedding"
	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/raphaelgruber/wayword-go/internal/service"
)

// Recaller runs one recommendation pass.
type Recaller interface {
	Recall(ctx context.Context, req service.RecallRequest) (models.RecommendationResult, error)
}

// Warmer prepares embedding models for languages.
type Warmer interface {
	PrepareLanguage(ctx context.Context, languageCode string) embedding.Mode
}

// PlaceCounter reports how many places the timeline holds.
type PlaceCounter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the Wayword HTTP server.
type Server struct {
	recaller  Recaller
	warmer    Warmer
	counter   PlaceCounter
	collector *metrics.Collector
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	httpServer *http.Server
}

// New creates a server. counter and collector may be nil; the stats endpoint
// degrades accordingly.
func New(addr string, recaller Recaller, warmer Warmer, counter PlaceCounter, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		recaller:  recaller,
		warmer:    warmer,
		counter:   counter,
		collector: collector,
		logger:    logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			// Local-first deployment, clients connect from the device itself.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // warm-up can pull embedding models
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/recommend", s.handleRecommend)
	mux.HandleFunc("POST /v1/warm", s.handleWarm)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/live", s.handleLive)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return LoggingMiddleware(s.logger)(mux)
}

// ListenAndServe starts the server and blocks until it is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// recommendRequest is the payload for POST /v1/recommend.
type recommendRequest struct {
	Intent   models.IntentProfile `json:"intent"`
	Location *models.LatLng       `json:"location,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	result, err := s.recaller.Recall(r.Context(), service.RecallRequest{
		Intent:   req.Intent,
		Location: req.Location,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// warmRequest is the payload for POST /v1/warm.
type warmRequest struct {
	Languages []string `json:"languages"`
}

// warmResult reports the embedding mode reached per language.
type warmResult struct {
	Modes map[string]string `json:"modes"`
}

func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Languages) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("no languages given"))
		return
	}

	modes := make(map[string]string, len(req.Languages))
	for _, lang := range req.Languages {
		mode := s.warmer.PrepareLanguage(r.Context(), lang)
		modes[lang] = string(mode)
	}
	s.writeJSON(w, http.StatusOK, warmResult{Modes: modes})
}

// statsResponse extends the metrics snapshot with the timeline size.
type statsResponse struct {
	metrics.Snapshot
	PlaceCount int `json:"place_count"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{}
	if s.collector != nil {
		resp.Snapshot = s.collector.Snapshot()
	}
	if s.counter != nil {
		count, err := s.counter.Count(r.Context())
		if err != nil {
			s.logger.Warn("counting places failed", "error", err)
		} else {
			resp.PlaceCount = count
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// liveFix is one location/intent update on the live stream.
type liveFix struct {
	Intent   models.IntentProfile `json:"intent"`
	Location *models.LatLng       `json:"location,omitempty"`
}

// handleLive upgrades to WebSocket and re-runs recall for every fix the
// client sends, pushing the refreshed result back. One request in flight at
// a time per connection; a recall error ends the stream.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var fix liveFix
		if err := conn.ReadJSON(&fix); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.logger.Debug("live stream read ended", "error", err)
			return
		}

		result, err := s.recaller.Recall(r.Context(), service.RecallRequest{
			Intent:   fix.Intent,
			Location: fix.Location,
		})
		if err != nil {
			s.logger.Warn("live recall failed", "error", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "recall failed"))
			return
		}
		if err := conn.WriteJSON(result); err != nil {
			s.logger.Debug("live stream write ended", "error", err)
			return
		}
	}
}

// apiError is the JSON error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, apiError{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response failed", "error", err)
	}
}
