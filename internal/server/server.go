package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"harp/internal/archive"
	"harp/internal/core"
	"harp/internal/llm"
	"harp/internal/project"
	"harp/pkg/schema"
)

// HealthProber reports which backend tier currently answers a probe.
type HealthProber interface {
	Health(ctx context.Context) (string, llm.Tier, error)
}

// Server exposes the websocket event channel and the small HTTP surface
// around it.
type Server struct {
	cfg      *core.Config
	log      core.Logger
	hub      *Hub
	orch     *core.Orchestrator
	state    *core.StateStore
	wisdom   *archive.Archive
	projects *project.Store
	health   HealthProber
	upgrader websocket.Upgrader
}

// New wires a Server. health may be nil when no API key is configured; the
// health route then reports unhealthy without probing.
func New(
	cfg *core.Config,
	log core.Logger,
	hub *Hub,
	orch *core.Orchestrator,
	state *core.StateStore,
	wisdom *archive.Archive,
	projects *project.Store,
	health HealthProber,
) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		hub:      hub,
		orch:     orch,
		state:    state,
		wisdom:   wisdom,
		projects: projects,
		health:   health,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Mirrors the permissive CORS posture of the event channel.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routing surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html><html><head><title>HARP</title></head>"+
		"<body><h1>The living interface</h1><p>Connect on /ws.</p></body></html>")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.health == nil {
		writeJSON(w, map[string]any{
			"status":     "unhealthy",
			"gemini_api": "unavailable",
			"error":      "GOOGLE_API_KEY not set",
			"timestamp":  time.Now().Format(time.RFC3339),
		})
		return
	}

	model, _, err := s.health.Health(r.Context())
	if err != nil {
		writeJSON(w, map[string]any{
			"status":     "unhealthy",
			"gemini_api": "unavailable",
			"error":      err.Error(),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, map[string]any{
		"status":        "healthy",
		"gemini_api":    "available",
		"primary_model": model,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"models": []string{
			s.cfg.PrimaryModel,
			s.cfg.FallbackModel,
			s.cfg.ClassifierModel,
			s.cfg.ImageModel,
		},
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	sessionID, err := schema.NewSessionID()
	if err != nil {
		s.log.Error("session id generation failed", "error", err.Error())
		conn.Close()
		return
	}

	c := &client{
		hub:       s.hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		log:       s.log,
		dispatch:  s.dispatch,
	}
	s.hub.register(c)
	s.log.Info("session connected", "session", sessionID)

	go c.writePump()
	s.handleConnect(sessionID)
	c.readPump()
	s.log.Info("session disconnected", "session", sessionID)
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
