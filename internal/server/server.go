// Package server is the web chat surface: a chi HTTP server exposing the
// session API, the websocket chat, the document registry, and the embedded
// single-page UI.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/graphrag"
	"github.com/paletten-gigant/graphrag-chat/internal/registry"
)

// healthProbeTimeout bounds the backend probe during /healthz.
const healthProbeTimeout = 2 * time.Second

// Server hosts the chat API and UI. Each connected client gets its own
// Session; only the document registry is shared, read-only.
type Server struct {
	cfg      *config.Config
	client   *graphrag.Client
	registry *registry.Registry
	store    *chat.Store // nil disables persistence

	router     chi.Router
	httpServer *http.Server

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

// New creates a server with all dependencies. The store may be nil.
func New(cfg *config.Config, client *graphrag.Client, reg *registry.Registry, store *chat.Store) *Server {
	s := &Server{
		cfg:      cfg,
		client:   client,
		registry: reg,
		store:    store,
		sessions: make(map[string]*chat.Session),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.Server.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.serveIndex)
	r.Get("/ws/chat", s.handleWebSocket)

	s.registerAPIRoutes(r)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// handleHealth reports the server's own liveness plus backend reachability.
// The interface stays up when the backend is down; submissions then produce
// failed turns.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	backend := "ok"
	if err := s.client.Health(ctx); err != nil {
		backend = "unreachable"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"backend": backend,
	})
}

// session returns the session with the given id, if it exists.
func (s *Server) session(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// newSession creates and registers a fresh session with the configured
// default settings.
func (s *Server) newSession(ctx context.Context) *chat.Session {
	var recorder chat.Recorder
	if s.store != nil {
		recorder = s.store
	}
	sess := chat.NewSession(s.client, s.registry, recorder, chat.SettingsFromConfig(s.cfg))

	if s.store != nil {
		if err := s.store.CreateSession(ctx, sess, ""); err != nil {
			log.Printf("server: persisting session %s: %v", sess.ID, err)
		}
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("server: %s listening on %s (backend=%s, documents=%d)",
		s.cfg.AppTitle, addr, s.client.BaseURL(), s.registry.Len())
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
