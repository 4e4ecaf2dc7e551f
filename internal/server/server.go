// Package server exposes the UI-facing HTTP surface: question routes,
// session and task reads, and a websocket stream of engine events.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mabouzeid04/workflow-daddy/internal/config"
	"github.com/mabouzeid04/workflow-daddy/internal/pipeline"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// Server wires the HTTP surface over the live engine and its stores.
type Server struct {
	cfg        config.ServerConfig
	engine     *pipeline.Engine
	sessions   *session.Store
	tasks      *task.Store
	summaries  *summarize.Store
	hub        *Hub
	router     chi.Router
	httpServer *http.Server
}

// New builds the server. The engine may be nil for read-only serving of
// a past session's data.
func New(cfg config.ServerConfig, engine *pipeline.Engine, sessions *session.Store, tasks *task.Store, questions *question.Store, summaries *summarize.Store) *Server {
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		sessions:  sessions,
		tasks:     tasks,
		summaries: summaries,
		hub:       NewHub(),
	}
	s.router = s.buildRouter(questions)
	return s
}

func (s *Server) buildRouter(questions *question.Store) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	question.RegisterRoutes(r, questions)

	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Get("/api/sessions/{id}/tasks", s.handleListTasks)
	r.Get("/api/summaries", s.handleListSummaries)
	r.Post("/api/indication", s.handleIndication)
	r.Get("/api/events", s.hub.HandleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start listens on the configured port and pumps engine events to
// websocket subscribers until the engine's event channel closes.
func (s *Server) Start() error {
	if s.engine != nil {
		go s.hub.Pump(s.engine.Events())
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("workflowd server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

type sessionResponse struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	EndedAt    *time.Time   `json:"ended_at,omitempty"`
	TaskTheory string       `json:"task_theory,omitempty"`
	Tasks      []*task.Task `json:"tasks"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.sessions.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	tasks, err := s.tasks.ListBySession(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	resp := sessionResponse{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt,
		TaskTheory: rec.TaskTheory,
		Tasks:      tasks,
	}
	if !rec.EndedAt.IsZero() {
		resp.EndedAt = &rec.EndedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tasks, err := s.tasks.ListBySession(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	summaries, err := s.summaries.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []summarize.SessionSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

type indicationRequest struct {
	Explanation string `json:"explanation"`
}

// handleIndication forwards an explicit new-task statement from an
// answered clarification into the engine.
func (s *Server) handleIndication(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		http.Error(w, `{"error":"no active session"}`, http.StatusConflict)
		return
	}
	var req indicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Explanation == "" {
		http.Error(w, `{"error":"explanation is required"}`, http.StatusBadRequest)
		return
	}

	s.engine.UserIndication(req.Explanation)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
