package server

import (
	"context"
	"net/http"

	"life_tracker/internal/auth"
	"life_tracker/internal/entries"
	"life_tracker/src/model"
	"life_tracker/src/workout"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ContextStore is what the HTTP layer reads from the context store
type ContextStore interface {
	GetContext(ctx context.Context, userID string) (*model.ContextRecord, error)
	Ping(ctx context.Context) error
}

// Interpreter turns a chat message into an intent. It never fails.
type Interpreter interface {
	Interpret(ctx context.Context, message string, rec *model.ContextRecord, overlay map[string]any) model.Intent
}

// EntryStore persists tracked entries and lists recent ones
type EntryStore interface {
	entries.Persister
	entries.History
}

// Deps are the collaborators the handlers need
type Deps struct {
	Store       ContextStore
	Workout     *workout.Machine
	Interpreter Interpreter
	Entries     EntryStore
	Auth        auth.Authenticator
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	deps   Deps
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging)
	s.router.Use(chimw.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/chat", func(r chi.Router) {
		r.Use(BearerAuth(s.deps.Auth))
		r.Post("/", s.handleChat)
		r.Get("/context", s.handleGetContext)
		r.Get("/history", s.handleHistory)

		r.Route("/workout", func(r chi.Router) {
			r.Post("/start", s.handleStartWorkout)
			r.Post("/end", s.handleEndWorkout)
			r.Post("/set", s.handleRecordSet)
			r.Post("/next", s.handleNextExercise)
			r.Get("/current", s.handleCurrentExercise)
		})
	})
}
