package server

import (
	"net/http"

	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/export"
	"ai-workout-coach/internal/metrics"
	"ai-workout-coach/internal/workout"

	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo      *workout.Repository
	engine    *engine.Engine
	metrics   *metrics.Store
	calendars *export.CalendarStore
	jwtSecret string
	router    chi.Router
}

// New creates a new Server with all routes configured. The metrics store may
// be nil; token accounting is then skipped.
func New(repo *workout.Repository, eng *engine.Engine, store *metrics.Store, calendars *export.CalendarStore, jwtSecret string) *Server {
	s := &Server{
		repo:      repo,
		engine:    eng,
		metrics:   store,
		calendars: calendars,
		jwtSecret: jwtSecret,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging())

	s.router.Post("/api/auth/login", s.handleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(JWTAuth(s.jwtSecret))

		r.Post("/api/profile", s.handleSaveProfile)
		r.Get("/api/profile/{userID}", s.handleGetProfile)

		r.Post("/api/plans/generate", s.handleGeneratePlan)
		r.Get("/api/plans/{planID}", s.handleGetPlan)
		r.Get("/api/plans/user/{userID}/current", s.handleCurrentPlan)

		r.Post("/api/logs", s.handleSaveLog)
		r.Get("/api/logs/user/{userID}/week/{week}", s.handleWeekLogs)

		r.Post("/api/feedback", s.handleFeedback)
		r.Post("/api/adapt/{userID}/week/{week}", s.handleAdapt)

		r.Get("/api/export/calendar/{planID}", s.handleExportCalendar)
	})
}
