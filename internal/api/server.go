// Package api exposes the planner over JSON/HTTP.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/service"
)

// Server holds the services the HTTP handlers call into.
type Server struct {
	tasks     *service.TaskService
	planner   *service.PlannerService
	locations *service.LocationService
	cfg       *config.Config
	nlp       bool
	mcp       http.Handler
	now       func() time.Time
	logger    *slog.Logger
}

// Options carries the optional parts of the HTTP surface.
type Options struct {
	// NLPEnabled reports whether an entity extractor was configured.
	NLPEnabled bool
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

func NewServer(tasks *service.TaskService, planner *service.PlannerService, locations *service.LocationService, cfg *config.Config, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		tasks:     tasks,
		planner:   planner,
		locations: locations,
		cfg:       cfg,
		nlp:       opts.NLPEnabled,
		mcp:       opts.MCP,
		now:       time.Now,
		logger:    logger,
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /config", s.handleConfig)

	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("POST /tasks/infer-location", s.handleInferLocation)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("POST /plan/generate", s.handleGeneratePlan)
	mux.HandleFunc("GET /plan/{date}", s.handleGetPlan)
	mux.HandleFunc("GET /plan/{date}/ics", s.handlePlanICS)
	mux.HandleFunc("GET /reminders/today", s.handleTodayReminders)

	mux.HandleFunc("GET /locations/home", s.handleGetHome)
	mux.HandleFunc("PUT /locations/home", s.handlePutHome)

	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}

	return withRequestLog(s.logger, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC(),
	})
}

type configResponse struct {
	MapsEnabled bool `json:"maps_enabled"`
	NLPEnabled  bool `json:"nlp_enabled"`
	StartHour   int  `json:"start_hour"`
	EndHour     int  `json:"end_hour"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		MapsEnabled: s.cfg.MapsEnabled(),
		NLPEnabled:  s.nlp,
		StartHour:   s.cfg.PlannerStartHour,
		EndHour:     s.cfg.PlannerEndHour,
	})
}
