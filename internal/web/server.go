// Package web serves the local board API: project and feature listings,
// drag-and-drop moves, feature generation, and automation triggers.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
	"github.com/ASHUVINAYAK1/project-maker/internal/gateway"
	"github.com/ASHUVINAYAK1/project-maker/internal/orchestrator"
	"github.com/ASHUVINAYAK1/project-maker/internal/prompt"
	"github.com/ASHUVINAYAK1/project-maker/internal/store"
	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// Server handles the board HTTP API.
type Server struct {
	store      *store.FeatureStore
	orch       *orchestrator.Orchestrator
	controller *orchestrator.Controller
	gateway    *gateway.Client
	port       int
}

// NewServer creates a new board API server.
func NewServer(fs *store.FeatureStore, orch *orchestrator.Orchestrator, controller *orchestrator.Controller, gw *gateway.Client, port int) *Server {
	return &Server{
		store:      fs,
		orch:       orch,
		controller: controller,
		gateway:    gw,
		port:       port,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}/features", s.handleListFeatures)
	mux.HandleFunc("POST /api/projects/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/features/{id}/move", s.handleMove)
	mux.HandleFunc("POST /api/features/{id}/run", s.handleRun)
	mux.HandleFunc("GET /api/features/{id}/logs", s.handleLogs)
	mux.Handle("GET /metrics", telemetry.MetricsHandler())

	return mux
}

// Start starts the HTTP server. Bind to localhost for security.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	telemetry.LogInfo("Starting board API", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) int {
	var parseErr *prompt.ParseError
	var gwErr *gateway.GatewayError
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &parseErr), errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"gateway": s.gateway.IsAvailable(r.Context()),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.gateway.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Path        string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := s.store.CreateProject(req.Name, req.Description, req.Path)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.store.ListByProject(r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	features, err := s.orch.GenerateFeatures(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, features)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Order  *int   `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !db.ValidStatus(db.Status(req.Status)) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	if err := s.controller.MoveFeature(r.PathValue("id"), db.Status(req.Status), req.Order); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	feature, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feature)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Guards run synchronously so the caller gets a real status; the run
	// itself is fire-and-forget like a board drop.
	if _, err := s.store.Get(id); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	if s.orch.IsRunning(id) {
		writeError(w, http.StatusConflict, orchestrator.ErrRunInProgress.Error())
		return
	}

	go func() {
		if err := s.orch.RunFeature(context.Background(), id); err != nil {
			telemetry.LogError("Automation run failed", err, "feature", id)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	feature, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"automation_status": feature.AutomationStatus,
		"current_step":      s.orch.CurrentStep(feature.ID),
		"logs":              feature.AutomationLogs,
	})
}
