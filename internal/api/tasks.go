package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

type createTaskRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	Priority        *int    `json:"priority"`
	DurationMinutes *int    `json:"duration_minutes"`
	Location        *string `json:"location"`
	DueDate         *string `json:"due_date"`
	ShoppingMinutes *int    `json:"time_estimate_shopping_minutes"`
}

// patchTaskRequest is the whitelist of fields a PATCH may touch. Absent
// fields stay unset; explicit nulls clear nullable fields.
type patchTaskRequest struct {
	Title           service.Optional[string]           `json:"title"`
	Description     service.Optional[*string]          `json:"description"`
	Priority        service.Optional[int]              `json:"priority"`
	DurationMinutes service.Optional[int]              `json:"duration_minutes"`
	Location        service.Optional[*string]          `json:"location"`
	DueDate         service.Optional[*string]          `json:"due_date"`
	Status          service.Optional[model.TaskStatus] `json:"status"`
	ShoppingMinutes service.Optional[*int]             `json:"time_estimate_shopping_minutes"`
}

type inferLocationRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	due, err := s.parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), service.TaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		DueDate:         due,
		ShoppingMinutes: req.ShoppingMinutes,
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	task, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var req patchTaskRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	patch := service.TaskPatch{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Status:          req.Status,
		ShoppingMinutes: req.ShoppingMinutes,
	}
	if req.DueDate.Set {
		due, err := s.parseDueDate(req.DueDate.Value)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		patch.DueDate = service.Some(due)
	}

	task, err := s.tasks.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInferLocation(w http.ResponseWriter, r *http.Request) {
	var req inferLocationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, s.logger, &service.ValidationError{Problems: []string{"title is required"}})
		return
	}

	suggestions, err := s.locations.InferLocations(r.Context(), req.Title)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if suggestions == nil {
		suggestions = []service.LocationSuggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	due, err := service.ParseDateTime(*raw, s.now(), s.planner.Location())
	if err != nil {
		return nil, &service.ValidationError{Problems: []string{"due_date: " + err.Error()}}
	}
	return &due, nil
}

func taskID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid task id %q", r.PathValue("id"))
	}
	return uint(id), nil
}
