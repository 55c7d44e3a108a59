package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"day-planner/internal/calendar"
	"day-planner/internal/model"
	"day-planner/internal/service"
)

type generatePlanRequest struct {
	Date string `json:"date"`
}

type planResponse struct {
	Date      string            `json:"date"`
	Blocks    []model.PlanBlock `json:"blocks"`
	Reminders []model.Reminder  `json:"reminders"`
	Home      *model.Location   `json:"home,omitempty"`
}

type homeRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

func newPlanResponse(plan *service.Plan) planResponse {
	resp := planResponse{
		Date:      plan.Date.Format(time.DateOnly),
		Blocks:    plan.Blocks,
		Reminders: plan.Reminders,
		Home:      plan.Home,
	}
	if resp.Blocks == nil {
		resp.Blocks = []model.PlanBlock{}
	}
	if resp.Reminders == nil {
		resp.Reminders = []model.Reminder{}
	}
	return resp
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	day, err := s.planDate(req.Date)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	plan, err := s.planner.GeneratePlan(r.Context(), day)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.loadPlan(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

func (s *Server) handlePlanICS(w http.ResponseWriter, r *http.Request) {
	plan, err := s.loadPlan(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := calendar.EncodePlan(&buf, plan, s.now()); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"plan-%s.ics\"", plan.Date.Format(time.DateOnly)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTodayReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.planner.TodayReminders(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleGetHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.locations.EnsureHome(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (s *Server) handlePutHome(w http.ResponseWriter, r *http.Request) {
	var req homeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	home, err := s.locations.SaveHome(r.Context(), strings.TrimSpace(req.Name), req.Address)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (s *Server) loadPlan(r *http.Request) (*service.Plan, error) {
	day, err := s.planDate(r.PathValue("date"))
	if err != nil {
		return nil, err
	}
	return s.planner.GetPlan(r.Context(), day)
}

func (s *Server) planDate(raw string) (time.Time, error) {
	day, err := service.ParseDate(raw, s.now(), s.planner.Location())
	if err != nil {
		return time.Time{}, &service.ValidationError{Problems: []string{"date: " + err.Error()}}
	}
	return day, nil
}
