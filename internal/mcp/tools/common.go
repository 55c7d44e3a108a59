package tools

import (
	"io"
	"log/slog"
	"time"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

// Handler provides the dependencies needed by tool handlers.
type Handler struct {
	Tasks     *service.TaskService
	Planner   *service.PlannerService
	Locations *service.LocationService
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(tasks *service.TaskService, planner *service.PlannerService, locations *service.LocationService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		Tasks:     tasks,
		Planner:   planner,
		Locations: locations,
		Logger:    logger,
		Now:       time.Now,
	}
}

// TaskSummary is the compact task shape returned by every task tool.
type TaskSummary struct {
	ID                  uint     `json:"id"`
	Title               string   `json:"title"`
	Priority            int      `json:"priority"`
	DurationMinutes     int      `json:"duration_minutes"`
	Status              string   `json:"status"`
	Location            string   `json:"location,omitempty"`
	DueDate             string   `json:"due_date,omitempty"`
	TimeEstimateMinutes *int     `json:"time_estimate_minutes,omitempty"`
	EstimateSummary     string   `json:"estimate_summary,omitempty"`
	Suggestions         []string `json:"location_suggestions,omitempty"`
}

// BlockSummary is one scheduled slot of a plan.
type BlockSummary struct {
	TaskID   uint   `json:"task_id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
}

// PlanOutput is returned by generate_plan and get_plan.
type PlanOutput struct {
	Date      string         `json:"date"`
	Blocks    []BlockSummary `json:"blocks"`
	Reminders int            `json:"reminders"`
	Home      string         `json:"home,omitempty"`
}

func (h *Handler) summarize(t model.Task) TaskSummary {
	s := TaskSummary{
		ID:                  t.ID,
		Title:               t.Title,
		Priority:            t.Priority,
		DurationMinutes:     t.DurationMinutes,
		Status:              string(t.Status),
		TimeEstimateMinutes: t.TimeEstimateMinutes,
	}
	if t.Location != nil {
		s.Location = *t.Location
	}
	if t.DueDate != nil {
		s.DueDate = t.DueDate.In(h.Planner.Location()).Format(time.RFC3339)
	}
	if t.TimeEstimateMeta != nil {
		s.EstimateSummary = t.TimeEstimateMeta.Summary
	}
	for _, sg := range t.LocationSuggestions {
		s.Suggestions = append(s.Suggestions, sg.Label)
	}
	return s
}

func (h *Handler) planOutput(plan *service.Plan) PlanOutput {
	loc := h.Planner.Location()
	out := PlanOutput{
		Date:      plan.Date.Format(time.DateOnly),
		Blocks:    make([]BlockSummary, 0, len(plan.Blocks)),
		Reminders: len(plan.Reminders),
	}
	for _, b := range plan.Blocks {
		bs := BlockSummary{
			TaskID: b.TaskID,
			Start:  b.StartTime.In(loc).Format(time.RFC3339),
			End:    b.EndTime.In(loc).Format(time.RFC3339),
		}
		if task, ok := plan.Tasks[b.TaskID]; ok {
			bs.Title = task.Title
		}
		if b.Location != nil {
			bs.Location = *b.Location
		}
		out.Blocks = append(out.Blocks, bs)
	}
	if plan.Home != nil {
		out.Home = plan.Home.HomeAddress()
	}
	return out
}
