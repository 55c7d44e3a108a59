package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"day-planner/internal/config"
	"day-planner/internal/model"
	"day-planner/internal/repository"
)

const (
	maxTitleLength     = 120
	minPriority        = 1
	maxPriority        = 5
	defaultPriority    = 3
	minDurationMinutes = 15
	maxDurationMinutes = 240
)

// TaskInput represents data required to create a task. Nil fields take
// their defaults.
type TaskInput struct {
	Title           string
	Description     *string
	Priority        *int
	DurationMinutes *int
	Location        *string
	DueDate         *time.Time
	ShoppingMinutes *int
}

// TaskPatch lists the editable fields of a task. Only fields with Set are
// applied.
type TaskPatch struct {
	Title           Optional[string]
	Description     Optional[*string]
	Priority        Optional[int]
	DurationMinutes Optional[int]
	Location        Optional[*string]
	DueDate         Optional[*time.Time]
	Status          Optional[model.TaskStatus]
	ShoppingMinutes Optional[*int]
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store     *repository.Store
	locations *LocationService
	estimates *EstimateService
	cfg       *config.Config
	logger    *slog.Logger
}

func NewTaskService(store *repository.Store, locations *LocationService, estimates *EstimateService, cfg *config.Config, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TaskService{store: store, locations: locations, estimates: estimates, cfg: cfg, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, input TaskInput) (*model.Task, error) {
	var p problems
	title := strings.TrimSpace(input.Title)
	checkTitle(&p, title)

	priority := defaultPriority
	if input.Priority != nil {
		priority = *input.Priority
		checkPriority(&p, priority)
	}
	duration := s.cfg.DefaultBlockMinutes
	if input.DurationMinutes != nil {
		duration = *input.DurationMinutes
		checkDuration(&p, duration)
	}
	checkShopping(&p, input.ShoppingMinutes)
	if err := p.err(); err != nil {
		return nil, err
	}

	task := model.Task{
		Title:                       title,
		Description:                 blankToNil(input.Description),
		Priority:                    priority,
		DurationMinutes:             duration,
		Location:                    blankToNil(input.Location),
		DueDate:                     input.DueDate,
		Status:                      model.TaskStatusPending,
		TimeEstimateShoppingMinutes: input.ShoppingMinutes,
	}
	if err := s.store.Tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "priority", task.Priority)

	if err := s.locations.RefreshTaskLocationSuggestions(ctx, &task); err != nil {
		return nil, err
	}
	if err := s.annotate(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns every task, highest priority first, with time estimates.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.Tasks.ListByPriority(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.estimates.PopulateTimeEstimate(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.annotate(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update validates every supplied field before touching the task, then
// applies them. A supplied title regenerates the location suggestions.
func (s *TaskService) Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error) {
	var p problems
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		checkTitle(&p, patch.Title.Value)
	}
	if patch.Priority.Set {
		checkPriority(&p, patch.Priority.Value)
	}
	if patch.DurationMinutes.Set {
		checkDuration(&p, patch.DurationMinutes.Value)
	}
	if patch.Status.Set && !model.IsValidTaskStatus(string(patch.Status.Value)) {
		p.addf("status must be one of %v", model.ValidTaskStatuses)
	}
	if patch.ShoppingMinutes.Set {
		checkShopping(&p, patch.ShoppingMinutes.Value)
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	task, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if patch.Title.Set {
		task.Title = patch.Title.Value
	}
	if patch.Description.Set {
		task.Description = blankToNil(patch.Description.Value)
	}
	if patch.Priority.Set {
		task.Priority = patch.Priority.Value
	}
	if patch.DurationMinutes.Set {
		task.DurationMinutes = patch.DurationMinutes.Value
	}
	if patch.Location.Set {
		task.Location = blankToNil(patch.Location.Value)
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}
	if patch.Status.Set {
		task.Status = patch.Status.Value
	}
	if patch.ShoppingMinutes.Set {
		task.TimeEstimateShoppingMinutes = patch.ShoppingMinutes.Value
	}

	if err := s.store.Tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	if patch.Title.Set {
		if err := s.locations.RefreshTaskLocationSuggestions(ctx, task); err != nil {
			return nil, err
		}
	}
	if err := s.annotate(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task together with its blocks, reminders and
// suggestions.
func (s *TaskService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Plans.DeleteForTask(ctx, id); err != nil {
			return err
		}
		if err := tx.Suggestions.DeleteForTask(ctx, id); err != nil {
			return err
		}
		existed, err := tx.Tasks.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !existed {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// SetStatus moves a task to a new lifecycle status.
func (s *TaskService) SetStatus(ctx context.Context, id uint, status model.TaskStatus) (*model.Task, error) {
	return s.Update(ctx, id, TaskPatch{Status: Some(status)})
}

// Seed inserts the sample tasks into an empty store and reports how many
// were added.
func (s *TaskService) Seed(ctx context.Context, now time.Time) (int, error) {
	n, err := s.store.Tasks.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, input := range SampleTasks(now) {
		if _, err := s.Create(ctx, input); err != nil {
			return i, err
		}
	}
	return len(SampleTasks(now)), nil
}

// SampleTasks is the demo backlog, due two, four and six hours after now.
func SampleTasks(now time.Time) []TaskInput {
	sample := []struct {
		title, description, location string
		priority, duration           int
	}{
		{"Review project backlog", "Sort tasks into priority buckets.", "Home Office", 5, 60},
		{"Groceries pickup", "Trader Joe's order curbside", "Trader Joe's - Elm St.", 3, 45},
		{"Gym session", "Leg day + stretch", "Anytime Fitness", 2, 90},
	}
	out := make([]TaskInput, 0, len(sample))
	for i, smp := range sample {
		due := now.Add(time.Duration(i*2+2) * time.Hour)
		out = append(out, TaskInput{
			Title:           smp.title,
			Description:     &smp.description,
			Priority:        &smp.priority,
			DurationMinutes: &smp.duration,
			Location:        &smp.location,
			DueDate:         &due,
		})
	}
	return out
}

func (s *TaskService) annotate(ctx context.Context, task *model.Task) error {
	one := []model.Task{*task}
	if err := s.estimates.PopulateTimeEstimate(ctx, one); err != nil {
		return err
	}
	*task = one[0]
	return nil
}

// IsNotFound reports whether err means the task or plan does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func checkTitle(p *problems, title string) {
	switch {
	case title == "":
		p.addf("title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		p.addf("title must be at most %d characters", maxTitleLength)
	}
}

func checkPriority(p *problems, priority int) {
	if priority < minPriority || priority > maxPriority {
		p.addf("priority must be between %d and %d", minPriority, maxPriority)
	}
}

func checkDuration(p *problems, minutes int) {
	if minutes < minDurationMinutes || minutes > maxDurationMinutes {
		p.addf("duration_minutes must be between %d and %d", minDurationMinutes, maxDurationMinutes)
	}
}

func checkShopping(p *problems, minutes *int) {
	if minutes != nil && *minutes < 0 {
		p.addf("time_estimate_shopping_minutes must not be negative")
	}
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
