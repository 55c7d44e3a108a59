package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/model"
	"day-planner/internal/repository"
)

const (
	reminderLead     = 10 * time.Minute
	reminderLookback = 2 * time.Hour
)

// Plan is the schedule for one calendar date.
type Plan struct {
	Date      time.Time
	Blocks    []model.PlanBlock
	Reminders []model.Reminder
	Home      *model.Location
	// Tasks indexes the tasks referenced by Blocks.
	Tasks map[uint]model.Task
}

// PlanPublisher mirrors a freshly generated plan somewhere else.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, plan *Plan) error
}

// PlannerService builds and reads day plans.
type PlannerService struct {
	store     *repository.Store
	locations *LocationService
	publisher PlanPublisher
	cfg       *config.Config
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewPlannerService(store *repository.Store, locations *LocationService, cfg *config.Config, logger *slog.Logger) (*PlannerService, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &PlannerService{
		store:     store,
		locations: locations,
		cfg:       cfg,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// SetPublisher registers an optional mirror for generated plans.
func (s *PlannerService) SetPublisher(p PlanPublisher) {
	s.publisher = p
}

// Location is the time zone day boundaries are computed in.
func (s *PlannerService) Location() *time.Location {
	return s.loc
}

// Today is midnight of the current day.
func (s *PlannerService) Today() time.Time {
	return midnight(s.now().In(s.loc), s.loc)
}

// ParseDate resolves a user-supplied plan date relative to now.
func (s *PlannerService) ParseDate(raw string) (time.Time, error) {
	return ParseDate(raw, s.now(), s.loc)
}

// DayBounds returns the working window of the calendar date of day.
func (s *PlannerService) DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, s.cfg.PlannerStartHour, 0, 0, 0, s.loc)
	end := time.Date(y, m, d, s.cfg.PlannerEndHour, 0, 0, 0, s.loc)
	return start, end
}

// GeneratePlan replaces the plan for day with a greedy single pass over the
// backlog: tasks are placed back to back from the window start in priority
// order, and the first task that would overrun the window ends the pass.
// The replacement is committed atomically.
func (s *PlannerService) GeneratePlan(ctx context.Context, day time.Time) (*Plan, error) {
	start, end := s.DayBounds(day)
	plan := &Plan{
		Date:      midnight(start, s.loc),
		Blocks:    []model.PlanBlock{},
		Reminders: []model.Reminder{},
		Tasks:     make(map[uint]model.Task),
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Plans.DeleteBlocksBetween(ctx, start, end); err != nil {
			return err
		}
		if err := tx.Plans.DeleteRemindersBetween(ctx, start.Add(-reminderLookback), end); err != nil {
			return err
		}

		tasks, err := tx.Tasks.ListBacklog(ctx)
		if err != nil {
			return err
		}

		cursor := start
		for _, task := range tasks {
			blockEnd := cursor.Add(time.Duration(task.DurationMinutes) * time.Minute)
			if blockEnd.After(end) {
				break
			}

			block := model.PlanBlock{
				TaskID:    task.ID,
				StartTime: cursor,
				EndTime:   blockEnd,
				Location:  task.Location,
			}
			if err := tx.Plans.CreateBlock(ctx, &block); err != nil {
				return err
			}

			reminderType := model.ReminderTypeTime
			if task.HasLocation() {
				reminderType = model.ReminderTypeLocation
			}
			reminder := model.Reminder{
				TaskID:       task.ID,
				TriggerTime:  cursor.Add(-reminderLead),
				ReminderType: reminderType,
				LocationHint: task.Location,
			}
			if err := tx.Plans.CreateReminder(ctx, &reminder); err != nil {
				return err
			}

			if err := tx.Tasks.UpdateStatus(ctx, task.ID, model.TaskStatusScheduled); err != nil {
				return err
			}
			task.Status = model.TaskStatusScheduled

			plan.Blocks = append(plan.Blocks, block)
			plan.Reminders = append(plan.Reminders, reminder)
			plan.Tasks[task.ID] = task
			cursor = blockEnd
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	home, err := s.locations.EnsureHome(ctx)
	if err != nil {
		return nil, err
	}
	plan.Home = home

	s.logger.Info("plan generated", "date", plan.Date.Format("2006-01-02"), "blocks", len(plan.Blocks))

	if s.publisher != nil {
		if err := s.publisher.PublishPlan(ctx, plan); err != nil {
			s.logger.Warn("publish plan failed", "date", plan.Date.Format("2006-01-02"), "error", err)
		}
	}
	return plan, nil
}

// GetPlanForDate returns the blocks starting on the calendar date of day.
func (s *PlannerService) GetPlanForDate(ctx context.Context, day time.Time) ([]model.PlanBlock, error) {
	from := midnight(day, s.loc)
	return s.store.Plans.BlocksStartingIn(ctx, from, from.AddDate(0, 0, 1))
}

// RemindersForDate returns reminders from two hours before the window opens
// through the window end.
func (s *PlannerService) RemindersForDate(ctx context.Context, day time.Time) ([]model.Reminder, error) {
	start, end := s.DayBounds(day)
	return s.store.Plans.RemindersBetween(ctx, start.Add(-reminderLookback), end)
}

// TodayReminders is RemindersForDate for the current day.
func (s *PlannerService) TodayReminders(ctx context.Context) ([]model.Reminder, error) {
	return s.RemindersForDate(ctx, s.Today())
}

// GetPlan reads the stored plan for day. ErrNotFound means neither blocks
// nor reminders exist for it.
func (s *PlannerService) GetPlan(ctx context.Context, day time.Time) (*Plan, error) {
	blocks, err := s.GetPlanForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	reminders, err := s.RemindersForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 && len(reminders) == 0 {
		return nil, ErrNotFound
	}

	plan := &Plan{
		Date:      midnight(day, s.loc),
		Blocks:    blocks,
		Reminders: reminders,
		Tasks:     make(map[uint]model.Task),
	}
	ids := make([]uint, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.TaskID)
	}
	tasks, err := s.store.Tasks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		plan.Tasks[t.ID] = t
	}
	return plan, nil
}
