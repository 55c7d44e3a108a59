package service

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"day-planner/internal/model"
	"day-planner/internal/repository"
)

// ReminderNotice is a reminder ready for delivery.
type ReminderNotice struct {
	Reminder  model.Reminder
	TaskTitle string
	// BlockStart is when the reminded task begins.
	BlockStart time.Time
}

// Notifier delivers reminders to a person.
type Notifier interface {
	Notify(ctx context.Context, notice ReminderNotice) error
}

// ReminderService delivers due reminders and builds human-readable plan
// summaries for notifications.
type ReminderService struct {
	store     *repository.Store
	notifiers []Notifier
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewReminderService(store *repository.Store, loc *time.Location, logger *slog.Logger, notifiers ...Notifier) *ReminderService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{store: store, notifiers: notifiers, loc: loc, now: time.Now, logger: logger}
}

// AddNotifier registers another delivery channel.
func (s *ReminderService) AddNotifier(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// DispatchDue sends every undelivered reminder whose trigger lies within the
// last two hours. A reminder is marked delivered once at least one notifier
// accepted it; otherwise it is retried on the next run.
func (s *ReminderService) DispatchDue(ctx context.Context) (int, error) {
	if len(s.notifiers) == 0 {
		return 0, nil
	}

	now := s.now()
	due, err := s.store.Plans.PendingReminders(ctx, now.Add(-reminderLookback), now)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(due))
	for _, r := range due {
		ids = append(ids, r.TaskID)
	}
	tasks, err := s.store.Tasks.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	titles := make(map[uint]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}

	sent := 0
	for _, r := range due {
		title, ok := titles[r.TaskID]
		if !ok {
			continue
		}
		notice := ReminderNotice{Reminder: r, TaskTitle: title, BlockStart: r.TriggerTime.Add(reminderLead)}

		delivered := false
		for _, n := range s.notifiers {
			if err := n.Notify(ctx, notice); err != nil {
				s.logger.Warn("reminder delivery failed", "reminder_id", r.ID, "error", err)
				continue
			}
			delivered = true
		}
		if !delivered {
			continue
		}
		if err := s.store.Plans.MarkNotified(ctx, r.ID, now); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		s.logger.Info("reminders dispatched", "count", sent)
	}
	return sent, nil
}

// FormatReminder renders a notice as plain text.
func FormatReminder(notice ReminderNotice, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏰ %s at %s", strings.TrimSpace(notice.TaskTitle), notice.BlockStart.In(loc).Format("15:04"))
	if notice.Reminder.ReminderType == model.ReminderTypeLocation && notice.Reminder.LocationHint != nil {
		fmt.Fprintf(&sb, "\n📍 %s", *notice.Reminder.LocationHint)
	}
	return sb.String()
}

// PlanSummary renders a plan as Telegram HTML.
func PlanSummary(plan *Plan, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("📋 <b>Day plan</b>\n")
	fmt.Fprintf(&b, "🗓 %s\n\n", plan.Date.Format("Mon 02.01.2006"))

	if len(plan.Blocks) == 0 {
		b.WriteString("— nothing scheduled\n")
		return strings.TrimSpace(b.String())
	}

	for _, block := range plan.Blocks {
		title := fmt.Sprintf("task #%d", block.TaskID)
		if task, ok := plan.Tasks[block.TaskID]; ok {
			title = task.Title
		}
		fmt.Fprintf(&b, "🕘 %s–%s %s",
			block.StartTime.In(loc).Format("15:04"),
			block.EndTime.In(loc).Format("15:04"),
			html.EscapeString(strings.TrimSpace(title)))
		if block.Location != nil {
			fmt.Fprintf(&b, "\n   📍 %s", html.EscapeString(*block.Location))
		}
		b.WriteByte('\n')
	}

	if plan.Home != nil {
		fmt.Fprintf(&b, "\n🏠 %s", html.EscapeString(plan.Home.Name))
		if addr := plan.Home.HomeAddress(); addr != "" {
			fmt.Fprintf(&b, " <i>(%s)</i>", html.EscapeString(addr))
		}
	}
	return strings.TrimSpace(b.String())
}
