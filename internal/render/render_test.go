package render

import (
	"strings"
	"testing"
	"time"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

func TestPlan(t *testing.T) {
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)
	office := "Office"
	home := "1 Main St"
	plan := &service.Plan{
		Date: day,
		Blocks: []model.PlanBlock{
			{TaskID: 1, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour), Location: &office},
			{TaskID: 2, StartTime: day.Add(10 * time.Hour), EndTime: day.Add(11 * time.Hour)},
		},
		Reminders: make([]model.Reminder, 2),
		Home:      &model.Location{Name: "Home", Address: &home},
		Tasks:     map[uint]model.Task{1: {ID: 1, Title: "Standup"}},
	}

	out := Plan(plan, time.UTC)
	for _, want := range []string{"Monday, 04 Mar 2030", "09:00-10:00", "Standup", "@ Office", "task #2", "Home: 1 Main St", "2 blocks, 2 reminders"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPlanEmpty(t *testing.T) {
	out := Plan(&service.Plan{Date: time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)}, time.UTC)
	if !strings.Contains(out, "Nothing scheduled.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTasks(t *testing.T) {
	if out := Tasks(nil); !strings.Contains(out, "No tasks.") {
		t.Errorf("unexpected empty output %q", out)
	}

	store := "Hardware store"
	tasks := []model.Task{
		{ID: 3, Title: "Fix shelf", Priority: 5, DurationMinutes: 45, Status: model.TaskStatusPending, Location: &store,
			TimeEstimateMeta: &model.TimeEstimateMeta{Summary: "Drive 10 min each way"}},
		{ID: 4, Title: "Read", Priority: 1, DurationMinutes: 30, Status: model.TaskStatusDone},
	}
	out := Tasks(tasks)
	for _, want := range []string{"Tasks (2)", "#3", "P5", "Fix shelf", "@ Hardware store", "Drive 10 min each way", "[done, 30 min]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
