package service

import (
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("07:45")
	if err != nil {
		t.Fatalf("buildDailySpec() failed: %v", err)
	}
	if spec != "0 45 7 * * *" {
		t.Errorf("unexpected spec %q", spec)
	}
	if _, err := buildDailySpec("25:00"); err == nil {
		t.Error("expected error for invalid hour")
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	sched := NewSchedulerService(time.UTC, nil)

	if err := sched.ScheduleReminders(NewReminderService(env.store, time.UTC, nil), time.Minute); err != nil {
		t.Fatalf("ScheduleReminders() failed: %v", err)
	}
	if err := sched.ScheduleAutoPlan(env.planner, "08:00", nil); err != nil {
		t.Fatalf("ScheduleAutoPlan() failed: %v", err)
	}
	if _, err := sched.ScheduleInterval("noop", 0, nil); err == nil {
		t.Error("expected error for zero interval")
	}
	if got := sched.Entries(); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}
