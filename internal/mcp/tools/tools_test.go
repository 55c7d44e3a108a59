package tools

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/maps"
	"day-planner/internal/repository"
	"day-planner/internal/service"
)

type echoPlaces struct{}

func (echoPlaces) SearchPlaces(_ context.Context, query, near string) []maps.Place {
	return []maps.Place{{Address: query + " near " + near}}
}

func newTestHandler(t *testing.T, homeAddress string) *Handler {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewDB() failed: %v", err)
	}
	store := repository.NewStore(db)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.HomeLocationAddress = homeAddress

	locations := service.NewLocationService(store, nil, echoPlaces{}, &cfg, nil)
	estimates := service.NewEstimateService(locations, service.NewTravelEstimator(nil, 0, nil), nil)
	tasks := service.NewTaskService(store, locations, estimates, &cfg, nil)
	planner, err := service.NewPlannerService(store, locations, &cfg, nil)
	if err != nil {
		t.Fatalf("NewPlannerService() failed: %v", err)
	}
	h := NewHandler(tasks, planner, locations, nil)
	h.Now = func() time.Time { return time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC) }
	return h
}

func TestCreateAndListTasks(t *testing.T) {
	h := newTestHandler(t, "1 Main St")
	ctx := context.Background()

	priority := 5
	_, created, err := h.HandleCreateTask(ctx, nil, CreateTaskInput{
		Title:    "Coffee @ Blue Bottle",
		Priority: &priority,
		DueDate:  "2030-03-05T10:00:00",
	})
	if err != nil {
		t.Fatalf("HandleCreateTask() failed: %v", err)
	}
	if created.Priority != 5 || created.DueDate != "2030-03-05T10:00:00Z" {
		t.Errorf("unexpected task %+v", created)
	}
	if len(created.Suggestions) != 1 || created.Suggestions[0] != "Blue Bottle" {
		t.Errorf("expected Blue Bottle suggestion, got %v", created.Suggestions)
	}

	if _, _, err := h.HandleCreateTask(ctx, nil, CreateTaskInput{Title: "Later", DueDate: "whenever, really"}); err == nil {
		t.Error("expected due date error")
	}
	if _, _, err := h.HandleCreateTask(ctx, nil, CreateTaskInput{Title: ""}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, list, err := h.HandleListTasks(ctx, nil, ListTasksInput{})
	if err != nil {
		t.Fatalf("HandleListTasks() failed: %v", err)
	}
	if list.Count != 1 || list.Tasks[0].ID != created.ID {
		t.Errorf("unexpected list %+v", list)
	}

	_, done, err := h.HandleListTasks(ctx, nil, ListTasksInput{Status: "done"})
	if err != nil {
		t.Fatalf("HandleListTasks() failed: %v", err)
	}
	if done.Count != 0 || done.Tasks == nil {
		t.Errorf("expected empty non-nil list, got %+v", done)
	}

	if _, _, err := h.HandleListTasks(ctx, nil, ListTasksInput{Status: "archived"}); err == nil {
		t.Error("expected invalid status error")
	}
}

func TestSetStatusAndDelete(t *testing.T) {
	h := newTestHandler(t, "")
	ctx := context.Background()

	_, created, err := h.HandleCreateTask(ctx, nil, CreateTaskInput{Title: "File taxes"})
	if err != nil {
		t.Fatalf("HandleCreateTask() failed: %v", err)
	}

	_, updated, err := h.HandleSetTaskStatus(ctx, nil, SetTaskStatusInput{ID: created.ID, Status: "done"})
	if err != nil {
		t.Fatalf("HandleSetTaskStatus() failed: %v", err)
	}
	if updated.Status != "done" {
		t.Errorf("expected done, got %s", updated.Status)
	}
	if _, _, err := h.HandleSetTaskStatus(ctx, nil, SetTaskStatusInput{ID: created.ID, Status: "blocked"}); err == nil {
		t.Error("expected invalid status error")
	}

	_, out, err := h.HandleDeleteTask(ctx, nil, DeleteTaskInput{ID: created.ID})
	if err != nil || !out.Deleted {
		t.Fatalf("HandleDeleteTask() = %+v, %v", out, err)
	}
	if _, _, err := h.HandleDeleteTask(ctx, nil, DeleteTaskInput{ID: created.ID}); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestInferLocations(t *testing.T) {
	h := newTestHandler(t, "1 Main St")
	ctx := context.Background()

	_, out, err := h.HandleInferLocations(ctx, nil, InferLocationsInput{Title: "Lunch at Joe's Diner"})
	if err != nil {
		t.Fatalf("HandleInferLocations() failed: %v", err)
	}
	if len(out.Suggestions) != 1 || out.Suggestions[0].Label != "Joe's Diner" {
		t.Errorf("unexpected suggestions %+v", out.Suggestions)
	}

	if _, _, err := h.HandleInferLocations(ctx, nil, InferLocationsInput{Title: "  "}); err == nil {
		t.Error("expected error for blank title")
	}

	_, tasks, _ := h.HandleListTasks(ctx, nil, ListTasksInput{})
	if tasks.Count != 0 {
		t.Errorf("infer_locations must not persist, got %d tasks", tasks.Count)
	}
}

func TestPlanTools(t *testing.T) {
	h := newTestHandler(t, "1 Main St")
	ctx := context.Background()

	if _, _, err := h.HandleGetPlan(ctx, nil, PlanDateInput{Date: "2030-03-04"}); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found before generation, got %v", err)
	}

	location := "Post Office"
	if _, _, err := h.HandleCreateTask(ctx, nil, CreateTaskInput{Title: "Send parcel", Location: &location}); err != nil {
		t.Fatalf("HandleCreateTask() failed: %v", err)
	}

	_, plan, err := h.HandleGeneratePlan(ctx, nil, PlanDateInput{Date: "2030-03-04"})
	if err != nil {
		t.Fatalf("HandleGeneratePlan() failed: %v", err)
	}
	if plan.Date != "2030-03-04" || len(plan.Blocks) != 1 || plan.Reminders != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	block := plan.Blocks[0]
	if block.Title != "Send parcel" || block.Start != "2030-03-04T09:00:00Z" || block.Location != "Post Office" {
		t.Errorf("unexpected block %+v", block)
	}
	if plan.Home != "1 Main St" {
		t.Errorf("expected home address, got %q", plan.Home)
	}

	_, stored, err := h.HandleGetPlan(ctx, nil, PlanDateInput{Date: "2030-03-04"})
	if err != nil {
		t.Fatalf("HandleGetPlan() failed: %v", err)
	}
	if len(stored.Blocks) != 1 {
		t.Errorf("expected stored block, got %+v", stored)
	}

	if _, _, err := h.HandleGeneratePlan(ctx, nil, PlanDateInput{Date: "xyzzy"}); err == nil {
		t.Error("expected date error")
	}
}
