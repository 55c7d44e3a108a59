package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"day-planner/internal/config"
	"day-planner/internal/maps"
	"day-planner/internal/nlp"
	"day-planner/internal/repository"
)

type fakePlaces struct {
	search func(query, near string) []maps.Place
	calls  []string
}

func (f *fakePlaces) SearchPlaces(_ context.Context, query, near string) []maps.Place {
	f.calls = append(f.calls, query)
	if f.search == nil {
		return nil
	}
	return f.search(query, near)
}

// echoPlaces returns one nameless result per query so the query becomes the label.
func echoPlaces() *fakePlaces {
	return &fakePlaces{search: func(query, near string) []maps.Place {
		return []maps.Place{{Address: query + ", near " + near}}
	}}
}

type fakeLookup struct {
	matrix func(origin, destination string) (*maps.MatrixResponse, error)
}

func (f *fakeLookup) DistanceMatrix(_ context.Context, origin, destination string) (*maps.MatrixResponse, error) {
	return f.matrix(origin, destination)
}

func matrixOf(status string, seconds int, text string) *maps.MatrixResponse {
	el := maps.MatrixElement{Status: status}
	if seconds >= 0 {
		el.Duration = &maps.TextValue{Text: text, Value: &seconds}
	}
	return &maps.MatrixResponse{Status: "OK", Rows: []maps.MatrixRow{{Elements: []maps.MatrixElement{el}}}}
}

type fakeExtractor struct {
	entities func(text string) ([]nlp.Entity, error)
}

func (f *fakeExtractor) Entities(_ context.Context, text string) ([]nlp.Entity, error) {
	return f.entities(text)
}

type testEnv struct {
	db        *gorm.DB
	store     *repository.Store
	cfg       *config.Config
	locations *LocationService
	travel    *TravelEstimator
	estimates *EstimateService
	tasks     *TaskService
	planner   *PlannerService
}

type envOptions struct {
	homeAddress string
	extractor   nlp.Extractor
	places      PlaceSearcher
	lookup      DurationLookup
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewDB() failed: %v", err)
	}
	store := repository.NewStore(db)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.HomeLocationAddress = opts.homeAddress

	env := &testEnv{db: db, store: store, cfg: &cfg}
	env.locations = NewLocationService(store, opts.extractor, opts.places, env.cfg, nil)
	env.travel = NewTravelEstimator(opts.lookup, time.Second, nil)
	env.estimates = NewEstimateService(env.locations, env.travel, nil)
	env.tasks = NewTaskService(store, env.locations, env.estimates, env.cfg, nil)
	env.planner, err = NewPlannerService(store, env.locations, env.cfg, nil)
	if err != nil {
		t.Fatalf("NewPlannerService() failed: %v", err)
	}
	return env
}

func (e *testEnv) mustCreate(t *testing.T, input TaskInput) uint {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", input.Title, err)
	}
	return task.ID
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
