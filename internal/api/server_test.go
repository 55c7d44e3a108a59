package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/maps"
	"day-planner/internal/model"
	"day-planner/internal/repository"
	"day-planner/internal/service"
)

type echoPlaces struct{}

func (echoPlaces) SearchPlaces(_ context.Context, query, near string) []maps.Place {
	return []maps.Place{{Address: query + " near " + near}}
}

var fixedNow = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, homeAddress string) *httptest.Server {
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

	srv := NewServer(tasks, planner, locations, &cfg, Options{}, nil)
	srv.now = func() time.Time { return fixedNow }
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected status %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func TestHealthAndConfig(t *testing.T) {
	ts := newTestServer(t, "")

	resp := do(t, ts, http.MethodGet, "/health", "")
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	health := decode[map[string]any](t, resp)
	if health["status"] != "ok" {
		t.Errorf("unexpected health body %v", health)
	}

	resp = do(t, ts, http.MethodGet, "/config", "")
	expectStatus(t, resp, http.StatusOK)
	cfg := decode[configResponse](t, resp)
	if cfg.MapsEnabled || cfg.StartHour != 9 || cfg.EndHour != 17 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t, "")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected echoed id, got %q", got)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t, "1 Main St")

	resp := do(t, ts, http.MethodPost, "/tasks", `{"title":"Pick up lumber at Home Depot","due_date":"2030-03-05T10:00:00"}`)
	expectStatus(t, resp, http.StatusCreated)
	created := decode[model.Task](t, resp)
	if created.Priority != 3 || created.DurationMinutes != 60 || created.Status != model.TaskStatusPending {
		t.Errorf("unexpected defaults %+v", created)
	}
	if len(created.LocationSuggestions) != 1 || created.LocationSuggestions[0].Label != "Home Depot" {
		t.Errorf("expected Home Depot suggestion, got %+v", created.LocationSuggestions)
	}
	if created.DueDate == nil || !created.DueDate.Equal(time.Date(2030, 3, 5, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected due date %v", created.DueDate)
	}

	path := "/tasks/" + jsonID(created.ID)
	resp = do(t, ts, http.MethodPatch, path, `{"title":"Visit Target for supplies","location":null,"priority":5}`)
	expectStatus(t, resp, http.StatusOK)
	updated := decode[model.Task](t, resp)
	if updated.Title != "Visit Target for supplies" || updated.Priority != 5 {
		t.Errorf("patch not applied: %+v", updated)
	}
	for _, sg := range updated.LocationSuggestions {
		if sg.Label == "Home Depot" {
			t.Errorf("stale suggestion after title change: %+v", sg)
		}
	}
	if updated.DueDate == nil {
		t.Error("absent due_date must not be cleared")
	}

	resp = do(t, ts, http.MethodGet, "/tasks", "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]model.Task](t, resp); len(list) != 1 {
		t.Errorf("expected 1 task, got %d", len(list))
	}

	resp = do(t, ts, http.MethodDelete, path, "")
	expectStatus(t, resp, http.StatusNoContent)
	resp = do(t, ts, http.MethodDelete, path, "")
	expectStatus(t, resp, http.StatusNotFound)
	resp = do(t, ts, http.MethodPatch, path, `{"priority":2}`)
	expectStatus(t, resp, http.StatusNotFound)

	resp = do(t, ts, http.MethodGet, "/tasks", "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]model.Task](t, resp); len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestCreateTaskRejectsInvalid(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		body string
		want int
	}{
		{`{"title":"x","priority":7}`, http.StatusUnprocessableEntity},
		{`{"title":"x","duration_minutes":5}`, http.StatusUnprocessableEntity},
		{`{"title":""}`, http.StatusUnprocessableEntity},
		{`{"title":"x","due_date":"whenever, really"}`, http.StatusUnprocessableEntity},
		{`{"title":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := do(t, ts, http.MethodPost, "/tasks", tt.body)
		expectStatus(t, resp, tt.want)
	}

	resp := do(t, ts, http.MethodGet, "/tasks", "")
	if list := decode[[]model.Task](t, resp); len(list) != 0 {
		t.Errorf("expected nothing persisted, got %d tasks", len(list))
	}
}

func TestInferLocation(t *testing.T) {
	ts := newTestServer(t, "1 Main St")

	resp := do(t, ts, http.MethodPost, "/tasks/infer-location", `{"title":"Coffee @ Blue Bottle"}`)
	expectStatus(t, resp, http.StatusOK)
	got := decode[[]service.LocationSuggestion](t, resp)
	if len(got) != 1 || got[0].Label != "Blue Bottle" {
		t.Errorf("unexpected suggestions %+v", got)
	}

	resp = do(t, ts, http.MethodGet, "/tasks", "")
	if list := decode[[]model.Task](t, resp); len(list) != 0 {
		t.Errorf("infer-location must not persist, got %d tasks", len(list))
	}
}

func TestInferLocationWithoutHome(t *testing.T) {
	ts := newTestServer(t, "")

	resp := do(t, ts, http.MethodPost, "/tasks/infer-location", `{"title":"Coffee @ Blue Bottle"}`)
	expectStatus(t, resp, http.StatusOK)
	var raw bytes.Buffer
	io.Copy(&raw, resp.Body)
	if strings.TrimSpace(raw.String()) != "[]" {
		t.Errorf("expected empty array, got %s", raw.String())
	}
}

func TestPlanEndpoints(t *testing.T) {
	ts := newTestServer(t, "1 Main St")

	resp := do(t, ts, http.MethodGet, "/plan/2030-03-04", "")
	expectStatus(t, resp, http.StatusNotFound)

	do(t, ts, http.MethodPost, "/tasks", `{"title":"Deep work","priority":5,"duration_minutes":240}`)
	do(t, ts, http.MethodPost, "/tasks", `{"title":"Errand at Post Office","priority":4,"duration_minutes":30,"location":"Post Office"}`)

	resp = do(t, ts, http.MethodPost, "/plan/generate", "")
	expectStatus(t, resp, http.StatusOK)
	generated := decode[planResponse](t, resp)
	if generated.Date != "2030-03-04" {
		t.Errorf("expected default date today, got %s", generated.Date)
	}
	if len(generated.Blocks) != 2 || len(generated.Reminders) != 2 {
		t.Fatalf("expected 2 blocks and reminders, got %d and %d", len(generated.Blocks), len(generated.Reminders))
	}
	if generated.Home == nil || generated.Home.HomeAddress() != "1 Main St" {
		t.Errorf("expected home in response, got %+v", generated.Home)
	}
	if generated.Reminders[1].ReminderType != model.ReminderTypeLocation {
		t.Errorf("expected location reminder, got %s", generated.Reminders[1].ReminderType)
	}

	resp = do(t, ts, http.MethodGet, "/plan/2030-03-04", "")
	expectStatus(t, resp, http.StatusOK)
	stored := decode[planResponse](t, resp)
	if len(stored.Blocks) != 2 {
		t.Errorf("expected 2 stored blocks, got %d", len(stored.Blocks))
	}

	resp = do(t, ts, http.MethodGet, "/plan/2030-03-04/ics", "")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "SUMMARY:Deep work") {
		t.Errorf("expected event summary in calendar:\n%s", body)
	}

	resp = do(t, ts, http.MethodPost, "/plan/generate", `{"date":"2030-03-05"}`)
	expectStatus(t, resp, http.StatusOK)
	if next := decode[planResponse](t, resp); next.Date != "2030-03-05" {
		t.Errorf("expected requested date, got %s", next.Date)
	}

	resp = do(t, ts, http.MethodPost, "/plan/generate", `{"date":"someday maybe"}`)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestHomeEndpoints(t *testing.T) {
	ts := newTestServer(t, "")

	resp := do(t, ts, http.MethodGet, "/locations/home", "")
	expectStatus(t, resp, http.StatusOK)
	home := decode[model.Location](t, resp)
	if home.Name != "Home" || !home.IsHome || home.Address != nil {
		t.Errorf("unexpected default home %+v", home)
	}

	resp = do(t, ts, http.MethodPut, "/locations/home", `{"name":"Flat","address":"9 Elm St"}`)
	expectStatus(t, resp, http.StatusOK)
	saved := decode[model.Location](t, resp)
	if saved.ID != home.ID || saved.HomeAddress() != "9 Elm St" {
		t.Errorf("unexpected saved home %+v", saved)
	}

	resp = do(t, ts, http.MethodPut, "/locations/home", `{"name":""}`)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestTodayReminders(t *testing.T) {
	ts := newTestServer(t, "")

	resp := do(t, ts, http.MethodGet, "/reminders/today", "")
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]model.Reminder](t, resp); len(got) != 0 {
		t.Errorf("expected no reminders, got %d", len(got))
	}
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
