package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ical "github.com/emersion/go-ical"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

func samplePlan() *service.Plan {
	start := time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)
	office := "Home Office"
	notes := "Sort tasks into priority buckets."
	return &service.Plan{
		Date: time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC),
		Blocks: []model.PlanBlock{
			{ID: 7, TaskID: 1, StartTime: start, EndTime: start.Add(time.Hour), Location: &office},
			{ID: 8, TaskID: 2, StartTime: start.Add(time.Hour), EndTime: start.Add(105 * time.Minute)},
		},
		Tasks: map[uint]model.Task{
			1: {ID: 1, Title: "Review project backlog", Description: &notes},
		},
	}
}

func TestEncodePlan(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePlan(&buf, samplePlan(), time.Date(2030, 3, 3, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("EncodePlan() failed: %v", err)
	}

	cal, err := ical.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("decoding output failed: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	summary, _ := events[0].Props.Text(ical.PropSummary)
	if summary != "Review project backlog" {
		t.Errorf("unexpected summary %q", summary)
	}
	location, _ := events[0].Props.Text(ical.PropLocation)
	if location != "Home Office" {
		t.Errorf("unexpected location %q", location)
	}
	start, err := events[0].DateTimeStart(nil)
	if err != nil {
		t.Fatalf("DateTimeStart() failed: %v", err)
	}
	if !start.Equal(time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", start)
	}

	fallback, _ := events[1].Props.Text(ical.PropSummary)
	if fallback != "Task #2" {
		t.Errorf("expected fallback summary, got %q", fallback)
	}
	uid, _ := events[1].Props.Text(ical.PropUID)
	if uid != "block-8@day-planner" {
		t.Errorf("unexpected uid %q", uid)
	}
}

func TestPublishPlan(t *testing.T) {
	var (
		mu       sync.Mutex
		deleted  []string
		inserted []gcal.Event
		listQ    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/calendars/work/events"):
			listQ = r.URL.Query().Get("privateExtendedProperty")
			if r.URL.Query().Get("pageToken") == "" {
				json.NewEncoder(w).Encode(gcal.Events{Items: []*gcal.Event{{Id: "old1"}}, NextPageToken: "p2"})
				return
			}
			json.NewEncoder(w).Encode(gcal.Events{Items: []*gcal.Event{{Id: "old2"}}})
		case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/calendars/work/events/"):
			deleted = append(deleted, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars/work/events"):
			var ev gcal.Event
			if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
				t.Errorf("decode insert body: %v", err)
			}
			inserted = append(inserted, ev)
			ev.Id = "new"
			json.NewEncoder(w).Encode(ev)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	api, err := gcal.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	gs := NewGoogleSyncWithService(api, "work", time.UTC, nil)

	if err := gs.PublishPlan(ctx, samplePlan()); err != nil {
		t.Fatalf("PublishPlan() failed: %v", err)
	}

	if listQ != "day_planner=1" {
		t.Errorf("expected owner filter, got %q", listQ)
	}
	if strings.Join(deleted, ",") != "old1,old2" {
		t.Errorf("expected old events on both pages deleted, got %v", deleted)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(inserted))
	}
	first := inserted[0]
	if first.Summary != "Review project backlog" || first.Location != "Home Office" {
		t.Errorf("unexpected event %+v", first)
	}
	if first.Start.DateTime != "2030-03-04T09:00:00Z" {
		t.Errorf("unexpected start %q", first.Start.DateTime)
	}
	if first.ExtendedProperties.Private["day_planner_block"] != "7" {
		t.Errorf("expected block id tag, got %v", first.ExtendedProperties.Private)
	}
}

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := httptest.NewServer(callbackHandler("s3cret", codeCh, errCh))
	defer srv.Close()

	get := func(query string) int {
		t.Helper()
		resp, err := srv.Client().Get(srv.URL + "/?" + query)
		if err != nil {
			t.Fatalf("GET %s failed: %v", query, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := get("state=forged&code=abc"); got != http.StatusBadRequest {
		t.Errorf("forged state: expected 400, got %d", got)
	}
	select {
	case err := <-errCh:
		if !strings.Contains(err.Error(), "state") {
			t.Errorf("unexpected error %v", err)
		}
	default:
		t.Error("expected a state mismatch error")
	}
	if len(codeCh) != 0 {
		t.Error("forged state must not deliver a code")
	}

	// Repeated failures must not block the handler once errCh is full.
	for i := 0; i < 3; i++ {
		if got := get("state=s3cret"); got != http.StatusBadRequest {
			t.Errorf("missing code: expected 400, got %d", got)
		}
	}

	if got := get("state=s3cret&code=abc"); got != http.StatusOK {
		t.Errorf("valid callback: expected 200, got %d", got)
	}
	if got := get("state=s3cret&code=def"); got != http.StatusOK {
		t.Errorf("second valid callback: expected 200, got %d", got)
	}
	if code := <-codeCh; code != "abc" {
		t.Errorf("expected first code delivered, got %q", code)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	want := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", TokenType: "Bearer"}

	if err := SaveToken(path, want); err != nil {
		t.Fatalf("SaveToken() failed: %v", err)
	}
	got, err := TokenFromFile(path)
	if err != nil {
		t.Fatalf("TokenFromFile() failed: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestLoadOAuthConfig(t *testing.T) {
	if _, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing credentials file")
	}
}
