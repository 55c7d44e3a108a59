package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"day-planner/internal/config"
	"day-planner/internal/service"
)

const (
	// Private extended properties tag the events this program owns.
	ownerProperty = "day_planner"
	blockProperty = "day_planner_block"

	// AuthPort receives the OAuth redirect during calendar-auth.
	AuthPort = "6789"
)

// GoogleSync mirrors generated plans into a Google calendar.
type GoogleSync struct {
	srv        *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *slog.Logger
}

// NewGoogleSync builds an authenticated client from the configured
// credentials and a token saved earlier by Authorize.
func NewGoogleSync(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*GoogleSync, error) {
	oauthCfg, err := LoadOAuthConfig(cfg.Calendar.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(cfg.CalendarTokenPath())
	if err != nil {
		return nil, fmt.Errorf("no calendar token, run calendar-auth first: %w", err)
	}
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewGoogleSyncWithService(srv, cfg.Calendar.CalendarID, loc, logger), nil
}

func NewGoogleSyncWithService(srv *gcal.Service, calendarID string, loc *time.Location, logger *slog.Logger) *GoogleSync {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}
	return &GoogleSync{srv: srv, calendarID: calendarID, loc: loc, logger: logger}
}

// PublishPlan replaces the events this program created for the plan's date
// with one event per block.
func (g *GoogleSync) PublishPlan(ctx context.Context, plan *service.Plan) error {
	dayStart := plan.Date
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Collect every page before deleting so removals cannot shift the paging.
	var stale []string
	err := g.srv.Events.List(g.calendarID).
		PrivateExtendedProperty(ownerProperty+"=1").
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		SingleEvents(true).
		Pages(ctx, func(page *gcal.Events) error {
			for _, ev := range page.Items {
				stale = append(stale, ev.Id)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("list calendar events: %w", err)
	}
	for _, id := range stale {
		if err := g.srv.Events.Delete(g.calendarID, id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("delete calendar event %s: %w", id, err)
		}
	}

	for _, block := range plan.Blocks {
		ev := &gcal.Event{
			Summary: blockSummary(plan, block.TaskID),
			Start:   &gcal.EventDateTime{DateTime: block.StartTime.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()},
			End:     &gcal.EventDateTime{DateTime: block.EndTime.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()},
			ExtendedProperties: &gcal.EventExtendedProperties{
				Private: map[string]string{
					ownerProperty: "1",
					blockProperty: strconv.FormatUint(uint64(block.ID), 10),
				},
			},
		}
		if block.Location != nil {
			ev.Location = *block.Location
		}
		if _, err := g.srv.Events.Insert(g.calendarID, ev).Context(ctx).Do(); err != nil {
			return fmt.Errorf("insert calendar event: %w", err)
		}
	}

	g.logger.Info("plan synced to calendar", "date", dayStart.Format("2006-01-02"),
		"removed", len(stale), "created", len(plan.Blocks))
	return nil
}

// LoadOAuthConfig reads a Google client secrets file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", AuthPort)
	return cfg, nil
}

// Authorize runs the browser consent flow: it prints the consent URL to out,
// waits for Google to redirect back to a local listener, and exchanges the
// code for a token.
func Authorize(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	state := uuid.NewString()
	server := &http.Server{
		Handler:           callbackHandler(state, codeCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "Open this URL in your browser to authorize calendar access:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		xctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(xctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out")
	}
}

// callbackHandler accepts the OAuth redirect carrying the expected state.
// Only the first outcome is delivered; later requests never block.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("oauth state mismatch"):
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
			default:
			}
			return
		}
		fmt.Fprintln(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

// TokenFromFile reads an oauth2.Token from a JSON file.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
