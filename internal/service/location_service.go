package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/maps"
	"day-planner/internal/model"
	"day-planner/internal/nlp"
	"day-planner/internal/repository"
)

// PlaceSearcher resolves a free-text query to candidate places near an address.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query, near string) []maps.Place
}

// LocationSuggestion is an unsaved candidate place for a task.
type LocationSuggestion struct {
	Label   string  `json:"label"`
	Address *string `json:"address"`
}

// Entity labels that can name somewhere a task happens.
var placeLabels = map[string]bool{
	"ORG":     true,
	"FAC":     true,
	"GPE":     true,
	"LOC":     true,
	"PRODUCT": true,
}

var fallbackSeparators = []string{" at ", " @ ", " from ", " to "}

// LocationService owns the home location and title-based location inference.
type LocationService struct {
	store     *repository.Store
	extractor nlp.Extractor
	places    PlaceSearcher
	cfg       *config.Config
	logger    *slog.Logger
}

// NewLocationService wires the inferrer. extractor may be nil when no entity
// extraction is available; places may be nil when no mapping provider is.
func NewLocationService(store *repository.Store, extractor nlp.Extractor, places PlaceSearcher, cfg *config.Config, logger *slog.Logger) *LocationService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LocationService{store: store, extractor: extractor, places: places, cfg: cfg, logger: logger}
}

// Home returns the stored home location or nil.
func (s *LocationService) Home(ctx context.Context) (*model.Location, error) {
	return s.store.Locations.FindHome(ctx)
}

// EnsureHome returns the home location, creating it from the configured
// defaults when none exists yet.
func (s *LocationService) EnsureHome(ctx context.Context) (*model.Location, error) {
	home, err := s.store.Locations.FindHome(ctx)
	if err != nil || home != nil {
		return home, err
	}

	home = &model.Location{Name: s.cfg.HomeLocationName, IsHome: true}
	if s.cfg.HomeLocationAddress != "" {
		addr := s.cfg.HomeLocationAddress
		home.Address = &addr
	}
	if err := s.store.Locations.Save(ctx, home); err != nil {
		return nil, err
	}
	s.logger.Info("home location provisioned", "name", home.Name)
	return home, nil
}

// SaveHome creates or replaces the home location.
func (s *LocationService) SaveHome(ctx context.Context, name string, address *string) (*model.Location, error) {
	var p problems
	if strings.TrimSpace(name) == "" {
		p.addf("name is required")
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	if address != nil && strings.TrimSpace(*address) == "" {
		address = nil
	}

	var home *model.Location
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Locations.FindHome(ctx)
		if err != nil {
			return err
		}
		if existing == nil {
			existing = &model.Location{IsHome: true}
		}
		existing.Name = name
		existing.Address = address
		if err := tx.Locations.Save(ctx, existing); err != nil {
			return err
		}
		home = existing
		return tx.Locations.ClearHomeExcept(ctx, existing.ID)
	})
	if err != nil {
		return nil, err
	}
	return home, nil
}

// ExtractQueries derives place-name queries from a task title.
func (s *LocationService) ExtractQueries(ctx context.Context, title string) []string {
	var queries []string
	seen := make(map[string]bool)

	if s.extractor != nil && title != "" {
		ectx, cancel := context.WithTimeout(ctx, s.externalTimeout())
		entities, err := s.extractor.Entities(ectx, title)
		cancel()
		if err != nil {
			s.logger.Warn("entity extraction failed, using separators", "error", err)
		}
		for _, ent := range entities {
			if !placeLabels[ent.Label] {
				continue
			}
			text := strings.TrimSpace(ent.Text)
			if text != "" && !seen[text] {
				queries = append(queries, text)
				seen[text] = true
			}
		}
	}

	if len(queries) == 0 {
		if hint := separatorHint(title); hint != "" {
			queries = append(queries, hint)
		}
	}
	return queries
}

// separatorHint returns the text following the first listed separator found
// in title, cut at " and " or a comma.
func separatorHint(title string) string {
	for _, sep := range fallbackSeparators {
		idx := indexFold(title, sep)
		if idx == -1 {
			continue
		}
		part := title[idx+len(sep):]
		part, _, _ = strings.Cut(part, " and ")
		part, _, _ = strings.Cut(part, ",")
		part = strings.TrimSpace(part)
		part = strings.TrimRight(part, ".!?")
		return strings.TrimSpace(part)
	}
	return ""
}

// indexFold is strings.Index ignoring ASCII case.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// InferLocations returns candidate places for a title without saving anything.
// Without a home address there is nothing to anchor the search, so the result
// is empty.
func (s *LocationService) InferLocations(ctx context.Context, title string) ([]LocationSuggestion, error) {
	queries := s.ExtractQueries(ctx, title)
	if len(queries) == 0 {
		return nil, nil
	}

	home, err := s.EnsureHome(ctx)
	if err != nil {
		return nil, err
	}
	near := home.HomeAddress()
	if near == "" || s.places == nil {
		return nil, nil
	}

	var out []LocationSuggestion
	for _, query := range queries {
		sctx, cancel := context.WithTimeout(ctx, s.externalTimeout())
		places := s.places.SearchPlaces(sctx, query, near)
		cancel()
		for _, place := range places {
			name := place.Name
			if name == "" {
				name = query
			}
			out = append(out, LocationSuggestion{Label: name, Address: optionalString(place.Address)})
		}
	}
	return out, nil
}

// RefreshTaskLocationSuggestions replaces the task's suggestions with a set
// derived from its current title and reloads them onto task.
func (s *LocationService) RefreshTaskLocationSuggestions(ctx context.Context, task *model.Task) error {
	suggestions, err := s.InferLocations(ctx, task.Title)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Suggestions.DeleteForTask(ctx, task.ID); err != nil {
			return err
		}
		for _, sg := range suggestions {
			rec := model.TaskLocationSuggestion{
				TaskID:  task.ID,
				Label:   sg.Label,
				Address: sg.Address,
				Source:  model.SuggestionSourcePlaces,
			}
			if err := tx.Suggestions.Create(ctx, &rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	refreshed, err := s.store.Suggestions.ListForTask(ctx, task.ID)
	if err != nil {
		return err
	}
	task.LocationSuggestions = refreshed
	s.logger.Debug("location suggestions refreshed", "task_id", task.ID, "count", len(refreshed))
	return nil
}

func (s *LocationService) externalTimeout() time.Duration {
	if s.cfg.ExternalTimeout > 0 {
		return s.cfg.ExternalTimeout
	}
	return 5 * time.Second
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
