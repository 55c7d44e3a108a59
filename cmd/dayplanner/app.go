package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"day-planner/internal/config"
	"day-planner/internal/maps"
	"day-planner/internal/nlp"
	"day-planner/internal/repository"
	"day-planner/internal/service"
)

const matrixCacheTTL = 15 * time.Minute

// app holds the services shared by every command.
type app struct {
	cfg       config.Config
	loc       *time.Location
	logger    *slog.Logger
	store     *repository.Store
	locations *service.LocationService
	tasks     *service.TaskService
	planner   *service.PlannerService
	nlp       bool
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)

	var extractor nlp.Extractor
	if cfg.OpenAI.APIKey != "" {
		extractor = nlp.NewOpenAIExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.ExternalTimeout, logger)
	}

	var places service.PlaceSearcher
	var lookup service.DurationLookup
	if cfg.MapsEnabled() {
		client := maps.NewClient(cfg.GoogleMapsAPIKey, "", cfg.ExternalTimeout, matrixCacheTTL, logger)
		places, lookup = client, client
	}

	a := &app{cfg: cfg, loc: loc, logger: logger, store: store, nlp: extractor != nil}
	a.locations = service.NewLocationService(store, extractor, places, &a.cfg, logger)
	estimates := service.NewEstimateService(a.locations, service.NewTravelEstimator(lookup, cfg.ExternalTimeout, logger), logger)
	a.tasks = service.NewTaskService(store, a.locations, estimates, &a.cfg, logger)
	a.planner, err = service.NewPlannerService(store, a.locations, &a.cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("app ready",
		"db", cfg.DatabasePath(),
		"timezone", loc.String(),
		"maps", cfg.MapsEnabled(),
		"nlp", a.nlp)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
