package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"day-planner/internal/maps"
)

// DurationLookup answers driving-duration queries between two addresses.
type DurationLookup interface {
	DistanceMatrix(ctx context.Context, origin, destination string) (*maps.MatrixResponse, error)
}

// TravelSegments is a known travel estimate for a round trip.
type TravelSegments struct {
	ToMinutes   int
	BackMinutes int
	Summary     string
}

// TravelEstimator turns distance-matrix answers into whole-minute legs.
type TravelEstimator struct {
	lookup  DurationLookup
	timeout time.Duration
	logger  *slog.Logger
}

func NewTravelEstimator(lookup DurationLookup, timeout time.Duration, logger *slog.Logger) *TravelEstimator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TravelEstimator{lookup: lookup, timeout: timeout, logger: logger}
}

// Estimate returns the driving time from origin to destination. The second
// result is false whenever the estimate is unknown; no error ever escapes.
// BackMinutes repeats the outbound time for the same route.
func (e *TravelEstimator) Estimate(ctx context.Context, origin, destination string) (TravelSegments, bool) {
	if e == nil || e.lookup == nil || origin == "" || destination == "" {
		return TravelSegments{}, false
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.lookup.DistanceMatrix(ctx, origin, destination)
	if err != nil {
		e.logger.Debug("travel lookup failed", "error", err)
		return TravelSegments{}, false
	}

	el, ok := resp.FirstElement()
	if !ok || el.Status != "OK" || el.Duration == nil || el.Duration.Value == nil {
		return TravelSegments{}, false
	}

	minutes := *el.Duration.Value / 60
	if minutes < 1 {
		minutes = 1
	}
	summary := el.Duration.Text
	if summary == "" {
		summary = "Drive"
	}
	return TravelSegments{ToMinutes: minutes, BackMinutes: minutes, Summary: summary}, true
}
