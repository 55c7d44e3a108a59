package service

import (
	"context"
	"io"
	"log/slog"

	"day-planner/internal/model"
)

// EstimateService annotates tasks with travel-inclusive time estimates for
// display. It never writes the annotation back to storage.
type EstimateService struct {
	locations *LocationService
	travel    *TravelEstimator
	logger    *slog.Logger
}

func NewEstimateService(locations *LocationService, travel *TravelEstimator, logger *slog.Logger) *EstimateService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EstimateService{locations: locations, travel: travel, logger: logger}
}

// PopulateTimeEstimate fills the estimate fields of each task in place.
// A task only gets an estimate when both travel legs are known.
func (s *EstimateService) PopulateTimeEstimate(ctx context.Context, tasks []model.Task) error {
	for i := range tasks {
		tasks[i].ClearTimeEstimate()
	}

	home, err := s.locations.EnsureHome(ctx)
	if err != nil {
		return err
	}
	homeAddress := home.HomeAddress()
	if homeAddress == "" {
		return nil
	}

	for i := range tasks {
		task := &tasks[i]
		if !task.HasLocation() {
			continue
		}
		out, ok := s.travel.Estimate(ctx, homeAddress, *task.Location)
		if !ok {
			continue
		}
		back, ok := s.travel.Estimate(ctx, *task.Location, homeAddress)
		if !ok {
			s.logger.Debug("return leg unknown", "task_id", task.ID)
			continue
		}
		applyEstimate(task, out.ToMinutes, back.ToMinutes, out.Summary)
	}
	return nil
}

func applyEstimate(task *model.Task, toMinutes, backMinutes int, summary string) {
	shopping := task.DurationMinutes
	if task.TimeEstimateShoppingMinutes != nil {
		shopping = *task.TimeEstimateShoppingMinutes
	}
	total := toMinutes + backMinutes + shopping

	task.TimeEstimateMinutes = &total
	task.TimeEstimateTravelToMinutes = &toMinutes
	task.TimeEstimateTravelBackMinutes = &backMinutes
	task.TimeEstimateMeta = &model.TimeEstimateMeta{
		TravelToMinutes:   toMinutes,
		TravelBackMinutes: backMinutes,
		ShoppingMinutes:   shopping,
		Summary:           summary,
	}
}
