package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"day-planner/internal/model"
)

// SuggestionRepository stores location suggestions derived from task titles.
type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func (r *SuggestionRepository) DeleteForTask(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Delete(&model.TaskLocationSuggestion{}).Error; err != nil {
		return fmt.Errorf("delete suggestions: %w", err)
	}
	return nil
}

func (r *SuggestionRepository) Create(ctx context.Context, s *model.TaskLocationSuggestion) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

func (r *SuggestionRepository) ListForTask(ctx context.Context, taskID uint) ([]model.TaskLocationSuggestion, error) {
	var out []model.TaskLocationSuggestion
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return out, nil
}
