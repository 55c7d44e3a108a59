package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"day-planner/internal/model"
)

// LocationRepository manages saved places, including the home location.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// FindHome returns the home location, or nil when none is stored.
func (r *LocationRepository) FindHome(ctx context.Context) (*model.Location, error) {
	var home model.Location
	err := r.db.WithContext(ctx).Where("is_home = ?", true).Order("id ASC").First(&home).Error
	switch {
	case err == nil:
		return &home, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find home location: %w", err)
	}
}

func (r *LocationRepository) Save(ctx context.Context, loc *model.Location) error {
	if err := r.db.WithContext(ctx).Save(loc).Error; err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

// ClearHomeExcept drops the home flag from every location other than id.
func (r *LocationRepository) ClearHomeExcept(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Location{}).
		Where("is_home = ? AND id <> ?", true, id).
		Update("is_home", false).Error; err != nil {
		return fmt.Errorf("clear home flag: %w", err)
	}
	return nil
}
