package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"day-planner/internal/model"
)

// PlanRepository stores plan blocks and reminders.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// DeleteBlocksBetween removes blocks whose start lies in [from, to].
func (r *PlanRepository) DeleteBlocksBetween(ctx context.Context, from, to time.Time) error {
	if err := r.db.WithContext(ctx).
		Where("start_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Delete(&model.PlanBlock{}).Error; err != nil {
		return fmt.Errorf("delete plan blocks: %w", err)
	}
	return nil
}

// DeleteRemindersBetween removes reminders whose trigger lies in [from, to].
func (r *PlanRepository) DeleteRemindersBetween(ctx context.Context, from, to time.Time) error {
	if err := r.db.WithContext(ctx).
		Where("trigger_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Delete(&model.Reminder{}).Error; err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	return nil
}

func (r *PlanRepository) CreateBlock(ctx context.Context, block *model.PlanBlock) error {
	if err := r.db.WithContext(ctx).Create(block).Error; err != nil {
		return fmt.Errorf("create plan block: %w", err)
	}
	return nil
}

func (r *PlanRepository) CreateReminder(ctx context.Context, reminder *model.Reminder) error {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// BlocksStartingIn returns blocks with start in [from, to), ordered by start.
func (r *PlanRepository) BlocksStartingIn(ctx context.Context, from, to time.Time) ([]model.PlanBlock, error) {
	var blocks []model.PlanBlock
	if err := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Order("start_time ASC").Order("id ASC").
		Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("list plan blocks: %w", err)
	}
	return blocks, nil
}

// RemindersBetween returns reminders with trigger in [from, to], ordered by trigger.
func (r *PlanRepository) RemindersBetween(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).
		Where("trigger_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("trigger_time ASC").Order("id ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// PendingReminders returns reminders due in [from, to] that were never delivered.
func (r *PlanRepository) PendingReminders(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).
		Where("notified_at IS NULL AND trigger_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("trigger_time ASC").Order("id ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	return reminders, nil
}

func (r *PlanRepository) MarkNotified(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).Where("id = ?", id).
		Update("notified_at", at.UTC()).Error; err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	return nil
}

// DeleteForTask removes every block and reminder that belongs to a task.
func (r *PlanRepository) DeleteForTask(ctx context.Context, taskID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("task_id = ?", taskID).Delete(&model.PlanBlock{}).Error; err != nil {
		return fmt.Errorf("delete task blocks: %w", err)
	}
	if err := db.Where("task_id = ?", taskID).Delete(&model.Reminder{}).Error; err != nil {
		return fmt.Errorf("delete task reminders: %w", err)
	}
	return nil
}
