package model

import (
	"time"

	"gorm.io/gorm"
)

// ReminderType says what kind of cue fires a reminder.
type ReminderType string

const (
	ReminderTypeTime     ReminderType = "time"
	ReminderTypeLocation ReminderType = "location"
	ReminderTypeManual   ReminderType = "manual"
)

// PlanBlock is one scheduled slot of a generated day plan.
type PlanBlock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index" json:"task_id"`
	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Location  *string   `gorm:"size:120" json:"location"`
}

func (b *PlanBlock) BeforeSave(tx *gorm.DB) error {
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return nil
}

// Duration is the length of the block.
func (b PlanBlock) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// Reminder fires shortly before a planned block starts.
type Reminder struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	TaskID       uint         `gorm:"index" json:"task_id"`
	TriggerTime  time.Time    `gorm:"index" json:"trigger_time"`
	ReminderType ReminderType `gorm:"size:16;default:time" json:"reminder_type"`
	LocationHint *string      `gorm:"size:120" json:"location_hint"`
	NotifiedAt   *time.Time   `json:"notified_at,omitempty"`
}

func (r *Reminder) BeforeSave(tx *gorm.DB) error {
	r.TriggerTime = r.TriggerTime.UTC()
	if r.NotifiedAt != nil {
		notified := r.NotifiedAt.UTC()
		r.NotifiedAt = &notified
	}
	return nil
}
