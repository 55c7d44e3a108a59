package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus tracks where a task is in its lifecycle.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusScheduled TaskStatus = "scheduled"
	TaskStatusDone      TaskStatus = "done"
)

// ValidTaskStatuses lists every accepted status value.
var ValidTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusScheduled,
	TaskStatusDone,
}

// IsValidTaskStatus reports whether s names a known status.
func IsValidTaskStatus(s string) bool {
	for _, status := range ValidTaskStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// BacklogStatuses are the statuses eligible for (re)planning.
var BacklogStatuses = []TaskStatus{TaskStatusPending, TaskStatusScheduled}

// TimeEstimateMeta is the breakdown behind Task.TimeEstimateMinutes.
type TimeEstimateMeta struct {
	TravelToMinutes   int    `json:"travel_to_minutes"`
	TravelBackMinutes int    `json:"travel_back_minutes"`
	ShoppingMinutes   int    `json:"shopping_minutes"`
	Summary           string `json:"summary"`
}

// Task represents a single item in the planner.
type Task struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:120" json:"title"`
	Description     *string    `json:"description"`
	Priority        int        `gorm:"default:3;index" json:"priority"`
	DurationMinutes int        `gorm:"default:60" json:"duration_minutes"`
	Location        *string    `gorm:"size:120" json:"location"`
	DueDate         *time.Time `json:"due_date"`
	Status          TaskStatus `gorm:"size:16;default:pending;index" json:"status"`

	TimeEstimateMinutes           *int              `json:"time_estimate_minutes"`
	TimeEstimateMeta              *TimeEstimateMeta `gorm:"serializer:json" json:"time_estimate_meta"`
	TimeEstimateTravelToMinutes   *int              `json:"time_estimate_travel_to_minutes"`
	TimeEstimateTravelBackMinutes *int              `json:"time_estimate_travel_back_minutes"`
	TimeEstimateShoppingMinutes   *int              `json:"time_estimate_shopping_minutes"`

	LocationSuggestions []TaskLocationSuggestion `gorm:"foreignKey:TaskID" json:"location_suggestions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLocation reports whether the task is bound to a non-empty location.
func (t *Task) HasLocation() bool {
	return t.Location != nil && *t.Location != ""
}

// ClearTimeEstimate resets the derived estimate fields. The caller-supplied
// shopping minutes are an input, not a derived value, and are kept.
func (t *Task) ClearTimeEstimate() {
	t.TimeEstimateMinutes = nil
	t.TimeEstimateMeta = nil
	t.TimeEstimateTravelToMinutes = nil
	t.TimeEstimateTravelBackMinutes = nil
}

func (t *Task) BeforeSave(tx *gorm.DB) error {
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return nil
}
