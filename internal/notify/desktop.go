// Package notify delivers reminders as desktop notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"day-planner/internal/service"
)

// Desktop shows reminders through the operating system's notification
// center.
type Desktop struct {
	loc  *time.Location
	send func(title, message string) error
}

func NewDesktop(loc *time.Location) *Desktop {
	beeep.AppName = "day-planner"
	return &Desktop{
		loc: loc,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (d *Desktop) Notify(_ context.Context, notice service.ReminderNotice) error {
	if err := d.send("Day planner", service.FormatReminder(notice, d.loc)); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
