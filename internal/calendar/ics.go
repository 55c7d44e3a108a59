// Package calendar exports generated plans to calendar clients.
package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"

	"day-planner/internal/service"
)

const productID = "-//day-planner//plan export//EN"

// EncodePlan writes plan as an iCalendar document with one event per block.
func EncodePlan(w io.Writer, plan *service.Plan, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, block := range plan.Blocks {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, blockUID(block.ID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, block.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, block.EndTime.UTC())
		event.Props.SetText(ical.PropSummary, blockSummary(plan, block.TaskID))
		if block.Location != nil {
			event.Props.SetText(ical.PropLocation, *block.Location)
		}
		if task, ok := plan.Tasks[block.TaskID]; ok && task.Description != nil {
			event.Props.SetText(ical.PropDescription, *task.Description)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func blockUID(id uint) string {
	return fmt.Sprintf("block-%d@day-planner", id)
}

func blockSummary(plan *service.Plan, taskID uint) string {
	if task, ok := plan.Tasks[taskID]; ok {
		return task.Title
	}
	return fmt.Sprintf("Task #%d", taskID)
}
