// Package render formats plans and task lists for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

// Plan renders a day plan as a boxed timeline.
func Plan(plan *service.Plan, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Plan for " + plan.Date.Format("Monday, 02 Jan 2006")))
	sb.WriteByte('\n')

	if len(plan.Blocks) == 0 {
		sb.WriteString(dimStyle.Render("Nothing scheduled."))
		return sb.String()
	}

	lines := make([]string, 0, len(plan.Blocks))
	for _, b := range plan.Blocks {
		title := fmt.Sprintf("task #%d", b.TaskID)
		if task, ok := plan.Tasks[b.TaskID]; ok {
			title = task.Title
		}
		line := timeStyle.Render(b.StartTime.In(loc).Format("15:04")+"-"+b.EndTime.In(loc).Format("15:04")) + "  " + title
		if b.Location != nil {
			line += dimStyle.Render("  @ " + *b.Location)
		}
		lines = append(lines, line)
	}
	sb.WriteString(boxStyle.Render(strings.Join(lines, "\n")))

	if addr := plan.Home.HomeAddress(); addr != "" {
		sb.WriteString("\n" + dimStyle.Render("Home: "+addr))
	}
	sb.WriteString("\n" + successStyle.Render(fmt.Sprintf("%d blocks, %d reminders", len(plan.Blocks), len(plan.Reminders))))
	return sb.String()
}

// Tasks renders the backlog one task per line.
func Tasks(tasks []model.Task) string {
	if len(tasks) == 0 {
		return dimStyle.Render("No tasks.")
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks))))
	sb.WriteByte('\n')
	for i, t := range tasks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "#%-4d %s %s %s",
			t.ID,
			priorityStyle(t.Priority).Render(fmt.Sprintf("P%d", t.Priority)),
			t.Title,
			dimStyle.Render(fmt.Sprintf("[%s, %d min]", t.Status, t.DurationMinutes)))
		if t.HasLocation() {
			sb.WriteString(dimStyle.Render(" @ " + *t.Location))
		}
		if t.TimeEstimateMeta != nil && t.TimeEstimateMeta.Summary != "" {
			sb.WriteString("\n      " + warningStyle.Render(t.TimeEstimateMeta.Summary))
		}
	}
	return sb.String()
}
