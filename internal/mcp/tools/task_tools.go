package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

// ListTasksInput defines the input for the list_tasks tool.
type ListTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: pending, scheduled, done"`
}

// ListTasksOutput defines the output for the list_tasks tool.
type ListTasksOutput struct {
	Tasks []TaskSummary `json:"tasks"`
	Count int           `json:"count"`
}

// ListTasksTool returns the tool definition for list_tasks.
func ListTasksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_tasks",
		Description: "List planner tasks ordered by priority, highest first, with travel-aware time estimates.",
	}
}

// HandleListTasks handles the list_tasks tool call.
func (h *Handler) HandleListTasks(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	h.Logger.Info("list_tasks", "status", input.Status)

	if input.Status != "" && !model.IsValidTaskStatus(input.Status) {
		return nil, ListTasksOutput{}, fmt.Errorf("invalid status: %s (must be one of: pending, scheduled, done)", input.Status)
	}

	tasks, err := h.Tasks.List(ctx)
	if err != nil {
		return nil, ListTasksOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		if input.Status != "" && string(t.Status) != input.Status {
			continue
		}
		summaries = append(summaries, h.summarize(t))
	}
	return nil, ListTasksOutput{Tasks: summaries, Count: len(summaries)}, nil
}

// CreateTaskInput defines the input for the create_task tool.
type CreateTaskInput struct {
	Title           string  `json:"title" jsonschema:"Short task title; place names after 'at' or '@' are used for location suggestions"`
	Description     *string `json:"description,omitempty" jsonschema:"Free-form notes"`
	Priority        *int    `json:"priority,omitempty" jsonschema:"Priority from 1 (low) to 5 (high), default 3"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" jsonschema:"Expected duration in minutes, 15 to 240"`
	Location        *string `json:"location,omitempty" jsonschema:"Where the task happens"`
	DueDate         string  `json:"due_date,omitempty" jsonschema:"Due date as RFC3339 or a phrase like 'friday 5pm'"`
}

// CreateTaskTool returns the tool definition for create_task.
func CreateTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task in the backlog. Location suggestions and a time estimate are computed from the title.",
	}
}

// HandleCreateTask handles the create_task tool call.
func (h *Handler) HandleCreateTask(ctx context.Context, req *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, TaskSummary, error) {
	h.Logger.Info("create_task", "title_len", len(input.Title))

	var due *time.Time
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		t, err := service.ParseDateTime(raw, h.Now(), h.Planner.Location())
		if err != nil {
			return nil, TaskSummary{}, fmt.Errorf("due_date: %w", err)
		}
		due = &t
	}

	task, err := h.Tasks.Create(ctx, service.TaskInput{
		Title:           input.Title,
		Description:     input.Description,
		Priority:        input.Priority,
		DurationMinutes: input.DurationMinutes,
		Location:        input.Location,
		DueDate:         due,
	})
	if err != nil {
		return nil, TaskSummary{}, fmt.Errorf("failed to create task: %w", err)
	}
	return nil, h.summarize(*task), nil
}

// SetTaskStatusInput defines the input for the set_task_status tool.
type SetTaskStatusInput struct {
	ID     uint   `json:"id" jsonschema:"Task ID"`
	Status string `json:"status" jsonschema:"New status: pending, scheduled, done"`
}

// SetTaskStatusTool returns the tool definition for set_task_status.
func SetTaskStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_task_status",
		Description: "Change the status of a task, for example to mark it done.",
	}
}

// HandleSetTaskStatus handles the set_task_status tool call.
func (h *Handler) HandleSetTaskStatus(ctx context.Context, req *mcp.CallToolRequest, input SetTaskStatusInput) (*mcp.CallToolResult, TaskSummary, error) {
	h.Logger.Info("set_task_status", "id", input.ID, "status", input.Status)

	if !model.IsValidTaskStatus(input.Status) {
		return nil, TaskSummary{}, fmt.Errorf("invalid status: %s (must be one of: pending, scheduled, done)", input.Status)
	}
	task, err := h.Tasks.SetStatus(ctx, input.ID, model.TaskStatus(input.Status))
	if err != nil {
		return nil, TaskSummary{}, fmt.Errorf("failed to update task %d: %w", input.ID, err)
	}
	return nil, h.summarize(*task), nil
}

// DeleteTaskInput defines the input for the delete_task tool.
type DeleteTaskInput struct {
	ID uint `json:"id" jsonschema:"Task ID"`
}

// DeleteTaskOutput defines the output for the delete_task tool.
type DeleteTaskOutput struct {
	Deleted bool `json:"deleted"`
	ID      uint `json:"id"`
}

// DeleteTaskTool returns the tool definition for delete_task.
func DeleteTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task together with its plan blocks, reminders and location suggestions.",
	}
}

// HandleDeleteTask handles the delete_task tool call.
func (h *Handler) HandleDeleteTask(ctx context.Context, req *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	h.Logger.Info("delete_task", "id", input.ID)

	if err := h.Tasks.Delete(ctx, input.ID); err != nil {
		return nil, DeleteTaskOutput{}, fmt.Errorf("failed to delete task %d: %w", input.ID, err)
	}
	return nil, DeleteTaskOutput{Deleted: true, ID: input.ID}, nil
}

// InferLocationsInput defines the input for the infer_locations tool.
type InferLocationsInput struct {
	Title string `json:"title" jsonschema:"Task title to extract places from"`
}

// InferLocationsOutput defines the output for the infer_locations tool.
type InferLocationsOutput struct {
	Suggestions []service.LocationSuggestion `json:"suggestions"`
}

// InferLocationsTool returns the tool definition for infer_locations.
func InferLocationsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "infer_locations",
		Description: "Suggest nearby places for a task title without saving anything. Requires a home address.",
	}
}

// HandleInferLocations handles the infer_locations tool call.
func (h *Handler) HandleInferLocations(ctx context.Context, req *mcp.CallToolRequest, input InferLocationsInput) (*mcp.CallToolResult, InferLocationsOutput, error) {
	h.Logger.Info("infer_locations", "title_len", len(input.Title))

	if strings.TrimSpace(input.Title) == "" {
		return nil, InferLocationsOutput{}, fmt.Errorf("title is required")
	}
	suggestions, err := h.Locations.InferLocations(ctx, input.Title)
	if err != nil {
		return nil, InferLocationsOutput{}, fmt.Errorf("failed to infer locations: %w", err)
	}
	if suggestions == nil {
		suggestions = []service.LocationSuggestion{}
	}
	return nil, InferLocationsOutput{Suggestions: suggestions}, nil
}
