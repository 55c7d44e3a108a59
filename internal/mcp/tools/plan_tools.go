package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PlanDateInput is shared by generate_plan and get_plan.
type PlanDateInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD or a phrase like 'tomorrow'; defaults to today"`
}

// GeneratePlanTool returns the tool definition for generate_plan.
func GeneratePlanTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_plan",
		Description: "Build the plan for a day from the backlog, highest priority first, replacing any earlier plan for that day.",
	}
}

// HandleGeneratePlan handles the generate_plan tool call.
func (h *Handler) HandleGeneratePlan(ctx context.Context, req *mcp.CallToolRequest, input PlanDateInput) (*mcp.CallToolResult, PlanOutput, error) {
	h.Logger.Info("generate_plan", "date", input.Date)

	day, err := h.Planner.ParseDate(input.Date)
	if err != nil {
		return nil, PlanOutput{}, fmt.Errorf("date: %w", err)
	}
	plan, err := h.Planner.GeneratePlan(ctx, day)
	if err != nil {
		return nil, PlanOutput{}, fmt.Errorf("failed to generate plan: %w", err)
	}
	return nil, h.planOutput(plan), nil
}

// GetPlanTool returns the tool definition for get_plan.
func GetPlanTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_plan",
		Description: "Return the stored plan for a day without regenerating it.",
	}
}

// HandleGetPlan handles the get_plan tool call.
func (h *Handler) HandleGetPlan(ctx context.Context, req *mcp.CallToolRequest, input PlanDateInput) (*mcp.CallToolResult, PlanOutput, error) {
	h.Logger.Info("get_plan", "date", input.Date)

	day, err := h.Planner.ParseDate(input.Date)
	if err != nil {
		return nil, PlanOutput{}, fmt.Errorf("date: %w", err)
	}
	plan, err := h.Planner.GetPlan(ctx, day)
	if err != nil {
		return nil, PlanOutput{}, fmt.Errorf("failed to load plan for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil, h.planOutput(plan), nil
}
