package mcp

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"day-planner/internal/mcp/tools"
	"day-planner/internal/service"
)

const (
	ServerName    = "day-planner"
	ServerVersion = "v1.0.0"
)

// Server exposes the planner to AI agents over the Model Context Protocol.
type Server struct {
	mcpServer *mcp.Server
	logger    *slog.Logger
	handler   *tools.Handler
}

// NewServer creates a new planner MCP server
func NewServer(tasks *service.TaskService, planner *service.PlannerService, locations *service.LocationService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		logger:    logger,
		handler:   tools.NewHandler(tasks, planner, locations, logger),
	}

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, tools.ListTasksTool(), s.handler.HandleListTasks)
	mcp.AddTool(s.mcpServer, tools.CreateTaskTool(), s.handler.HandleCreateTask)
	mcp.AddTool(s.mcpServer, tools.SetTaskStatusTool(), s.handler.HandleSetTaskStatus)
	mcp.AddTool(s.mcpServer, tools.DeleteTaskTool(), s.handler.HandleDeleteTask)
	mcp.AddTool(s.mcpServer, tools.InferLocationsTool(), s.handler.HandleInferLocations)
	mcp.AddTool(s.mcpServer, tools.GeneratePlanTool(), s.handler.HandleGeneratePlan)
	mcp.AddTool(s.mcpServer, tools.GetPlanTool(), s.handler.HandleGetPlan)
}

// HTTPHandler returns an http.Handler serving the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Logger: s.logger,
		},
	)
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
