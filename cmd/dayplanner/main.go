package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"day-planner/internal/calendar"
	"day-planner/internal/config"
	"day-planner/internal/mcp"
	"day-planner/internal/render"
	"day-planner/internal/service"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dayplanner",
	Short: "Plan your day from a prioritised task backlog",
	Long: `dayplanner keeps a task backlog, suggests places for errands, estimates
travel time from home and packs the highest priority tasks into a working day.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
		logger = newLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, reminder scheduler and Telegram bot",
	RunE:  runServe,
}

var planCmd = &cobra.Command{
	Use:   "plan [date]",
	Short: "Generate and print the plan for a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlan,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks by priority",
	RunE:  runTasks,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample tasks into an empty database",
	RunE:  runSeed,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the planner to AI agents over MCP on stdio",
	RunE:  runMCP,
}

var calendarAuthCmd = &cobra.Command{
	Use:   "calendar-auth",
	Short: "Authorize Google Calendar sync and store the token",
	RunE:  runCalendarAuth,
}

func init() {
	planCmd.Flags().Bool("show", false, "Show the stored plan instead of regenerating it")
	planCmd.Flags().String("ics", "", "Also write the plan as an iCalendar file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(calendarAuthCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	day, err := a.planner.ParseDate(raw)
	if err != nil {
		return err
	}

	show, _ := cmd.Flags().GetBool("show")
	var plan *service.Plan
	if show {
		plan, err = a.planner.GetPlan(ctx, day)
	} else {
		plan, err = a.planner.GeneratePlan(ctx, day)
	}
	if err != nil {
		return fmt.Errorf("plan for %s: %w", day.Format(time.DateOnly), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Plan(plan, a.loc))

	if path, _ := cmd.Flags().GetString("ics"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		if err := calendar.EncodePlan(f, plan, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Calendar written to %s\n", path)
	}
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.tasks.List(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Tasks(tasks))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.tasks.Seed(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Tasks already exist, nothing seeded.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sample tasks.\n", n)
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// stdout carries the protocol; logs stay on stderr.
	logger.Info("starting MCP server on stdio")
	return mcp.NewServer(a.tasks, a.planner, a.locations, logger).Run(cmd.Context())
}

func runCalendarAuth(cmd *cobra.Command, args []string) error {
	if !cfg.CalendarEnabled() {
		return fmt.Errorf("set GOOGLE_CALENDAR_CREDENTIALS to the OAuth client file first")
	}
	oauthCfg, err := calendar.LoadOAuthConfig(cfg.Calendar.CredentialsFile)
	if err != nil {
		return err
	}

	tok, err := calendar.Authorize(cmd.Context(), oauthCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	path := cfg.CalendarTokenPath()
	if err := calendar.SaveToken(path, tok); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", path)
	return nil
}
