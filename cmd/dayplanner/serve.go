package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"day-planner/internal/api"
	"day-planner/internal/bot"
	"day-planner/internal/calendar"
	"day-planner/internal/mcp"
	"day-planner/internal/notify"
	"day-planner/internal/service"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.locations.EnsureHome(ctx); err != nil {
		return err
	}

	reminders := service.NewReminderService(a.store, a.loc, logger)
	if cfg.Schedule.DesktopNotifications {
		reminders.AddNotifier(notify.NewDesktop(a.loc))
	}

	if cfg.CalendarEnabled() {
		gs, err := calendar.NewGoogleSync(ctx, &a.cfg, logger)
		if err != nil {
			logger.Warn("google calendar sync disabled", "err", err)
		} else {
			a.planner.SetPublisher(gs)
		}
	}

	var telegram *bot.Bot
	if cfg.Telegram.Token != "" {
		telegram, err = bot.New(cfg.Telegram.Token, cfg.Telegram.ChatID, a.tasks, a.planner, a.locations, logger)
		if err != nil {
			return err
		}
		if cfg.Telegram.ChatID != 0 {
			reminders.AddNotifier(telegram)
		}
		go func() {
			if err := telegram.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped", "err", err)
			}
		}()
	}

	scheduler := service.NewSchedulerService(a.loc, logger)
	if err := scheduler.ScheduleReminders(reminders, cfg.Schedule.ReminderInterval); err != nil {
		return err
	}
	if cfg.Schedule.AutoPlanTime != "" {
		var onPlan func(context.Context, *service.Plan) error
		if telegram != nil {
			onPlan = telegram.SendPlan
		}
		if err := scheduler.ScheduleAutoPlan(a.planner, cfg.Schedule.AutoPlanTime, onPlan); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	mcpServer := mcp.NewServer(a.tasks, a.planner, a.locations, logger)
	srv := api.NewServer(a.tasks, a.planner, a.locations, &a.cfg, api.Options{
		NLPEnabled: a.nlp,
		MCP:        mcpServer.HTTPHandler(),
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting HTTP server",
		"addr", cfg.HTTPAddr,
		"jobs", scheduler.Entries(),
		"telegram", telegram != nil,
		"maps", cfg.MapsEnabled(),
		"nlp", a.nlp)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
