package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbConfirmPrefix  = "confirm:"
	cbCancelPrefix   = "cancel:"
)

const (
	iconPending   = "🟢"
	iconScheduled = "🗓"
	iconDone      = "✔️"
	iconOverdue   = "⚠️"
)

const helpText = `📋 <b>Day planner</b>

/today - show today's plan
/plan [date] - build the plan for a day (default today)
/tasks - list tasks with quick actions
/add [title] - add a task
/done &lt;id&gt; - mark a task done
/reminders - today's reminders
/home [address] - show or set the home address
/cancel - abort the current input`

// api is the subset of *tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot exposes the planner over Telegram and delivers reminders to the
// configured chat.
type Bot struct {
	api       api
	chatID    int64
	tasks     *service.TaskService
	planner   *service.PlannerService
	locations *service.LocationService
	logger    *slog.Logger

	awaitingTitle map[int64]bool
	mu            sync.Mutex
}

func New(token string, chatID int64, tasks *service.TaskService, planner *service.PlannerService, locations *service.LocationService, logger *slog.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(client, chatID, tasks, planner, locations, logger)
	b.logger.Info("bot authorized", "account", client.Self.UserName)
	return b, nil
}

func newBot(client api, chatID int64, tasks *service.TaskService, planner *service.PlannerService, locations *service.LocationService, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bot{
		api:           client,
		chatID:        chatID,
		tasks:         tasks,
		planner:       planner,
		locations:     locations,
		logger:        logger,
		awaitingTitle: make(map[int64]bool),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	}
	if err != nil {
		b.logger.Error("handle update", "update_id", update.UpdateID, "err", err)
	}
}

// allowed restricts the bot to the configured chat when one is set.
func (b *Bot) allowed(chatID int64) bool {
	return b.chatID == 0 || b.chatID == chatID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil || !b.allowed(msg.Chat.ID) {
		return nil
	}
	if msg.IsCommand() {
		return b.handleCommand(ctx, msg)
	}
	if b.takeAwaiting(msg.Chat.ID) {
		return b.addTask(ctx, msg.Chat.ID, msg.Text)
	}
	return b.sendText(msg.Chat.ID, "Send /help to see what I can do.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	b.logger.Debug("command", "chat", chatID, "command", msg.Command())

	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText)
	case "today":
		return b.handleToday(ctx, chatID)
	case "plan":
		return b.handlePlan(ctx, chatID, args)
	case "tasks":
		return b.sendTaskList(ctx, chatID)
	case "add":
		if args == "" {
			b.setAwaiting(chatID)
			return b.sendText(chatID, "What should I add? Send the task title.")
		}
		return b.addTask(ctx, chatID, args)
	case "done":
		return b.handleDone(ctx, chatID, args)
	case "reminders":
		return b.handleReminders(ctx, chatID)
	case "home":
		return b.handleHome(ctx, chatID, args)
	case "cancel":
		b.takeAwaiting(chatID)
		return b.sendText(chatID, "Input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. Send /help.")
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	plan, err := b.planner.GetPlan(ctx, b.planner.Today())
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "Nothing planned for today yet. Run /plan to build one.")
	}
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, service.PlanSummary(plan, b.planner.Location()))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, args string) error {
	day, err := b.planner.ParseDate(args)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not understand the date %q.", escape(args)))
	}
	plan, err := b.planner.GeneratePlan(ctx, day)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, service.PlanSummary(plan, b.planner.Location()))
}

func (b *Bot) addTask(ctx context.Context, chatID int64, title string) error {
	task, err := b.tasks.Create(ctx, service.TaskInput{Title: strings.TrimSpace(title)})
	if err != nil {
		return b.sendError(chatID, err)
	}
	b.logger.Info("task added", "id", task.ID, "chat", chatID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "➕ Added <b>#%d</b> %s", task.ID, escape(task.Title))
	for _, sg := range task.LocationSuggestions {
		fmt.Fprintf(&sb, "\n   📍 %s", escape(sg.Label))
		if sg.Address != nil {
			fmt.Fprintf(&sb, " <i>(%s)</i>", escape(*sg.Address))
		}
	}
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Give me the task id: /done 12")
	}
	id, err := parseID(args)
	if err != nil {
		return b.sendText(chatID, "The task id must be a number.")
	}
	return b.completeTask(ctx, chatID, id)
}

func (b *Bot) handleReminders(ctx context.Context, chatID int64) error {
	reminders, err := b.planner.TodayReminders(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(reminders) == 0 {
		return b.sendText(chatID, "No reminders for today.")
	}

	loc := b.planner.Location()
	var sb strings.Builder
	sb.WriteString("⏰ <b>Today's reminders</b>\n")
	for _, r := range reminders {
		state := ""
		if r.NotifiedAt != nil {
			state = " " + iconDone
		}
		fmt.Fprintf(&sb, "\n%s task #%d%s", r.TriggerTime.In(loc).Format("15:04"), r.TaskID, state)
		if r.ReminderType == model.ReminderTypeLocation && r.LocationHint != nil {
			fmt.Fprintf(&sb, " 📍 %s", escape(*r.LocationHint))
		}
	}
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleHome(ctx context.Context, chatID int64, args string) error {
	if args != "" {
		home, err := b.locations.EnsureHome(ctx)
		if err != nil {
			return b.sendError(chatID, err)
		}
		if _, err := b.locations.SaveHome(ctx, home.Name, &args); err != nil {
			return b.sendError(chatID, err)
		}
	}
	home, err := b.locations.EnsureHome(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	addr := home.HomeAddress()
	if addr == "" {
		return b.sendText(chatID, "🏠 No home address yet. Set one with /home &lt;address&gt;.")
	}
	return b.sendText(chatID, fmt.Sprintf("🏠 %s <i>(%s)</i>", escape(home.Name), escape(addr)))
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, err := b.tasks.List(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}

	now := time.Now()
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.Status == model.TaskStatusDone {
			continue
		}
		builder.WriteString(formatTask(task, now, b.planner.Location()))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}
	if len(buttons) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /add.")
	}

	text := "📋 <b>Open tasks</b>\n\n" + strings.TrimSpace(builder.String())
	return b.sendWithMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "err", err)
	}
	chatID := cb.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		id, err := parseID(strings.TrimPrefix(data, cbCompletePrefix))
		if err != nil {
			return nil
		}
		if err := b.completeTask(ctx, chatID, id); err != nil {
			return err
		}
		return b.sendTaskList(ctx, chatID)
	case strings.HasPrefix(data, cbDeletePrefix):
		id, err := parseID(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, id)
	case strings.HasPrefix(data, cbConfirmPrefix):
		id, err := parseID(strings.TrimPrefix(data, cbConfirmPrefix))
		if err != nil {
			return nil
		}
		return b.deleteTaskAndRefresh(ctx, chatID, id)
	case strings.HasPrefix(data, cbCancelPrefix):
		return b.sendText(chatID, "Okay, keeping it.")
	default:
		return nil
	}
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, id uint) error {
	task, err := b.tasks.SetStatus(ctx, id, model.TaskStatusDone)
	if err != nil {
		return b.sendError(chatID, err)
	}
	b.logger.Info("task completed", "id", task.ID)
	return b.sendText(chatID, fmt.Sprintf("✅ Task «%s» is done.", escape(task.Title)))
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, id uint) error {
	task, err := b.tasks.Get(ctx, id)
	if err != nil {
		return b.sendError(chatID, err)
	}
	text := fmt.Sprintf("Delete task «%s» (#%d)?", escape(task.Title), task.ID)
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Delete", fmt.Sprintf("%s%d", cbConfirmPrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", fmt.Sprintf("%s%d", cbCancelPrefix, task.ID)),
	))
	return b.sendWithMarkup(chatID, text, markup)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, id uint) error {
	if err := b.tasks.Delete(ctx, id); err != nil {
		return b.sendError(chatID, err)
	}
	b.logger.Info("task deleted", "id", id)
	if err := b.sendText(chatID, fmt.Sprintf("🗑 Task #%d deleted.", id)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

// Notify delivers a reminder to the configured chat.
func (b *Bot) Notify(_ context.Context, notice service.ReminderNotice) error {
	if b.chatID == 0 {
		return errors.New("telegram chat id is not configured")
	}
	return b.sendText(b.chatID, escape(service.FormatReminder(notice, b.planner.Location())))
}

// SendPlan posts a plan summary to the configured chat.
func (b *Bot) SendPlan(_ context.Context, plan *service.Plan) error {
	if b.chatID == 0 {
		return nil
	}
	return b.sendText(b.chatID, service.PlanSummary(plan, b.planner.Location()))
}

func (b *Bot) sendError(chatID int64, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(chatID, "Task not found.")
	case errors.As(err, &verr):
		return b.sendText(chatID, "⚠️ "+escape(strings.Join(verr.Problems, "; ")))
	default:
		b.logger.Error("bot request failed", "chat", chatID, "err", err)
		return b.sendText(chatID, "Something went wrong, try again later.")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) setAwaiting(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.awaitingTitle[chatID] = true
}

func (b *Bot) takeAwaiting(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	waiting := b.awaitingTitle[chatID]
	delete(b.awaitingTitle, chatID)
	return waiting
}

func formatTask(task model.Task, now time.Time, loc *time.Location) string {
	var b strings.Builder
	icon := iconPending
	if task.Status == model.TaskStatusScheduled {
		icon = iconScheduled
	}
	if task.DueDate != nil && now.After(*task.DueDate) {
		icon = iconOverdue
	}
	fmt.Fprintf(&b, "%s <b>#%d</b> %s · P%d · %d min\n", icon, task.ID, escape(task.Title), task.Priority, task.DurationMinutes)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "   ⏰ Due %s\n", task.DueDate.In(loc).Format("2006-01-02 15:04"))
	}
	if task.HasLocation() {
		fmt.Fprintf(&b, "   📍 %s\n", escape(*task.Location))
	}
	if task.TimeEstimateMeta != nil && task.TimeEstimateMeta.Summary != "" {
		fmt.Fprintf(&b, "   🚗 %s\n", escape(task.TimeEstimateMeta.Summary))
	}
	b.WriteByte('\n')
	return b.String()
}

func shortTitle(title string, limit int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(value), nil
}

func escape(s string) string {
	return html.EscapeString(s)
}
