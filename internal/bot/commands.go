package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
	"task-dashboard/internal/service"
)

// defaultCategoryID is used by /add when no category is given, as the web form does.
const defaultCategoryID = 1

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /tasks [status] — list tasks by due date (pending, in-progress, completed)\n" +
	"• /overdue — open tasks past their due date\n" +
	"• /stats — totals and completion rate\n" +
	"• /categories — tasks per category\n" +
	"• /add title | description | YYYY-MM-DD [| category] [| priority] — new task\n" +
	"• /done &lt;id&gt; — mark completed\n" +
	"• /progress &lt;id&gt; — mark in progress\n" +
	"• /reopen &lt;id&gt; — back to pending\n" +
	"• /delete &lt;id&gt; — remove a task\n" +
	"• /report — the daily report now\n" +
	"• /stop — stop receiving reports"

// Incoming is a parsed chat command.
type Incoming struct {
	ChatID    int64
	FirstName string
	Username  string
	Command   string
	Args      string
}

// Commands turns chat commands into service calls and HTML replies.
type Commands struct {
	subscribers *repository.SubscriberRepository
	tasks       *service.TaskService
	categories  *service.CategoryService
	stats       *service.StatsService
	reminders   *service.ReminderService
}

func NewCommands(subscribers *repository.SubscriberRepository, tasks *service.TaskService, categories *service.CategoryService, stats *service.StatsService, reminders *service.ReminderService) *Commands {
	return &Commands{
		subscribers: subscribers,
		tasks:       tasks,
		categories:  categories,
		stats:       stats,
		reminders:   reminders,
	}
}

// Handle executes one command. User-facing failures come back as reply text;
// only infrastructure errors are returned.
func (c *Commands) Handle(ctx context.Context, in Incoming) (string, error) {
	switch in.Command {
	case "start":
		return c.start(ctx, in)
	case "stop":
		return c.stop(ctx, in)
	case "help":
		return helpText, nil
	case "tasks":
		return c.listTasks(ctx, in.Args)
	case "overdue":
		return c.listOverdue(ctx)
	case "stats":
		return c.showStats(ctx)
	case "categories":
		return c.listCategories(ctx)
	case "add":
		return c.addTask(ctx, in.Args)
	case "done":
		return c.setStatus(ctx, in.Args, model.StatusCompleted)
	case "progress":
		return c.setStatus(ctx, in.Args, model.StatusInProgress)
	case "reopen":
		return c.setStatus(ctx, in.Args, model.StatusPending)
	case "delete":
		return c.deleteTask(ctx, in.Args)
	case "report":
		return c.reminders.DailySummary(ctx)
	default:
		return "Unknown command. See /help.", nil
	}
}

func (c *Commands) start(ctx context.Context, in Incoming) (string, error) {
	if _, err := c.subscribers.Upsert(ctx, in.ChatID, in.FirstName, in.Username); err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.FirstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("👋 Hi, %s!\n<b>I keep an eye on your task dashboard and send you a daily report.</b>\n\n%s",
		html.EscapeString(name), helpText), nil
}

func (c *Commands) stop(ctx context.Context, in Incoming) (string, error) {
	removed, err := c.subscribers.Remove(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if !removed {
		return "You were not subscribed.", nil
	}
	return "🔕 Reports stopped. Send /start to subscribe again.", nil
}

func (c *Commands) listTasks(ctx context.Context, args string) (string, error) {
	var q service.TaskQuery
	if raw := strings.TrimSpace(args); raw != "" {
		status, err := model.ParseStatus(strings.ToLower(raw))
		if err != nil {
			return "Unknown status. Use pending, in-progress or completed.", nil
		}
		q.Status = status
	}
	tasks, err := c.tasks.QueryTasks(ctx, q)
	if err != nil {
		return "", err
	}
	return c.renderList(ctx, "📋 <b>Tasks</b>", "No tasks match.", tasks)
}

func (c *Commands) listOverdue(ctx context.Context) (string, error) {
	tasks, err := c.tasks.QueryTasks(ctx, service.TaskQuery{OverdueOnly: true})
	if err != nil {
		return "", err
	}
	return c.renderList(ctx, "⚠️ <b>Overdue</b>", "Nothing overdue. 🎉", tasks)
}

func (c *Commands) renderList(ctx context.Context, title, empty string, tasks []model.Task) (string, error) {
	if len(tasks) == 0 {
		return empty, nil
	}
	names, err := c.categories.Names(ctx)
	if err != nil {
		return "", err
	}
	today := c.tasks.Today()
	var sb strings.Builder
	sb.WriteString(title + "\n")
	for _, task := range tasks {
		sb.WriteString(service.FormatTask(task, names, today))
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Commands) showStats(ctx context.Context) (string, error) {
	stats, err := c.stats.ComputeStats(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 <b>Stats</b>\nTotal: %d\nPending: %d\nIn progress: %d\nCompleted: %d\nOverdue: %d\nCompletion rate: %d%%",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Overdue, stats.CompletionRate), nil
}

func (c *Commands) listCategories(ctx context.Context) (string, error) {
	breakdown, err := c.stats.CategoryBreakdown(ctx)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range breakdown {
		sb.WriteString(fmt.Sprintf("%s %s — %d tasks, %d%% done\n",
			cat.Icon, html.EscapeString(cat.Name), cat.Total, cat.CompletionRate))
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Commands) addTask(ctx context.Context, args string) (string, error) {
	input, problem, err := c.parseAddArgs(ctx, args)
	if err != nil {
		return "", err
	}
	if problem != "" {
		return problem, nil
	}

	if err := c.tasks.ValidateInput(ctx, input); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return "Missing or invalid: " + strings.Join(verr.Fields, ", ") + ".", nil
		}
		return "", err
	}
	task, err := c.tasks.CreateTask(ctx, input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Task #%d created: %s", task.ID, html.EscapeString(task.Title)), nil
}

// parseAddArgs splits "title | description | date [| category] [| priority]".
// A non-empty problem is a message for the user.
func (c *Commands) parseAddArgs(ctx context.Context, args string) (model.TaskInput, string, error) {
	usage := "Usage: /add title | description | YYYY-MM-DD [| category] [| priority]"
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || len(parts) > 5 {
		return model.TaskInput{}, usage, nil
	}

	input := model.TaskInput{
		Title:       parts[0],
		Description: parts[1],
		CategoryID:  defaultCategoryID,
	}
	if parts[2] != "" {
		due, err := model.ParseDate(parts[2])
		if err != nil {
			return input, "Due date must look like 2025-09-01.", nil
		}
		input.DueDate = due
	}
	if len(parts) >= 4 && parts[3] != "" {
		id, ok, err := c.resolveCategory(ctx, parts[3])
		if err != nil {
			return input, "", err
		}
		if !ok {
			return input, fmt.Sprintf("Unknown category %q. See /categories.", parts[3]), nil
		}
		input.CategoryID = id
	}
	if len(parts) == 5 && parts[4] != "" {
		input.Priority = model.Priority(strings.ToLower(parts[4]))
	}
	return input, "", nil
}

func (c *Commands) resolveCategory(ctx context.Context, raw string) (uint, bool, error) {
	categories, err := c.categories.ListCategories(ctx)
	if err != nil {
		return 0, false, err
	}
	if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
		for _, cat := range categories {
			if cat.ID == uint(id) {
				return cat.ID, true, nil
			}
		}
		return 0, false, nil
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, raw) {
			return cat.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *Commands) setStatus(ctx context.Context, args string, status model.Status) (string, error) {
	id, err := parseTaskID(args)
	if err != nil {
		return "Give a task number, e.g. /done 3.", nil
	}
	task, err := c.tasks.SetStatus(ctx, id, status)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Sprintf("Task #%d not found.", id), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task #%d “%s” is now %s.", task.ID, html.EscapeString(task.Title), task.Status), nil
}

func (c *Commands) deleteTask(ctx context.Context, args string) (string, error) {
	id, err := parseTaskID(args)
	if err != nil {
		return "Give a task number, e.g. /delete 3.", nil
	}
	task, err := c.tasks.DeleteTask(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Sprintf("Task #%d not found.", id), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑 Task #%d “%s” deleted.", task.ID, html.EscapeString(task.Title)), nil
}

func parseTaskID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return uint(id), nil
}
