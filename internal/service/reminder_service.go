package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"task-dashboard/internal/model"
)

// dueSoonDays is how far ahead the report looks for upcoming deadlines.
const dueSoonDays = 2

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	tasks      *TaskService
	categories *CategoryService
}

func NewReminderService(tasks *TaskService, categories *CategoryService) *ReminderService {
	return &ReminderService{tasks: tasks, categories: categories}
}

// DailySummary renders the report as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context) (string, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	catNames, err := s.categories.Names(ctx)
	if err != nil {
		return "", err
	}

	today := s.tasks.Today()
	stats := Summarize(tasks, today)

	var overdue, dueSoon, inProgress []model.Task
	for _, task := range tasks {
		switch {
		case task.Status == model.StatusCompleted:
			continue
		case task.IsOverdue(today):
			overdue = append(overdue, task)
		case today.DaysUntil(task.DueDate) <= dueSoonDays:
			dueSoon = append(dueSoon, task)
		}
		if task.Status == model.StatusInProgress {
			inProgress = append(inProgress, task)
		}
	}
	byDue := func(list []model.Task) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].DueDate.Before(list[j].DueDate) })
	}
	byDue(overdue)
	byDue(dueSoon)
	byDue(inProgress)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today))
	builder.WriteString(fmt.Sprintf("📊 %d tasks · ✅ %d completed (%d%%) · 🔄 %d in progress · ⚠️ %d overdue\n",
		stats.Total, stats.Completed, stats.CompletionRate, stats.InProgress, stats.Overdue))

	writeSection(&builder, "⚠️ <b>Overdue</b>", "— nothing overdue", overdue, catNames, today)
	writeSection(&builder, "⏳ <b>Due soon</b>", "— no deadlines in the next two days", dueSoon, catNames, today)
	writeSection(&builder, "🔄 <b>In progress</b>", "— nothing in progress", inProgress, catNames, today)

	return strings.TrimSpace(builder.String()), nil
}

func writeSection(b *strings.Builder, title, empty string, tasks []model.Task, catNames map[uint]string, today model.Date) {
	b.WriteString("\n" + title + "\n")
	if len(tasks) == 0 {
		b.WriteString(empty + "\n")
		return
	}
	for _, task := range tasks {
		b.WriteString(FormatTask(task, catNames, today))
	}
}

// FormatTask renders one task line in Telegram HTML.
func FormatTask(task model.Task, catNames map[uint]string, today model.Date) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Status == model.StatusCompleted:
		icon = "✅"
	case task.IsOverdue(today):
		icon = "⚠️"
	case today.DaysUntil(task.DueDate) <= dueSoonDays:
		icon = "⏳"
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, title))

	name := strings.TrimSpace(NameFrom(catNames, task.CategoryID))
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))

	switch {
	case task.Status == model.StatusCompleted && task.CompletedAt != nil:
		sb.WriteString(fmt.Sprintf("\n   ✅ done %s", task.CompletedAt))
	case task.IsOverdue(today):
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s, <b>overdue</b>", task.DueDate))
	default:
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d days left", task.DueDate, today.DaysUntil(task.DueDate)))
	}
	sb.WriteString(fmt.Sprintf(" · %s priority", task.Priority))

	sb.WriteByte('\n')
	return sb.String()
}
