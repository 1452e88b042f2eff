package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
	"task-dashboard/internal/service"
)

type fixture struct {
	commands    *Commands
	tasks       *service.TaskService
	subscribers *repository.SubscriberRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Seed(context.Background(), db, true))

	categoryRepo := repository.NewCategoryRepository(db)
	clock := service.FixedClock(time.Date(2025, time.August, 26, 7, 0, 0, 0, time.UTC))
	tasks := service.NewTaskService(repository.NewTaskRepository(db), categoryRepo, clock)
	categories := service.NewCategoryService(categoryRepo, tasks)
	subscribers := repository.NewSubscriberRepository(db)

	return fixture{
		commands: NewCommands(subscribers, tasks, categories,
			service.NewStatsService(tasks, categories),
			service.NewReminderService(tasks, categories)),
		tasks:       tasks,
		subscribers: subscribers,
	}
}

func (f fixture) run(t *testing.T, command, args string) string {
	t.Helper()
	reply, err := f.commands.Handle(context.Background(), Incoming{ChatID: 42, FirstName: "Sam", Command: command, Args: args})
	require.NoError(t, err)
	return reply
}

func TestStartAndStop(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "start", ""), "Hi, Sam!")
	subs, err := f.subscribers.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(42), subs[0].ChatID)

	assert.Contains(t, f.run(t, "stop", ""), "Reports stopped")
	assert.Equal(t, "You were not subscribed.", f.run(t, "stop", ""))
}

func TestListCommands(t *testing.T) {
	f := newFixture(t)

	tasks := f.run(t, "tasks", "")
	assert.Contains(t, tasks, "#6 Code review meeting")
	assert.Contains(t, tasks, "#3 Learn Next.js fundamentals")

	completed := f.run(t, "tasks", "done")
	assert.Contains(t, completed, "#2 Morning workout routine")
	assert.NotContains(t, completed, "#1 ")

	assert.Contains(t, f.run(t, "tasks", "archived"), "Unknown status")

	overdue := f.run(t, "overdue", "")
	assert.Contains(t, overdue, "#4 Buy groceries")
	assert.NotContains(t, overdue, "#3 ")

	stats := f.run(t, "stats", "")
	assert.Contains(t, stats, "Total: 6")
	assert.Contains(t, stats, "Completion rate: 33%")

	assert.Contains(t, f.run(t, "categories", ""), "Work — 2 tasks, 50% done")
	assert.Contains(t, f.run(t, "report", ""), "Daily report")
	assert.Contains(t, f.run(t, "help", ""), "/add")
	assert.Contains(t, f.run(t, "fly", ""), "Unknown command")
}

func TestAddCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply := f.run(t, "add", "Dentist | Book a check-up | 2025-09-03 | health | high")
	assert.Equal(t, "✅ Task #7 created: Dentist", reply)

	task, err := f.tasks.GetTask(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), task.CategoryID)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, "2025-09-03", task.DueDate.String())

	reply = f.run(t, "add", "Call | Quick call | 2025-09-04")
	assert.Equal(t, "✅ Task #8 created: Call", reply)
	task, err = f.tasks.GetTask(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, uint(defaultCategoryID), task.CategoryID)

	assert.Contains(t, f.run(t, "add", "only title"), "Usage")
	assert.Contains(t, f.run(t, "add", "A | B | tomorrow"), "Due date must look like")
	assert.Contains(t, f.run(t, "add", "A | B | 2025-09-01 | Gardening"), "Unknown category")
	assert.Equal(t, "Missing or invalid: description.", f.run(t, "add", "A |  | 2025-09-01"))
	assert.Equal(t, "Missing or invalid: priority.", f.run(t, "add", "A | B | 2025-09-01 | 2 | urgent"))
}

func TestStatusCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Contains(t, f.run(t, "done", "1"), "is now completed")
	task, err := f.tasks.GetTask(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, "2025-08-26", task.CompletedAt.String())

	assert.Contains(t, f.run(t, "reopen", "#1"), "is now pending")
	task, err = f.tasks.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	assert.Contains(t, f.run(t, "progress", "5"), "is now in-progress")
	assert.Equal(t, "Task #99 not found.", f.run(t, "done", "99"))
	assert.Contains(t, f.run(t, "done", "abc"), "Give a task number")
}

func TestDeleteCommand(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "delete", "4"), "Task #4 “Buy groceries” deleted")
	assert.Equal(t, "Task #4 not found.", f.run(t, "delete", "4"))

	_, err := f.tasks.GetTask(context.Background(), 4)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
