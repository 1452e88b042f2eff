package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
)

// testToday is the fixed "today" used by date-dependent tests.
var testToday = time.Date(2025, time.August, 26, 10, 30, 0, 0, time.UTC)

type services struct {
	tasks      *TaskService
	categories *CategoryService
	stats      *StatsService
	reminders  *ReminderService
}

func newServices(t *testing.T, withTasks bool) services {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Seed(context.Background(), db, withTasks))

	categoryRepo := repository.NewCategoryRepository(db)
	tasks := NewTaskService(repository.NewTaskRepository(db), categoryRepo, FixedClock(testToday))
	categories := NewCategoryService(categoryRepo, tasks)
	return services{
		tasks:      tasks,
		categories: categories,
		stats:      NewStatsService(tasks, categories),
		reminders:  NewReminderService(tasks, categories),
	}
}

func taskIDs(tasks []model.Task) []uint {
	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

// requireCompletedInvariant checks completedAt is set exactly for completed tasks.
func requireCompletedInvariant(t *testing.T, s *TaskService) {
	t.Helper()
	tasks, err := s.ListTasks(context.Background())
	require.NoError(t, err)
	for _, task := range tasks {
		if task.Status == model.StatusCompleted {
			require.NotNil(t, task.CompletedAt, "task %d completed without completedAt", task.ID)
		} else {
			require.Nil(t, task.CompletedAt, "task %d open with completedAt", task.ID)
		}
	}
}

func ptr[T any](v T) *T { return &v }
