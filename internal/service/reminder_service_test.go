package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/internal/model"
)

func TestDailySummary(t *testing.T) {
	s := newServices(t, true)
	ctx := context.Background()

	_, err := s.tasks.CreateTask(ctx, model.TaskInput{
		Title:       "Pay <rent>",
		Description: "Transfer",
		CategoryID:  2,
		DueDate:     model.MustParseDate("2025-08-27"),
	})
	require.NoError(t, err)

	summary, err := s.reminders.DailySummary(ctx)
	require.NoError(t, err)

	assert.Contains(t, summary, "2025-08-26")
	assert.Contains(t, summary, "7 tasks")
	assert.Contains(t, summary, "#1 Complete project proposal <i>(Work)</i>")
	assert.Contains(t, summary, "<b>overdue</b>")
	assert.Contains(t, summary, "#7 Pay &lt;rent&gt;")
	assert.Contains(t, summary, "1 days left")
	assert.Contains(t, summary, "#3 Learn Next.js fundamentals")
	assert.NotContains(t, summary, "Morning workout routine")
}

func TestDailySummary_EmptyStore(t *testing.T) {
	s := newServices(t, false)

	summary, err := s.reminders.DailySummary(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary, "nothing overdue")
	assert.Contains(t, summary, "nothing in progress")
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := BuildDailySpec("09:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 9 * * *", spec)

	for _, bad := range []string{"9", "24:00", "12:60", "aa:bb"} {
		_, err := BuildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_Register(t *testing.T) {
	sched := NewSchedulerService(time.UTC)
	_, err := sched.ScheduleDaily("08:00", func() {})
	require.NoError(t, err)
	_, err = sched.ScheduleInterval(0, func() {})
	assert.Error(t, err)
	assert.Equal(t, 1, sched.Entries())
}

func TestSchedulerService_ScheduleReport(t *testing.T) {
	sched := NewSchedulerService(time.UTC)
	_, err := sched.ScheduleReport(2*time.Hour, "not a time", func() {})
	require.NoError(t, err, "interval wins over the daily time")
	_, err = sched.ScheduleReport(0, "18:30", func() {})
	require.NoError(t, err)
	_, err = sched.ScheduleReport(0, "18h30", func() {})
	assert.Error(t, err)
	assert.Equal(t, 2, sched.Entries())
}
