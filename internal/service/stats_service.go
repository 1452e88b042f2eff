package service

import (
	"context"
	"math"
	"sort"

	"task-dashboard/internal/model"
)

// recentTaskLimit is how many recently created tasks the dashboard shows.
const recentTaskLimit = 3

// Dashboard is the landing view: totals, latest tasks, overdue tasks and categories.
type Dashboard struct {
	Stats      model.Stats      `json:"stats"`
	Recent     []model.Task     `json:"recentTasks"`
	Overdue    []model.Task     `json:"overdueTasks"`
	Categories []model.Category `json:"categories"`
}

// StatsService derives statistics from the current task set on every call.
type StatsService struct {
	tasks      *TaskService
	categories *CategoryService
}

func NewStatsService(tasks *TaskService, categories *CategoryService) *StatsService {
	return &StatsService{tasks: tasks, categories: categories}
}

// CompletionRate is round(100*completed/total), or 0 for an empty set.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Summarize counts tasks by status and overdue state as of today.
func Summarize(tasks []model.Task, today model.Date) model.Stats {
	var stats model.Stats
	stats.Total = len(tasks)
	for _, task := range tasks {
		switch task.Status {
		case model.StatusPending:
			stats.Pending++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusCompleted:
			stats.Completed++
		}
		if task.IsOverdue(today) {
			stats.Overdue++
		}
	}
	stats.CompletionRate = CompletionRate(stats.Completed, stats.Total)
	return stats
}

func (s *StatsService) ComputeStats(ctx context.Context) (model.Stats, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return Summarize(tasks, s.tasks.Today()), nil
}

// CategoryBreakdown returns per-category status counts in category order.
func (s *StatsService) CategoryBreakdown(ctx context.Context) ([]model.CategoryStats, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uint][]model.Task)
	for _, task := range tasks {
		byCategory[task.CategoryID] = append(byCategory[task.CategoryID], task)
	}

	today := s.tasks.Today()
	out := make([]model.CategoryStats, 0, len(categories))
	for _, cat := range categories {
		sum := Summarize(byCategory[cat.ID], today)
		out = append(out, model.CategoryStats{
			Category:       cat,
			Total:          sum.Total,
			Pending:        sum.Pending,
			InProgress:     sum.InProgress,
			Completed:      sum.Completed,
			CompletionRate: sum.CompletionRate,
		})
	}
	return out, nil
}

func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	today := s.tasks.Today()
	overdue := make([]model.Task, 0)
	for _, task := range tasks {
		if task.IsOverdue(today) {
			overdue = append(overdue, task)
		}
	}

	recent := make([]model.Task, len(tasks))
	copy(recent, tasks)
	sort.SliceStable(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if len(recent) > recentTaskLimit {
		recent = recent[:recentTaskLimit]
	}

	return &Dashboard{
		Stats:      Summarize(tasks, today),
		Recent:     recent,
		Overdue:    overdue,
		Categories: categories,
	}, nil
}
