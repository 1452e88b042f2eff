package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
)

// TaskQuery narrows a task listing. Zero fields do not filter.
type TaskQuery struct {
	CategoryID  uint
	Status      model.Status
	OverdueOnly bool
}

// TaskService is the task store: every read and write of tasks goes through it.
// A single RWMutex serialises mutations, so concurrent callers are safe.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	clock        Clock

	mu     sync.RWMutex
	lastID uint
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, clock Clock) *TaskService {
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo, clock: clock}
}

// Today returns the current calendar date.
func (s *TaskService) Today() model.Date {
	return s.clock.today()
}

// IsOverdue reports whether task is open past its due date as of today.
func (s *TaskService) IsOverdue(task model.Task) bool {
	return task.IsOverdue(s.Today())
}

// ListTasks returns all tasks in insertion order.
func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns the task with id, or ErrNotFound.
func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(ctx, id)
}

// ListTasksByCategory returns tasks with an exact category match, in insertion order.
func (s *TaskService) ListTasksByCategory(ctx context.Context, categoryID uint) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks, err := s.taskRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by category: %w", err)
	}
	return tasks, nil
}

// ListTasksByStatus returns tasks with an exact status match, in insertion order.
func (s *TaskService) ListTasksByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks, err := s.taskRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list tasks by status: %w", err)
	}
	return tasks, nil
}

// ListOverdue returns open tasks whose due date has passed, in insertion order.
func (s *TaskService) ListOverdue(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	overdue := make([]model.Task, 0)
	for _, task := range tasks {
		if task.IsOverdue(today) {
			overdue = append(overdue, task)
		}
	}
	return overdue, nil
}

// QueryTasks applies every filter in q and sorts by due date, earliest first.
// Ties keep insertion order.
func (s *TaskService) QueryTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	var (
		tasks []model.Task
		err   error
	)
	if q.CategoryID != 0 {
		tasks, err = s.ListTasksByCategory(ctx, q.CategoryID)
	} else {
		tasks, err = s.ListTasks(ctx)
	}
	if err != nil {
		return nil, err
	}

	today := s.Today()
	filtered := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if q.Status != "" && task.Status != q.Status {
			continue
		}
		if q.OverdueOnly && !task.IsOverdue(today) {
			continue
		}
		filtered = append(filtered, task)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DueDate.Before(filtered[j].DueDate)
	})
	return filtered, nil
}

// ValidateInput is the check callers run before CreateTask; CreateTask itself does not validate.
func (s *TaskService) ValidateInput(ctx context.Context, input model.TaskInput) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title")
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, "description")
	}
	if input.DueDate.IsZero() {
		fields = append(fields, "dueDate")
	}
	if input.Status != "" && !input.Status.Valid() {
		fields = append(fields, "status")
	}
	if input.Priority != "" && !input.Priority.Valid() {
		fields = append(fields, "priority")
	}
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check category: %w", err)
		}
		fields = append(fields, "categoryId")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidatePatch checks the fields a patch sets; unset fields are not checked.
func (s *TaskService) ValidatePatch(ctx context.Context, patch model.TaskPatch) error {
	var fields []string
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fields = append(fields, "title")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		fields = append(fields, "description")
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		fields = append(fields, "dueDate")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		fields = append(fields, "status")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		fields = append(fields, "priority")
	}
	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *patch.CategoryID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("check category: %w", err)
			}
			fields = append(fields, "categoryId")
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateTask appends a new task with the next id, createdAt set to today.
func (s *TaskService) CreateTask(ctx context.Context, input model.TaskInput) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	task := model.Task{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedAt:   today,
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == model.StatusCompleted {
		task.CompletedAt = &today
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.lastID = id
	return &task, nil
}

// UpdateTask merges patch into the task with id. The completedAt transition is
// decided from the status held before the merge.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, patch model.TaskPatch) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	newStatus := oldStatus
	if patch.Status != nil {
		newStatus = *patch.Status
	}
	switch {
	case newStatus == model.StatusCompleted && oldStatus != model.StatusCompleted:
		today := s.Today()
		task.CompletedAt = &today
	case newStatus != model.StatusCompleted && oldStatus == model.StatusCompleted:
		task.CompletedAt = nil
	}

	patch.Apply(task)

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SetStatus is UpdateTask with only a status change.
func (s *TaskService) SetStatus(ctx context.Context, id uint, status model.Status) (*model.Task, error) {
	return s.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// DeleteTask removes the task with id and returns it, or ErrNotFound.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	removed, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if task.ID > s.lastID {
		s.lastID = task.ID
	}
	return task, nil
}

func (s *TaskService) countByCategory(ctx context.Context) (map[uint]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts, err := s.taskRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// find must be called with s.mu held.
func (s *TaskService) find(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// nextID never hands out an id twice in this process: lastID covers every id
// created or deleted here, so removing the highest task does not free its id.
// An empty store starts at 1. Must be called with s.mu held.
func (s *TaskService) nextID(ctx context.Context) (uint, error) {
	maxID, err := s.taskRepo.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	if s.lastID > maxID {
		maxID = s.lastID
	}
	return maxID + 1, nil
}
