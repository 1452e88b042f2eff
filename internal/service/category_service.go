package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
)

// UnknownCategory is shown when a category id does not resolve.
const UnknownCategory = "Unknown"

// CategoryService exposes the read-only category set with derived task counts.
type CategoryService struct {
	repo  *repository.CategoryRepository
	tasks *TaskService
}

func NewCategoryService(repo *repository.CategoryRepository, tasks *TaskService) *CategoryService {
	return &CategoryService{repo: repo, tasks: tasks}
}

// ListCategories returns every category with TaskCount recomputed from the task store.
func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	counts, err := s.tasks.countByCategory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].TaskCount = counts[categories[i].ID]
	}
	return categories, nil
}

// GetCategory returns the category with its task count, or ErrNotFound.
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	counts, err := s.tasks.countByCategory(ctx)
	if err != nil {
		return nil, err
	}
	category.TaskCount = counts[category.ID]
	return category, nil
}

// CategoryName returns the category name or UnknownCategory; lookup errors are absorbed.
func (s *CategoryService) CategoryName(ctx context.Context, id uint) string {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return UnknownCategory
	}
	return category.Name
}

// Names maps category ids to names for bulk rendering.
func (s *CategoryService) Names(ctx context.Context) (map[uint]string, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[uint]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}

// NameFrom resolves id in names, falling back to UnknownCategory.
func NameFrom(names map[uint]string, id uint) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownCategory
}
