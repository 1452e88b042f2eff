package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-dashboard/internal/model"
)

// SeedCategories is the fixed category set.
var SeedCategories = []model.Category{
	{ID: 1, Name: "Work", Description: "Professional tasks and projects", Color: "bg-blue-500", Icon: "💼"},
	{ID: 2, Name: "Personal", Description: "Personal goals and activities", Color: "bg-green-500", Icon: "🏠"},
	{ID: 3, Name: "Health", Description: "Health and wellness activities", Color: "bg-red-500", Icon: "❤️"},
	{ID: 4, Name: "Learning", Description: "Educational and skill development", Color: "bg-purple-500", Icon: "📚"},
	{ID: 5, Name: "Shopping", Description: "Shopping lists and errands", Color: "bg-yellow-500", Icon: "🛒"},
}

// SeedTasks returns a fresh copy of the demo task set.
func SeedTasks() []model.Task {
	completed := func(s string) *model.Date {
		d := model.MustParseDate(s)
		return &d
	}
	return []model.Task{
		{
			ID:          1,
			Title:       "Complete project proposal",
			Description: "Write and submit the Q4 project proposal for the new client",
			CategoryID:  1,
			Status:      model.StatusPending,
			Priority:    model.PriorityHigh,
			DueDate:     model.MustParseDate("2025-08-25"),
			CreatedAt:   model.MustParseDate("2025-08-15"),
		},
		{
			ID:          2,
			Title:       "Morning workout routine",
			Description: "30-minute cardio and strength training",
			CategoryID:  3,
			Status:      model.StatusCompleted,
			Priority:    model.PriorityMedium,
			DueDate:     model.MustParseDate("2025-08-19"),
			CreatedAt:   model.MustParseDate("2025-08-18"),
			CompletedAt: completed("2025-08-19"),
		},
		{
			ID:          3,
			Title:       "Learn Next.js fundamentals",
			Description: "Complete the Next.js tutorial and build a practice project",
			CategoryID:  4,
			Status:      model.StatusInProgress,
			Priority:    model.PriorityHigh,
			DueDate:     model.MustParseDate("2025-08-30"),
			CreatedAt:   model.MustParseDate("2025-08-10"),
		},
		{
			ID:          4,
			Title:       "Buy groceries",
			Description: "Weekly grocery shopping - milk, bread, fruits, vegetables",
			CategoryID:  5,
			Status:      model.StatusPending,
			Priority:    model.PriorityLow,
			DueDate:     model.MustParseDate("2025-08-20"),
			CreatedAt:   model.MustParseDate("2025-08-19"),
		},
		{
			ID:          5,
			Title:       "Plan weekend trip",
			Description: "Research and book accommodation for the mountain hiking trip",
			CategoryID:  2,
			Status:      model.StatusPending,
			Priority:    model.PriorityMedium,
			DueDate:     model.MustParseDate("2025-08-22"),
			CreatedAt:   model.MustParseDate("2025-08-17"),
		},
		{
			ID:          6,
			Title:       "Code review meeting",
			Description: "Review pull requests and discuss implementation with team",
			CategoryID:  1,
			Status:      model.StatusCompleted,
			Priority:    model.PriorityHigh,
			DueDate:     model.MustParseDate("2025-08-18"),
			CreatedAt:   model.MustParseDate("2025-08-16"),
			CompletedAt: completed("2025-08-18"),
		},
	}
}

// Seed inserts the category set when the table is empty and, if withTasks is set,
// the demo tasks when the task table is empty.
func Seed(ctx context.Context, db *gorm.DB, withTasks bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var categories int64
		if err := tx.Model(&model.Category{}).Count(&categories).Error; err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if categories == 0 {
			seed := make([]model.Category, len(SeedCategories))
			copy(seed, SeedCategories)
			if err := tx.Create(&seed).Error; err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}

		if !withTasks {
			return nil
		}
		var tasks int64
		if err := tx.Model(&model.Task{}).Count(&tasks).Error; err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		if tasks == 0 {
			seed := SeedTasks()
			if err := tx.Create(&seed).Error; err != nil {
				return fmt.Errorf("seed tasks: %w", err)
			}
		}
		return nil
	})
}
