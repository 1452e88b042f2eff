package model

import "fmt"

// Status is the lifecycle state of a task. Any status may move to any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus accepts the canonical value and a few spellings used by chat input.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "pending", "todo":
		return StatusPending, nil
	case "in-progress", "in_progress", "inprogress", "progress":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single item on the dashboard.
type Task struct {
	ID          uint     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	CategoryID  uint     `gorm:"index" json:"categoryId"`
	Status      Status   `gorm:"index;size:16" json:"status"`
	Priority    Priority `gorm:"size:16" json:"priority"`
	DueDate     Date     `json:"dueDate"`
	CreatedAt   Date     `gorm:"autoCreateTime:false" json:"createdAt"`
	CompletedAt *Date    `json:"completedAt"`
}

// IsOverdue reports whether the task is still open after its due date.
func (t Task) IsOverdue(today Date) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(today)
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  uint     `json:"categoryId"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     Date     `json:"dueDate"`
}

// TaskPatch is a partial update; nil fields are left untouched.
// CompletedAt is derived from status transitions and cannot be patched.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	CategoryID  *uint     `json:"categoryId,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *Date     `json:"dueDate,omitempty"`
}

// Apply merges the non-nil fields of p into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}

// Stats summarises the task set.
type Stats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}
