package model

// Category groups tasks by area (work, health, learning, etc.).
// Categories are seeded once; TaskCount is derived on read and never stored.
type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64" json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	TaskCount   int    `gorm:"-" json:"taskCount"`
}

// CategoryStats is a category with its per-status task breakdown.
type CategoryStats struct {
	Category
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`
}
