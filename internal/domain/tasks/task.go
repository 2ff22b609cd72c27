package tasks

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Task struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      *string   `json:"description"`
	StartTime        time.Time `gorm:"not null;index" json:"start_time"`
	EndTime          time.Time `gorm:"not null" json:"end_time"`
	Priority         string    `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Status           string    `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	ProjectID        *string   `gorm:"type:uuid;index" json:"project_id"`
	ParentTaskID     *string   `gorm:"type:uuid;index" json:"parent_task_id"`
	RecurringPattern *string   `json:"recurring_pattern"`
	UserID           string    `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Filter narrows a task listing; empty fields match everything.
type Filter struct {
	ProjectID string
	Status    string
}

// Stats backs the dashboard counters.
type Stats struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	TotalProjects  int64 `json:"total_projects"`
	TodayTasks     int64 `json:"today_tasks"`
}
