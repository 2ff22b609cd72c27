package tasks

import "time"

type createTaskRequest struct {
	Title            string    `json:"title" binding:"required"`
	Description      *string   `json:"description"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	Priority         string    `json:"priority"`
	Status           string    `json:"status"`
	ProjectID        *string   `json:"project_id"`
	RecurringPattern *string   `json:"recurring_pattern"`
}

// updateTaskRequest applies only the fields that are present.
type updateTaskRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Priority         *string    `json:"priority"`
	Status           *string    `json:"status"`
	ProjectID        *string    `json:"project_id"`
	RecurringPattern *string    `json:"recurring_pattern"`
}

type occurrencesRequest struct {
	Until time.Time `json:"until" binding:"required"`
}
