package notifications

import "time"

// Notification is a scheduled reminder. Delivery happens elsewhere; this
// service only stores, lists and marks them.
type Notification struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskID       *string    `gorm:"type:uuid;index" json:"task_id"`
	Message      string     `gorm:"not null" json:"message"`
	ScheduledFor time.Time  `gorm:"not null;index" json:"scheduled_for"`
	ReadAt       *time.Time `json:"read_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (n Notification) IsDue(now time.Time) bool {
	return n.ReadAt == nil && !n.ScheduledFor.After(now)
}
