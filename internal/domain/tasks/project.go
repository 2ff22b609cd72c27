package tasks

import "time"

const DefaultProjectColor = "#8B5CF6"

type Project struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `json:"description"`
	Color       string    `gorm:"type:varchar(16);not null;default:'#8B5CF6'" json:"color"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
