package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	Username       string  `gorm:"not null"`
	Email          string  `gorm:"not null;uniqueIndex:idx_users_email"`
	HashedPassword *string `gorm:"column:hashed_password"`
	AuthProvider   string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub      *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role           string  `gorm:"type:varchar(20);not null;default:'user'"`
	SlackUserID    *string `gorm:"column:slack_user_id;uniqueIndex:idx_users_slack_user_id"`

	// Entitlement. Only the payment reconciliation grants these; the expiry
	// sweep may clear IsPremium once SubscriptionExpires has passed.
	IsPremium           bool       `gorm:"column:is_premium;not null;default:false"`
	SubscriptionPlan    *string    `gorm:"column:subscription_plan"`
	SubscriptionExpires *time.Time `gorm:"column:subscription_expires;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasActiveEntitlement is true while the premium grant has not run out.
func (u User) HasActiveEntitlement(now time.Time) bool {
	if !u.IsPremium || u.SubscriptionExpires == nil {
		return false
	}
	return now.Before(*u.SubscriptionExpires)
}
