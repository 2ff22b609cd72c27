package users

import "time"

type MeResponse struct {
	User         UserDTO         `json:"user"`
	Subscription SubscriptionDTO `json:"subscription"`
}

type UserDTO struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	SlackUserID  *string   `json:"slack_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubscriptionDTO struct {
	IsPremium bool       `json:"is_premium"`
	Active    bool       `json:"active"`
	Plan      *string    `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at"`
	DaysLeft  *int       `json:"days_left"`
}
