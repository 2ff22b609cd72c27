package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is the ledger-side lifecycle of one checkout attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusComplete  Status = "complete"
	StatusExpired   Status = "expired"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed" // entitlement applied, terminal
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// Transaction is one row of the payment ledger. Rows are never deleted.
type Transaction struct {
	ID            string            `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     string            `gorm:"column:session_id;not null;uniqueIndex:idx_payment_transactions_session_id" json:"session_id"`
	UserID        string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Plan          string            `gorm:"not null" json:"plan"`
	Amount        decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string            `gorm:"type:varchar(3);not null" json:"currency"`
	Status        Status            `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"type:varchar(16);not null" json:"payment_status"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}

// Entitlement is what a completed transaction grants its owner.
type Entitlement struct {
	UserID    string
	Plan      string
	ExpiresAt time.Time
}
