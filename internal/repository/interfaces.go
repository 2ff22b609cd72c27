package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/notifications"
	"taskboard/internal/domain/tasks"
	"taskboard/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

type UserRepository interface {
	Create(ctx context.Context, u *users.User) error
	GetByID(ctx context.Context, id string) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	GetBySlackUserID(ctx context.Context, slackUserID string) (*users.User, error)
	Save(ctx context.Context, u *users.User) error
	SetSlackUserID(ctx context.Context, userID string, slackUserID *string) error
	// ExpireEntitlements clears is_premium for grants that ran out before now.
	ExpireEntitlements(ctx context.Context, now time.Time) (int64, error)
	Counts(ctx context.Context) (total, premium int64, err error)
}

type TaskRepository interface {
	Create(ctx context.Context, t *tasks.Task) error
	Get(ctx context.Context, userID, id string) (*tasks.Task, error)
	List(ctx context.Context, userID string, f tasks.Filter) ([]tasks.Task, error)
	Save(ctx context.Context, t *tasks.Task) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByProject(ctx context.Context, userID, projectID string) (int64, error)
	ChildStartTimes(ctx context.Context, userID, parentID string) ([]time.Time, error)
	Stats(ctx context.Context, userID string, dayStart, dayEnd time.Time) (tasks.Stats, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, p *tasks.Project) error
	Get(ctx context.Context, userID, id string) (*tasks.Project, error)
	List(ctx context.Context, userID string) ([]tasks.Project, error)
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notifications.Notification) error
	List(ctx context.Context, userID string, unreadOnly bool) ([]notifications.Notification, error)
	Due(ctx context.Context, userID string, now time.Time) ([]notifications.Notification, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) (*notifications.Notification, error)
}

// TransactionRepository is the payment ledger.
type TransactionRepository interface {
	Create(ctx context.Context, txn *billing.Transaction) error
	// Upsert inserts txn unless a row with the same session id exists, and
	// loads the stored row back into txn either way.
	Upsert(ctx context.Context, txn *billing.Transaction) (created bool, err error)
	GetBySessionID(ctx context.Context, sessionID string) (*billing.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]billing.Transaction, error)
	ListAll(ctx context.Context) ([]billing.Transaction, error)
	// UpdateProviderStatus records the provider's view of a session if it
	// moves the row forward. It never touches a completed row.
	UpdateProviderStatus(ctx context.Context, sessionID string, status billing.Status, payment billing.PaymentStatus) (bool, error)
	// Complete flips the row to completed and writes the entitlement in one
	// database transaction. applied is true for exactly one caller per session.
	Complete(ctx context.Context, sessionID string, ent billing.Entitlement) (applied bool, err error)
	CompletedRevenue(ctx context.Context) (decimal.Decimal, error)
}

type Repositories struct {
	Users         UserRepository
	Tasks         TaskRepository
	Projects      ProjectRepository
	Notifications NotificationRepository
	Transactions  TransactionRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Tasks:         NewTaskRepository(db),
		Projects:      NewProjectRepository(db),
		Notifications: NewNotificationRepository(db),
		Transactions:  NewTransactionRepository(db),
	}
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
