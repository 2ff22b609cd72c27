package repository

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *billing.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *transactionRepository) Upsert(ctx context.Context, txn *billing.Transaction) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(txn)
	if res.Error != nil {
		return false, translate(res.Error)
	}

	created := res.RowsAffected > 0
	if err := db.Where("session_id = ?", txn.SessionID).First(txn).Error; err != nil {
		return false, translate(err)
	}
	return created, nil
}

func (r *transactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*billing.Transaction, error) {
	var txn billing.Transaction
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&txn).Error; err != nil {
		return nil, translate(err)
	}
	return &txn, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]billing.Transaction, error) {
	var out []billing.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *transactionRepository) ListAll(ctx context.Context) ([]billing.Transaction, error) {
	var out []billing.Transaction
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *transactionRepository) UpdateProviderStatus(ctx context.Context, sessionID string, status billing.Status, payment billing.PaymentStatus) (bool, error) {
	if status == billing.StatusCompleted {
		return false, fmt.Errorf("repository: completed is only reachable through Complete")
	}

	res := r.db.WithContext(ctx).Model(&billing.Transaction{}).
		Where("session_id = ? AND status IN ?", sessionID, billing.Predecessors(status)).
		Where("payment_status = ? OR payment_status = ?", payment, billing.PaymentUnpaid).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": payment,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepository) Complete(ctx context.Context, sessionID string, ent billing.Entitlement) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// compare-and-set: only one caller sees RowsAffected == 1
		res := tx.Model(&billing.Transaction{}).
			Where("session_id = ? AND status <> ?", sessionID, billing.StatusCompleted).
			Updates(map[string]interface{}{
				"status":         billing.StatusCompleted,
				"payment_status": billing.PaymentPaid,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Model(&users.User{}).
			Where("id = ?", ent.UserID).
			Updates(map[string]interface{}{
				"is_premium":           true,
				"subscription_plan":    ent.Plan,
				"subscription_expires": ent.ExpiresAt,
				"updated_at":           now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("grant entitlement to user %s: %w", ent.UserID, ErrNotFound)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *transactionRepository) CompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&billing.Transaction{}).
		Where("status = ?", billing.StatusCompleted).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
