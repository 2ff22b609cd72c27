package repository

import (
	"context"
	"time"

	"taskboard/internal/domain/users"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *users.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByGoogleSub(ctx context.Context, sub string) (*users.User, error) {
	return r.first(ctx, "google_sub = ?", sub)
}

func (r *userRepository) GetBySlackUserID(ctx context.Context, slackUserID string) (*users.User, error) {
	return r.first(ctx, "slack_user_id = ?", slackUserID)
}

func (r *userRepository) Save(ctx context.Context, u *users.User) error {
	// entitlement columns are owned by the ledger
	return translate(r.db.WithContext(ctx).
		Omit("is_premium", "subscription_plan", "subscription_expires").
		Save(u).Error)
}

func (r *userRepository) SetSlackUserID(ctx context.Context, userID string, slackUserID *string) error {
	res := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Update("slack_user_id", slackUserID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) ExpireEntitlements(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&users.User{}).
		Where("is_premium = ? AND subscription_expires IS NOT NULL AND subscription_expires < ?", true, now).
		Updates(map[string]interface{}{
			"is_premium": false,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *userRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, premium int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&users.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&users.User{}).Where("is_premium = ?", true).Count(&premium).Error; err != nil {
		return 0, 0, err
	}
	return total, premium, nil
}
