package repository

import (
	"context"
	"time"

	"taskboard/internal/domain/notifications"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *notifications.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificationRepository) List(ctx context.Context, userID string, unreadOnly bool) ([]notifications.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []notifications.Notification
	err := q.Order("scheduled_for ASC").Find(&out).Error
	return out, err
}

func (r *notificationRepository) Due(ctx context.Context, userID string, now time.Time) ([]notifications.Notification, error) {
	var out []notifications.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND read_at IS NULL AND scheduled_for <= ?", userID, now).
		Order("scheduled_for ASC").
		Find(&out).Error
	return out, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) (*notifications.Notification, error) {
	db := r.db.WithContext(ctx)
	// first read wins; marking again keeps the original timestamp
	if err := db.Model(&notifications.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at).Error; err != nil {
		return nil, err
	}

	var n notifications.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}
