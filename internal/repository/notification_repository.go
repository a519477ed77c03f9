package repository

import (
	"coder_edu_progress/internal/model"
	"context"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []model.Notification
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) CountByUserAndType(ctx context.Context, userID uint, typ model.NotificationType) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", userID, typ).
		Count(&count).Error
	return int(count), err
}
