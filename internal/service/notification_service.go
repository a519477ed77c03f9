package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/pkg/logger"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationService 先落库，再通过 Redis 频道推送给在线客户端。
// Redis 为 nil 时只落库。
type NotificationService struct {
	Repo    *repository.NotificationRepository
	Redis   *redis.Client
	Channel string
}

func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client, channel string) *NotificationService {
	if channel == "" {
		channel = "notifications"
	}
	return &NotificationService{
		Repo:    repo,
		Redis:   rdb,
		Channel: channel,
	}
}

func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) error {
	if err := s.Repo.Create(ctx, n); err != nil {
		return err
	}

	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Log.Warn("encode notification failed", zap.String("id", n.ID), zap.Error(err))
		return nil
	}
	// 推送失败不影响已落库的通知
	if err := s.Redis.Publish(ctx, s.Channel, payload).Err(); err != nil {
		logger.Log.Warn("publish notification failed",
			zap.String("id", n.ID),
			zap.String("channel", s.Channel),
			zap.Error(err),
		)
	}
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uint, limit int) ([]model.Notification, error) {
	return s.Repo.ListByUser(ctx, userID, limit)
}
