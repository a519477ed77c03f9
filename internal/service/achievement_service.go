package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/pkg/logger"
	"coder_edu_progress/pkg/monitoring"
	"coder_edu_progress/pkg/tracing"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AchievementStore interface {
	ListActive(ctx context.Context) ([]model.Achievement, error)
	ListStates(ctx context.Context, userID uint) (map[uint]model.UserAchievement, error)
	UpdateProgress(ctx context.Context, userID, achievementID uint, progress int) error
	Unlock(ctx context.Context, userID, achievementID uint, at time.Time) (bool, error)
}

// ActivitySource 提供一次评估共享的聚合快照
type ActivitySource interface {
	Snapshot(ctx context.Context, userID uint) (*model.ActivitySnapshot, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

type AchievementService struct {
	Store    AchievementStore
	Activity ActivitySource
	Notifier Notifier
	now      func() time.Time
}

func NewAchievementService(store AchievementStore, activity ActivitySource, notifier Notifier) *AchievementService {
	return &AchievementService{
		Store:    store,
		Activity: activity,
		Notifier: notifier,
		now:      time.Now,
	}
}

// AchievementView 是成就目录中单条成就及用户当前状态
type AchievementView struct {
	model.Achievement
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

type UserAchievements struct {
	TotalPoints int               `json:"totalPoints"`
	Unlocked    int               `json:"unlocked"`
	Total       int               `json:"total"`
	Badges      []AchievementView `json:"badges"`
}

// EvaluateAll 用同一份聚合快照评估全部启用的成就，返回本次新解锁的成就。
// 单条成就持久化失败只记录日志，不影响其余成就。
func (s *AchievementService) EvaluateAll(ctx context.Context, userID uint) ([]model.Achievement, error) {
	ctx, span := tracing.Start(ctx, "achievements.evaluate", map[string]uint{"user.id": userID})
	defer span.End()

	achievements, err := s.Store.ListActive(ctx)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("list active achievements: %w", err))
	}
	if len(achievements) == 0 {
		return nil, nil
	}

	states, err := s.Store.ListStates(ctx, userID)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("list achievement states: %w", err))
	}

	snap, err := s.Activity.Snapshot(ctx, userID)
	if err != nil {
		return nil, tracing.Fail(span, fmt.Errorf("build activity snapshot: %w", err))
	}
	agg := NewAggregates(snap)

	var unlocked []model.Achievement
	for i := range achievements {
		a := &achievements[i]

		if state, ok := states[a.ID]; ok && state.Unlocked() {
			continue
		}

		progress := ProgressFor(a, agg)
		if progress < 100 {
			if err := s.Store.UpdateProgress(ctx, userID, a.ID, progress); err != nil {
				s.logFailure("update achievement progress failed", userID, a.ID, err)
			}
			continue
		}

		won, err := s.Store.Unlock(ctx, userID, a.ID, s.now())
		if err != nil {
			s.logFailure("unlock achievement failed", userID, a.ID, err)
			continue
		}
		if !won {
			// 并发评估已经解锁
			continue
		}

		monitoring.AchievementsUnlocked.Inc()
		logger.Log.Info("achievement unlocked",
			zap.Uint("user_id", userID),
			zap.Uint("achievement_id", a.ID),
			zap.String("code", a.Code),
		)
		s.notifyUnlocked(ctx, userID, a)
		unlocked = append(unlocked, *a)
	}

	span.SetAttributes(attribute.Int("achievements.unlocked", len(unlocked)))
	return unlocked, nil
}

func (s *AchievementService) notifyUnlocked(ctx context.Context, userID uint, a *model.Achievement) {
	if s.Notifier == nil {
		return
	}
	n := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationAchievementUnlocked,
		Title:   "解锁新成就",
		Message: fmt.Sprintf("恭喜你获得成就「%s」", a.Name),
		Data: map[string]interface{}{
			"achievementId": a.ID,
			"code":          a.Code,
			"points":        a.Points,
			"rarity":        a.Rarity,
		},
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		monitoring.SideEffectFailures.WithLabelValues("achievement_notification").Inc()
		logger.Log.Error("achievement notification failed",
			zap.Uint("user_id", userID),
			zap.Uint("achievement_id", a.ID),
			zap.Error(err),
		)
	}
}

func (s *AchievementService) logFailure(msg string, userID, achievementID uint, err error) {
	monitoring.SideEffectFailures.WithLabelValues("achievement_persist").Inc()
	logger.Log.Error(msg,
		zap.Uint("user_id", userID),
		zap.Uint("achievement_id", achievementID),
		zap.Error(err),
	)
}

// GetUserAchievements 返回成就目录与用户进度，不触发评估
func (s *AchievementService) GetUserAchievements(ctx context.Context, userID uint) (*UserAchievements, error) {
	achievements, err := s.Store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.Store.ListStates(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &UserAchievements{
		Total:  len(achievements),
		Badges: make([]AchievementView, 0, len(achievements)),
	}
	for _, a := range achievements {
		view := AchievementView{Achievement: a}
		if state, ok := states[a.ID]; ok {
			view.Progress = state.Progress
			view.UnlockedAt = state.UnlockedAt
			view.Unlocked = state.Unlocked()
		}
		if view.Unlocked {
			result.Unlocked++
			result.TotalPoints += a.Points
		}
		result.Badges = append(result.Badges, view)
	}
	return result, nil
}
