package repository

import (
	"coder_edu_progress/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) Create(ctx context.Context, achievement *model.Achievement) error {
	return r.DB.WithContext(ctx).Create(achievement).Error
}

func (r *AchievementRepository) ListActive(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// ListStates 以成就 ID 为键返回用户的成就状态
func (r *AchievementRepository) ListStates(ctx context.Context, userID uint) (map[uint]model.UserAchievement, error) {
	var states []model.UserAchievement
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&states).Error; err != nil {
		return nil, err
	}

	byAchievement := make(map[uint]model.UserAchievement, len(states))
	for _, s := range states {
		byAchievement[s.AchievementID] = s
	}
	return byAchievement, nil
}

func (r *AchievementRepository) FindState(ctx context.Context, userID, achievementID uint) (*model.UserAchievement, error) {
	var state model.UserAchievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ensureState 保证 (user, achievement) 行存在，并发插入由唯一索引兜底
func (r *AchievementRepository) ensureState(db *gorm.DB, userID, achievementID uint) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserAchievement{
			UserID:        userID,
			AchievementID: achievementID,
			Progress:      0,
		}).Error
}

// UpdateProgress 只会提高未解锁成就的进度
func (r *AchievementRepository) UpdateProgress(ctx context.Context, userID, achievementID uint, progress int) error {
	db := r.DB.WithContext(ctx)
	if err := r.ensureState(db, userID, achievementID); err != nil {
		return err
	}

	return db.Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND unlocked_at IS NULL AND progress < ?", userID, achievementID, progress).
		Update("progress", progress).Error
}

// Unlock 以 "unlocked_at IS NULL" 为条件原子地解锁成就。
// 返回 true 表示本次调用完成了解锁；false 表示已被其他调用解锁。
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID uint, at time.Time) (bool, error) {
	db := r.DB.WithContext(ctx)
	if err := r.ensureState(db, userID, achievementID); err != nil {
		return false, err
	}

	res := db.Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND unlocked_at IS NULL", userID, achievementID).
		Updates(map[string]interface{}{
			"progress":    100,
			"unlocked_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
