package repository

import (
	"coder_edu_progress/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 已删除课时的进度不计入课程完成度
const joinLiveLessons = "JOIN lessons ON lessons.id = lesson_progress.lesson_id AND lessons.deleted_at IS NULL"

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// MarkCompleted 幂等地把课时标记为完成。
// 首次完成时写入 completed_at，之后重复调用只累加学习时长。
func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID, lessonID, courseID uint, timeSpent int, now time.Time) (*model.LessonProgress, error) {
	db := r.DB.WithContext(ctx)

	record := model.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    courseID,
		Completed:   true,
		CompletedAt: &now,
		TimeSpent:   timeSpent,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		err := db.Model(&model.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ? AND completed = ?", userID, lessonID, false).
			Updates(map[string]interface{}{
				"completed":    true,
				"completed_at": now,
			}).Error
		if err != nil {
			return nil, err
		}

		if timeSpent > 0 {
			err = db.Model(&model.LessonProgress{}).
				Where("user_id = ? AND lesson_id = ?", userID, lessonID).
				UpdateColumn("time_spent", gorm.Expr("time_spent + ?", timeSpent)).Error
			if err != nil {
				return nil, err
			}
		}
	}

	return r.Find(ctx, userID, lessonID)
}

func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) CountCompleted(ctx context.Context, userID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return int(count), err
}

func (r *ProgressRepository) CountCompletedInCourse(ctx context.Context, userID, courseID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Joins(joinLiveLessons).
		Where("lesson_progress.user_id = ? AND lesson_progress.course_id = ? AND lesson_progress.completed = ?", userID, courseID, true).
		Count(&count).Error
	return int(count), err
}

// SumTimeSpent 只统计已完成课时的学习时长（分钟）
func (r *ProgressRepository) SumTimeSpent(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Select("COALESCE(SUM(time_spent), 0)").
		Where("user_id = ? AND completed = ?", userID, true).
		Scan(&total).Error
	return int(total), err
}

type courseCompletedCount struct {
	CourseID  uint
	Completed int
}

// CompletedByCourse 返回用户在每门课程中已完成的课时数
func (r *ProgressRepository) CompletedByCourse(ctx context.Context, userID uint) (map[uint]int, error) {
	var rows []courseCompletedCount
	err := r.DB.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Select("lesson_progress.course_id AS course_id, COUNT(*) AS completed").
		Joins(joinLiveLessons).
		Where("lesson_progress.user_id = ? AND lesson_progress.completed = ?", userID, true).
		Group("lesson_progress.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	completed := make(map[uint]int, len(rows))
	for _, row := range rows {
		completed[row.CourseID] = row.Completed
	}
	return completed, nil
}
