package repository

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// FindByID 加载测验及其按顺序排列的题目
func (r *QuizRepository) FindByID(ctx context.Context, quizID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		First(&quiz, quizID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Create(quiz).Error
}

func (r *QuizRepository) SaveResult(ctx context.Context, result *model.QuizResult) error {
	return r.DB.WithContext(ctx).Create(result).Error
}

// ListResults 按时间倒序返回用户在某测验上的全部尝试
func (r *QuizRepository) ListResults(ctx context.Context, userID, quizID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("completed_at desc, id desc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// PassedPercentagesForCourse 返回用户在课程内所有通过的测验成绩百分比
func (r *QuizRepository) PassedPercentagesForCourse(ctx context.Context, userID, courseID uint) ([]int, error) {
	var percentages []int
	err := r.DB.WithContext(ctx).
		Model(&model.QuizResult{}).
		Where("user_id = ? AND course_id = ? AND passed = ?", userID, courseID, true).
		Pluck("percentage", &percentages).Error
	if err != nil {
		return nil, err
	}
	return percentages, nil
}
