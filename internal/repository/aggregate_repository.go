package repository

import (
	"coder_edu_progress/internal/model"
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AggregateRepository 一次性汇总某个用户的活动计数，供所有成就规则共享
type AggregateRepository struct {
	DB       *gorm.DB
	progress *ProgressRepository
	courses  *CourseRepository
}

func NewAggregateRepository(db *gorm.DB) *AggregateRepository {
	return &AggregateRepository{
		DB:       db,
		progress: NewProgressRepository(db),
		courses:  NewCourseRepository(db),
	}
}

func (r *AggregateRepository) Snapshot(ctx context.Context, userID uint) (*model.ActivitySnapshot, error) {
	snap := &model.ActivitySnapshot{UserID: userID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := r.progress.CountCompleted(gctx, userID)
		snap.LessonsCompleted = n
		return err
	})
	g.Go(func() error {
		n, err := r.progress.SumTimeSpent(gctx, userID)
		snap.TimeSpent = n
		return err
	})
	g.Go(func() error {
		n, err := r.countResults(gctx, userID, false)
		snap.QuizzesPassed = n
		return err
	})
	g.Go(func() error {
		n, err := r.countResults(gctx, userID, true)
		snap.PerfectQuizzes = n
		return err
	})
	g.Go(func() error {
		totals, err := r.courses.PublishedLessonTotals(gctx)
		snap.CourseTotals = totals
		return err
	})
	g.Go(func() error {
		completed, err := r.progress.CompletedByCourse(gctx, userID)
		snap.CourseCompleted = completed
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// countResults 统计通过的测验结果数；perfect 为 true 时只统计满分
func (r *AggregateRepository) countResults(ctx context.Context, userID uint, perfect bool) (int, error) {
	var count int64
	q := r.DB.WithContext(ctx).
		Model(&model.QuizResult{}).
		Where("user_id = ? AND passed = ?", userID, true)
	if perfect {
		q = q.Where("percentage = ?", 100)
	}
	err := q.Count(&count).Error
	return int(count), err
}
