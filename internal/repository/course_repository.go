package repository

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FindLesson 加载课时及其练习（按序号排列）
func (r *CourseRepository) FindLesson(ctx context.Context, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).
		Preload("Exercises", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence asc")
		}).
		First(&lesson, lessonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) CountLessons(ctx context.Context, courseID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return int(count), err
}

type courseLessonCount struct {
	CourseID uint
	Total    int
}

// PublishedLessonTotals 返回每门已发布课程的课时总数；没有课时的课程不会出现
func (r *CourseRepository) PublishedLessonTotals(ctx context.Context) (map[uint]int, error) {
	var rows []courseLessonCount
	err := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Select("lessons.course_id AS course_id, COUNT(*) AS total").
		Joins("JOIN courses ON courses.id = lessons.course_id AND courses.deleted_at IS NULL").
		Where("courses.is_published = ?", true).
		Group("lessons.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uint]int, len(rows))
	for _, row := range rows {
		totals[row.CourseID] = row.Total
	}
	return totals, nil
}

type ExerciseSubmissionRepository struct {
	DB *gorm.DB
}

func NewExerciseSubmissionRepository(db *gorm.DB) *ExerciseSubmissionRepository {
	return &ExerciseSubmissionRepository{DB: db}
}

func (r *ExerciseSubmissionRepository) Create(ctx context.Context, submission *model.ExerciseSubmission) error {
	return r.DB.WithContext(ctx).Create(submission).Error
}

// SubmittedIndices 返回用户在课时内已提交凭证的练习序号集合（0 基）
func (r *ExerciseSubmissionRepository) SubmittedIndices(ctx context.Context, userID, lessonID uint) (map[int]bool, error) {
	var indices []int
	err := r.DB.WithContext(ctx).
		Model(&model.ExerciseSubmission{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Distinct("exercise_index").
		Pluck("exercise_index", &indices).Error
	if err != nil {
		return nil, err
	}

	submitted := make(map[int]bool, len(indices))
	for _, idx := range indices {
		submitted[idx] = true
	}
	return submitted, nil
}
