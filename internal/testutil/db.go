// Package testutil 提供测试用的 SQLite 内存数据库和数据构造函数。
package testutil

import (
	"coder_edu_progress/internal/model"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 为每个测试打开独立的内存库并完成迁移。
// 连接数限制为 1，SQLite 的写锁不会让并发测试随机失败。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// CreateCourse 创建课程及 lessons 个课时，课时不带练习
func CreateCourse(t testing.TB, db *gorm.DB, published bool, lessons int) model.Course {
	t.Helper()

	course := model.Course{Title: "C 语言基础", IsPublished: published}
	require.NoError(t, db.Create(&course).Error)

	for i := 0; i < lessons; i++ {
		lesson := model.Lesson{CourseID: course.ID, Title: fmt.Sprintf("课时 %d", i+1), Position: i}
		require.NoError(t, db.Create(&lesson).Error)
		course.Lessons = append(course.Lessons, lesson)
	}
	return course
}

// CreateLessonWithExercises 在课程下新建一个课时，练习类型按顺序给出
func CreateLessonWithExercises(t testing.TB, db *gorm.DB, courseID uint, types ...model.ExerciseType) model.Lesson {
	t.Helper()

	lesson := model.Lesson{CourseID: courseID, Title: "带练习的课时"}
	require.NoError(t, db.Create(&lesson).Error)

	for i, typ := range types {
		ex := model.LessonExercise{LessonID: lesson.ID, Sequence: i, Type: typ, Title: fmt.Sprintf("练习 %d", i+1)}
		require.NoError(t, db.Create(&ex).Error)
		lesson.Exercises = append(lesson.Exercises, ex)
	}
	return lesson
}

// CompleteLesson 直接写入一条已完成的课时进度
func CompleteLesson(t testing.TB, db *gorm.DB, userID uint, lesson model.Lesson, minutes int) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Create(&model.LessonProgress{
		UserID:      userID,
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		Completed:   true,
		CompletedAt: &now,
		TimeSpent:   minutes,
	}).Error)
}

// CreateResult 直接写入一条测验结果
func CreateResult(t testing.TB, db *gorm.DB, userID, quizID, courseID uint, percentage int, passed bool) model.QuizResult {
	t.Helper()

	result := model.QuizResult{
		UserID:      userID,
		QuizID:      quizID,
		CourseID:    courseID,
		Score:       percentage,
		MaxScore:    100,
		Percentage:  percentage,
		Passed:      passed,
		CompletedAt: time.Now(),
	}
	require.NoError(t, db.Create(&result).Error)
	return result
}

// CreateAchievement 创建一条启用的成就定义
func CreateAchievement(t testing.TB, db *gorm.DB, typ model.RequirementType, value int) model.Achievement {
	t.Helper()

	a := model.Achievement{
		Code:             fmt.Sprintf("%s_%d_%s", typ, value, uuid.NewString()[:8]),
		Name:             fmt.Sprintf("%s %d", typ, value),
		RequirementType:  typ,
		RequirementValue: value,
		Points:           10,
		Rarity:           "common",
		IsActive:         true,
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}
