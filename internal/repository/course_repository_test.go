package repository

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/testutil"
	"coder_edu_progress/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLessonExerciseSequenceIsUniquePerLesson(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	course := testutil.CreateCourse(t, db, true, 0)
	lesson := testutil.CreateLessonWithExercises(t, db, course.ID, model.ExerciseTheoretical)

	dup := model.LessonExercise{LessonID: lesson.ID, Sequence: 0, Type: model.ExercisePractical}
	assert.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	other := testutil.CreateLessonWithExercises(t, db, course.ID)
	require.NoError(t, db.Create(&model.LessonExercise{LessonID: other.ID, Sequence: 0, Type: model.ExercisePractical}).Error)

	found, err := NewCourseRepository(db).FindLesson(ctx, lesson.ID)
	require.NoError(t, err)
	require.Len(t, found.Exercises, 1)
	assert.Equal(t, model.ExerciseTheoretical, found.Exercises[0].Type)
}

func TestFindLessonOrdersExercises(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	course := testutil.CreateCourse(t, db, true, 0)
	lesson := model.Lesson{CourseID: course.ID, Title: "乱序练习"}
	require.NoError(t, db.Create(&lesson).Error)
	for _, seq := range []int{2, 0, 1} {
		require.NoError(t, db.Create(&model.LessonExercise{LessonID: lesson.ID, Sequence: seq, Type: model.ExercisePractical}).Error)
	}

	found, err := NewCourseRepository(db).FindLesson(ctx, lesson.ID)
	require.NoError(t, err)
	require.Len(t, found.Exercises, 3)
	for i, ex := range found.Exercises {
		assert.Equal(t, i, ex.Sequence)
	}

	_, err = NewCourseRepository(db).FindLesson(ctx, 9999)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}
