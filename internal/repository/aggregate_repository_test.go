package repository

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/testutil"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCollectsAllCounters(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	published := testutil.CreateCourse(t, db, true, 2)
	draft := testutil.CreateCourse(t, db, false, 1)
	empty := testutil.CreateCourse(t, db, true, 0)

	testutil.CompleteLesson(t, db, 5, published.Lessons[0], 12)
	testutil.CompleteLesson(t, db, 5, published.Lessons[1], 8)
	testutil.CompleteLesson(t, db, 5, draft.Lessons[0], 30)

	testutil.CreateResult(t, db, 5, 1, published.ID, 100, true)
	testutil.CreateResult(t, db, 5, 1, published.ID, 80, true)
	testutil.CreateResult(t, db, 5, 2, published.ID, 40, false)

	snap, err := NewAggregateRepository(db).Snapshot(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.LessonsCompleted)
	assert.Equal(t, 50, snap.TimeSpent)
	assert.Equal(t, 2, snap.QuizzesPassed)
	assert.Equal(t, 1, snap.PerfectQuizzes)
	assert.Equal(t, map[uint]int{published.ID: 2}, snap.CourseTotals)
	assert.NotContains(t, snap.CourseTotals, empty.ID)
	assert.Equal(t, map[uint]int{published.ID: 2, draft.ID: 1}, snap.CourseCompleted)
}

func TestSubmittedIndices(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewExerciseSubmissionRepository(db)

	for _, idx := range []int{1, 1, 2} {
		require.NoError(t, repo.Create(ctx, &model.ExerciseSubmission{UserID: 1, LessonID: 3, ExerciseIndex: idx, Content: "https://example.com/pr"}))
	}
	require.NoError(t, repo.Create(ctx, &model.ExerciseSubmission{UserID: 2, LessonID: 3, ExerciseIndex: 0}))

	got, err := repo.SubmittedIndices(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, got)
}
