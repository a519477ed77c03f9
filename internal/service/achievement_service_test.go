package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/internal/testutil"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const learner uint = 42

func newAchievementService(db *gorm.DB) *AchievementService {
	notifier := NewNotificationService(repository.NewNotificationRepository(db), nil, "")
	return NewAchievementService(
		repository.NewAchievementRepository(db),
		repository.NewAggregateRepository(db),
		notifier,
	)
}

func countNotifications(t *testing.T, db *gorm.DB, typ model.NotificationType) int {
	t.Helper()
	n, err := repository.NewNotificationRepository(db).CountByUserAndType(context.Background(), learner, typ)
	require.NoError(t, err)
	return n
}

func TestEvaluateAllUnlocksOnceWhenThresholdReached(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := newAchievementService(db)
	repo := repository.NewAchievementRepository(db)

	course := testutil.CreateCourse(t, db, true, 5)
	five := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 5)

	for _, lesson := range course.Lessons[:3] {
		testutil.CompleteLesson(t, db, learner, lesson, 10)
	}

	unlocked, err := svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	state, err := repo.FindState(ctx, learner, five.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, state.Progress)
	assert.False(t, state.Unlocked())
	assert.Equal(t, 0, countNotifications(t, db, model.NotificationAchievementUnlocked))

	for _, lesson := range course.Lessons[3:] {
		testutil.CompleteLesson(t, db, learner, lesson, 10)
	}

	unlocked, err = svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, five.ID, unlocked[0].ID)

	state, err = repo.FindState(ctx, learner, five.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, state.Progress)
	require.True(t, state.Unlocked())
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationAchievementUnlocked))

	firstUnlock := *state.UnlockedAt

	// 再次评估不会重复解锁或发通知
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	unlocked, err = svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	state, err = repo.FindState(ctx, learner, five.ID)
	require.NoError(t, err)
	assert.True(t, firstUnlock.Equal(*state.UnlockedAt))
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationAchievementUnlocked))
}

func TestEvaluateAllSharesSnapshotAcrossRules(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	course := testutil.CreateCourse(t, db, true, 2)
	for _, lesson := range course.Lessons {
		testutil.CompleteLesson(t, db, learner, lesson, 30)
	}
	testutil.CreateResult(t, db, learner, 1, course.ID, 100, true)

	lessons := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 2)
	courses := testutil.CreateAchievement(t, db, model.RequirementCoursesCompleted, 1)
	perfect := testutil.CreateAchievement(t, db, model.RequirementPerfectQuiz, 1)
	minutes := testutil.CreateAchievement(t, db, model.RequirementTimeSpent, 120)
	testutil.CreateAchievement(t, db, model.RequirementCustom, 1)

	counting := &countingActivity{source: repository.NewAggregateRepository(db)}
	svc := newAchievementService(db)
	svc.Activity = counting

	unlocked, err := svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)

	var ids []uint
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []uint{lessons.ID, courses.ID, perfect.ID}, ids)
	assert.Equal(t, 1, counting.calls)

	state, err := repository.NewAchievementRepository(db).FindState(ctx, learner, minutes.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, state.Progress)
}

func TestEvaluateAllContinuesAfterPersistenceFailure(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	course := testutil.CreateCourse(t, db, true, 1)
	testutil.CompleteLesson(t, db, learner, course.Lessons[0], 5)

	broken := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 1)
	healthy := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 1)

	svc := newAchievementService(db)
	svc.Store = &flakyStore{
		AchievementRepository: repository.NewAchievementRepository(db),
		failFor:               broken.ID,
	}

	unlocked, err := svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, healthy.ID, unlocked[0].ID)
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationAchievementUnlocked))
}

func TestEvaluateAllConcurrentCallsUnlockOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := newAchievementService(db)

	course := testutil.CreateCourse(t, db, true, 3)
	for _, lesson := range course.Lessons {
		testutil.CompleteLesson(t, db, learner, lesson, 1)
	}
	testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 3)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlocked, err := svc.EvaluateAll(ctx, learner)
			assert.NoError(t, err)
			mu.Lock()
			total += len(unlocked)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationAchievementUnlocked))
}

func TestEvaluateAllSkipsInactiveAndMalformed(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := newAchievementService(db)

	course := testutil.CreateCourse(t, db, true, 1)
	testutil.CompleteLesson(t, db, learner, course.Lessons[0], 5)

	inactive := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 1)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)
	malformed := testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 0)

	unlocked, err := svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	state, err := repository.NewAchievementRepository(db).FindState(ctx, learner, malformed.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Progress)
}

func TestGetUserAchievements(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := newAchievementService(db)

	course := testutil.CreateCourse(t, db, true, 2)
	testutil.CompleteLesson(t, db, learner, course.Lessons[0], 5)
	testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 1)
	testutil.CreateAchievement(t, db, model.RequirementLessonsCompleted, 4)

	_, err := svc.EvaluateAll(ctx, learner)
	require.NoError(t, err)

	view, err := svc.GetUserAchievements(ctx, learner)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.Unlocked)
	assert.Equal(t, 10, view.TotalPoints)
	require.Len(t, view.Badges, 2)
	assert.True(t, view.Badges[0].Unlocked)
	assert.Equal(t, 25, view.Badges[1].Progress)
}

type countingActivity struct {
	source ActivitySource
	calls  int
}

func (c *countingActivity) Snapshot(ctx context.Context, userID uint) (*model.ActivitySnapshot, error) {
	c.calls++
	return c.source.Snapshot(ctx, userID)
}

type flakyStore struct {
	*repository.AchievementRepository
	failFor uint
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyStore) Unlock(ctx context.Context, userID, achievementID uint, at time.Time) (bool, error) {
	if achievementID == f.failFor {
		return false, errStoreDown
	}
	return f.AchievementRepository.Unlock(ctx, userID, achievementID, at)
}
