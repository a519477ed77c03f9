package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/internal/testutil"
	"coder_edu_progress/internal/util"
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCertificateService(db *gorm.DB) *CertificateService {
	return NewCertificateService(
		repository.NewCertificateRepository(db),
		repository.NewCourseRepository(db),
		repository.NewProgressRepository(db),
		repository.NewQuizRepository(db),
		NewNotificationService(repository.NewNotificationRepository(db), nil, ""),
		3,
	)
}

func completeAll(t *testing.T, db *gorm.DB, course model.Course) {
	t.Helper()
	for _, lesson := range course.Lessons {
		testutil.CompleteLesson(t, db, learner, lesson, 10)
	}
}

func TestGenerateCertificateNumber(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := GenerateCertificateNumber(at)
	b := GenerateCertificateNumber(at)

	assert.Regexp(t, regexp.MustCompile(`^CERT-[0-9A-Z]+-[0-9A-F]{8}$`), a)
	assert.NotEqual(t, a, b)
}

func TestCheckAndIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("incomplete course", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, true, 3)
		testutil.CompleteLesson(t, db, learner, course.Lessons[0], 10)

		cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		assert.Nil(t, cert)
	})

	t.Run("unpublished course", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, false, 1)
		completeAll(t, db, course)

		cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		assert.Nil(t, cert)
	})

	t.Run("course without lessons", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, true, 0)

		cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		assert.Nil(t, cert)
	})

	t.Run("unknown course", func(t *testing.T) {
		db := testutil.NewDB(t)

		_, err := newCertificateService(db).CheckAndIssue(ctx, learner, 999)
		assert.ErrorIs(t, err, util.ErrCourseNotFound)
	})

	t.Run("issues with averaged grade", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, true, 2)
		completeAll(t, db, course)
		testutil.CreateResult(t, db, learner, 1, course.ID, 80, true)
		testutil.CreateResult(t, db, learner, 2, course.ID, 95, true)
		testutil.CreateResult(t, db, learner, 3, course.ID, 40, false)

		cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		require.NotNil(t, cert)
		require.NotNil(t, cert.Grade)
		assert.Equal(t, 88, *cert.Grade)
		assert.Equal(t, 1, countNotifications(t, db, model.NotificationCertificateIssued))
	})

	t.Run("grade omitted without passed quizzes", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, true, 1)
		completeAll(t, db, course)
		testutil.CreateResult(t, db, learner, 1, course.ID, 20, false)

		cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		require.NotNil(t, cert)
		assert.Nil(t, cert.Grade)
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.NewDB(t)
		course := testutil.CreateCourse(t, db, true, 1)
		completeAll(t, db, course)
		svc := newCertificateService(db)

		first, err := svc.CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)
		second, err := svc.CheckAndIssue(ctx, learner, course.ID)
		require.NoError(t, err)

		assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
		assert.True(t, first.CompletedAt.Equal(second.CompletedAt))
		assert.Equal(t, 1, countNotifications(t, db, model.NotificationCertificateIssued))
	})
}

func TestCheckAndIssueConcurrentCallsReturnSameCertificate(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, db, true, 2)
	completeAll(t, db, course)
	svc := newCertificateService(db)

	const callers = 6
	numbers := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert, err := svc.CheckAndIssue(ctx, learner, course.ID)
			if assert.NoError(t, err) && assert.NotNil(t, cert) {
				numbers[i] = cert.CertificateNumber
			}
		}(i)
	}
	wg.Wait()

	for _, n := range numbers[1:] {
		assert.Equal(t, numbers[0], n)
	}

	certs, err := svc.ListForUser(ctx, learner)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationCertificateIssued))
}

func TestCheckAndIssueRetriesOnNumberCollision(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	other := testutil.CreateCourse(t, db, true, 1)
	require.NoError(t, db.Create(&model.Certificate{
		UserID:            7,
		CourseID:          other.ID,
		CertificateNumber: "CERT-TAKEN",
		CompletedAt:       time.Now(),
	}).Error)

	course := testutil.CreateCourse(t, db, true, 1)
	completeAll(t, db, course)

	svc := newCertificateService(db)
	numbers := []string{"CERT-TAKEN", "CERT-TAKEN", "CERT-FRESH"}
	calls := 0
	svc.newNumber = func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}

	cert, err := svc.CheckAndIssue(ctx, learner, course.ID)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, "CERT-FRESH", cert.CertificateNumber)
	assert.Equal(t, 3, calls)

	found, err := svc.FindByNumber(ctx, "CERT-FRESH")
	require.NoError(t, err)
	assert.Equal(t, learner, found.UserID)
}

func TestCheckAndIssueGivesUpAfterMaxAttempts(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	other := testutil.CreateCourse(t, db, true, 1)
	require.NoError(t, db.Create(&model.Certificate{
		UserID:            7,
		CourseID:          other.ID,
		CertificateNumber: "CERT-TAKEN",
		CompletedAt:       time.Now(),
	}).Error)

	course := testutil.CreateCourse(t, db, true, 1)
	completeAll(t, db, course)

	svc := newCertificateService(db)
	svc.newNumber = func(time.Time) string { return "CERT-TAKEN" }

	_, err := svc.CheckAndIssue(ctx, learner, course.ID)
	assert.ErrorIs(t, err, util.ErrCertificateNumberTaken)

	_, err = svc.Certs.FindByUserAndCourse(ctx, learner, course.ID)
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)
}

func TestFindByNumberBlank(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := newCertificateService(db).FindByNumber(context.Background(), "  ")
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)
}

func TestDeletedLessonKeepsCourseCompletionConsistent(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name      string
		completed []int
		deleted   int
		want      bool
	}{
		{"all live lessons done", []int{0, 1, 2}, 2, true},
		{"remaining live lesson unfinished", []int{0, 1}, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			course := testutil.CreateCourse(t, db, true, 3)
			for _, i := range c.completed {
				testutil.CompleteLesson(t, db, learner, course.Lessons[i], 10)
			}
			require.NoError(t, db.Delete(&course.Lessons[c.deleted]).Error)

			cert, err := newCertificateService(db).CheckAndIssue(ctx, learner, course.ID)
			require.NoError(t, err)

			snap, err := repository.NewAggregateRepository(db).Snapshot(ctx, learner)
			require.NoError(t, err)
			coursesCompleted := NewAggregates(snap).CoursesCompleted

			assert.Equal(t, c.want, cert != nil)
			if c.want {
				assert.Equal(t, 1, coursesCompleted)
			} else {
				assert.Equal(t, 0, coursesCompleted)
			}
		})
	}
}
