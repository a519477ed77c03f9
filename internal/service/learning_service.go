package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/internal/util"
	"coder_edu_progress/pkg/logger"
	"coder_edu_progress/pkg/monitoring"
	"coder_edu_progress/pkg/tracing"
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LearningService 处理测验提交和课时完成两个触发事件。
// 成就评估与证书签发提交给 Dispatcher 异步执行，失败不影响触发事件的结果。
type LearningService struct {
	QuizRepo       *repository.QuizRepository
	CourseRepo     *repository.CourseRepository
	SubmissionRepo *repository.ExerciseSubmissionRepository
	ProgressRepo   *repository.ProgressRepository
	Achievements   *AchievementService
	Certificates   *CertificateService
	Dispatcher     *Dispatcher
	now            func() time.Time
}

func NewLearningService(
	quizRepo *repository.QuizRepository,
	courseRepo *repository.CourseRepository,
	submissionRepo *repository.ExerciseSubmissionRepository,
	progressRepo *repository.ProgressRepository,
	achievements *AchievementService,
	certificates *CertificateService,
	dispatcher *Dispatcher,
) *LearningService {
	return &LearningService{
		QuizRepo:       quizRepo,
		CourseRepo:     courseRepo,
		SubmissionRepo: submissionRepo,
		ProgressRepo:   progressRepo,
		Achievements:   achievements,
		Certificates:   certificates,
		Dispatcher:     dispatcher,
		now:            time.Now,
	}
}

type QuizSubmission struct {
	ResultID uint `json:"resultId"`
	GradeResult
	CompletedAt time.Time `json:"completedAt"`
}

// LessonCompletion Allowed 为 false 时 MissingIndices 给出未提交的实践练习（1 基）
type LessonCompletion struct {
	Allowed        bool                  `json:"allowed"`
	Progress       *model.LessonProgress `json:"progress,omitempty"`
	MissingIndices []int                 `json:"missingIndices,omitempty"`
}

type QuizHistory struct {
	Attempts []model.QuizResult `json:"attempts"`
	Best     *model.QuizResult  `json:"best,omitempty"`
	Latest   *model.QuizResult  `json:"latest,omitempty"`
}

func (s *LearningService) SubmitQuiz(ctx context.Context, quizID, userID uint, answers []Answer, timeSpent int) (*QuizSubmission, error) {
	ctx, span := tracing.Start(ctx, "learning.submit_quiz", map[string]uint{
		"quiz.id": quizID,
		"user.id": userID,
	})
	defer span.End()

	if quizID == 0 || userID == 0 {
		return nil, util.ErrInvalidID
	}

	quiz, err := s.QuizRepo.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	graded, err := GradeQuiz(quiz, answers)
	if err != nil {
		return nil, err
	}

	result := &model.QuizResult{
		UserID:      userID,
		QuizID:      quiz.ID,
		CourseID:    quiz.CourseID,
		Score:       graded.Score,
		MaxScore:    graded.MaxScore,
		Percentage:  graded.Percentage,
		Passed:      graded.Passed,
		TimeSpent:   clampMinutes(timeSpent),
		Breakdown:   graded.Breakdown,
		CompletedAt: s.now(),
	}
	if err := s.QuizRepo.SaveResult(ctx, result); err != nil {
		return nil, err
	}

	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(graded.Passed)).Inc()
	logger.Log.Info("quiz submitted",
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", quizID),
		zap.Int("percentage", graded.Percentage),
		zap.Bool("passed", graded.Passed),
	)

	s.dispatchAchievements(userID)

	return &QuizSubmission{
		ResultID:    result.ID,
		GradeResult: *graded,
		CompletedAt: result.CompletedAt,
	}, nil
}

func (s *LearningService) CompleteLesson(ctx context.Context, lessonID, userID uint, timeSpent int) (*LessonCompletion, error) {
	ctx, span := tracing.Start(ctx, "learning.complete_lesson", map[string]uint{
		"lesson.id": lessonID,
		"user.id":   userID,
	})
	defer span.End()

	if lessonID == 0 || userID == 0 {
		return nil, util.ErrInvalidID
	}

	lesson, err := s.CourseRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	submitted, err := s.SubmissionRepo.SubmittedIndices(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	gate := CanComplete(lesson.Exercises, submitted)
	if !gate.Allowed {
		monitoring.LessonCompletions.WithLabelValues("blocked").Inc()
		span.SetAttributes(attribute.IntSlice("lesson.missing", gate.MissingIndices()))
		return &LessonCompletion{
			Allowed:        false,
			MissingIndices: gate.MissingIndices(),
		}, nil
	}

	progress, err := s.ProgressRepo.MarkCompleted(ctx, userID, lesson.ID, lesson.CourseID, clampMinutes(timeSpent), s.now())
	if err != nil {
		return nil, err
	}

	monitoring.LessonCompletions.WithLabelValues("completed").Inc()
	logger.Log.Info("lesson completed",
		zap.Uint("user_id", userID),
		zap.Uint("lesson_id", lesson.ID),
		zap.Uint("course_id", lesson.CourseID),
	)

	s.dispatchAchievements(userID)
	s.dispatchCertificate(userID, lesson.CourseID)

	return &LessonCompletion{Allowed: true, Progress: progress}, nil
}

// RecordExerciseSubmission 记录实践练习凭证。index 为 0 基序号。
func (s *LearningService) RecordExerciseSubmission(ctx context.Context, lessonID, userID uint, index int, content string) (*model.ExerciseSubmission, error) {
	if lessonID == 0 || userID == 0 || index < 0 {
		return nil, util.ErrInvalidID
	}

	lesson, err := s.CourseRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	var exercise *model.LessonExercise
	for i := range lesson.Exercises {
		if lesson.Exercises[i].Sequence == index {
			exercise = &lesson.Exercises[i]
			break
		}
	}
	if exercise == nil {
		return nil, util.ErrExerciseNotFound
	}
	if exercise.Type != model.ExercisePractical {
		return nil, util.ErrExerciseNotPractice
	}

	submission := &model.ExerciseSubmission{
		UserID:        userID,
		LessonID:      lessonID,
		ExerciseIndex: index,
		Content:       strings.TrimSpace(content),
		SubmittedAt:   s.now(),
	}
	if err := s.SubmissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// QuizHistory 返回全部尝试（最新在前）以及最高分与最近一次
func (s *LearningService) QuizHistory(ctx context.Context, userID, quizID uint) (*QuizHistory, error) {
	if quizID == 0 || userID == 0 {
		return nil, util.ErrInvalidID
	}
	if _, err := s.QuizRepo.FindByID(ctx, quizID); err != nil {
		return nil, err
	}

	results, err := s.QuizRepo.ListResults(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	history := &QuizHistory{Attempts: results}
	for i := range results {
		if history.Latest == nil {
			history.Latest = &results[i]
		}
		if history.Best == nil || results[i].Percentage > history.Best.Percentage {
			history.Best = &results[i]
		}
	}
	return history, nil
}

func (s *LearningService) dispatchAchievements(userID uint) {
	if s.Dispatcher == nil || s.Achievements == nil {
		return
	}
	s.Dispatcher.Submit("achievements", func(ctx context.Context) error {
		_, err := s.Achievements.EvaluateAll(ctx, userID)
		return err
	})
}

func (s *LearningService) dispatchCertificate(userID, courseID uint) {
	if s.Dispatcher == nil || s.Certificates == nil {
		return
	}
	s.Dispatcher.Submit("certificate", func(ctx context.Context) error {
		_, err := s.Certificates.CheckAndIssue(ctx, userID, courseID)
		return err
	})
}

func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	return m
}
