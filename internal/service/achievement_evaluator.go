package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"coder_edu_progress/pkg/logger"
	"math"

	"go.uber.org/zap"
)

// Aggregates 是一次评估中所有成就规则共享的用户计数快照
type Aggregates struct {
	LessonsCompleted int
	QuizzesPassed    int
	CoursesCompleted int
	TimeSpent        int
	PerfectQuizzes   int
}

func NewAggregates(snap *model.ActivitySnapshot) Aggregates {
	return Aggregates{
		LessonsCompleted: snap.LessonsCompleted,
		QuizzesPassed:    snap.QuizzesPassed,
		CoursesCompleted: CountCompletedCourses(snap.CourseTotals, snap.CourseCompleted),
		TimeSpent:        snap.TimeSpent,
		PerfectQuizzes:   snap.PerfectQuizzes,
	}
}

// CountCompletedCourses totals 只包含至少有一个课时的已发布课程
func CountCompletedCourses(totals, completed map[uint]int) int {
	n := 0
	for courseID, total := range totals {
		if total > 0 && completed[courseID] >= total {
			n++
		}
	}
	return n
}

// ProgressFor 返回 0-100 的成就进度。custom 规则没有通用算法，返回 0。
func ProgressFor(a *model.Achievement, agg Aggregates) int {
	current, ok := currentValue(a.RequirementType, agg)
	if !ok {
		return 0
	}

	if a.RequirementValue < 1 {
		logger.Log.Warn("achievement requirement value must be at least 1",
			zap.Uint("achievement_id", a.ID),
			zap.Int("value", a.RequirementValue),
			zap.NamedError("reason", util.ErrAggregateComputation),
		)
		return 0
	}

	progress := int(math.Round(100 * float64(current) / float64(a.RequirementValue)))
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

func currentValue(t model.RequirementType, agg Aggregates) (int, bool) {
	switch t {
	case model.RequirementLessonsCompleted:
		return agg.LessonsCompleted, true
	case model.RequirementQuizzesPassed:
		return agg.QuizzesPassed, true
	case model.RequirementCoursesCompleted:
		return agg.CoursesCompleted, true
	case model.RequirementTimeSpent:
		return agg.TimeSpent, true
	case model.RequirementPerfectQuiz:
		return agg.PerfectQuizzes, true
	case model.RequirementCustom:
		return 0, false
	default:
		logger.Log.Warn("unknown achievement requirement type", zap.String("type", string(t)))
		return 0, false
	}
}
