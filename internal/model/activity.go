package model

// ActivitySnapshot 是一次成就评估所需的用户活动原始计数
type ActivitySnapshot struct {
	UserID           uint
	LessonsCompleted int
	QuizzesPassed    int
	PerfectQuizzes   int
	TimeSpent        int          // 已完成课时的总分钟数
	CourseTotals     map[uint]int // 已发布课程 -> 课时总数
	CourseCompleted  map[uint]int // 课程 -> 用户已完成课时数
}
