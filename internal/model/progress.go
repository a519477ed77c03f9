package model

import "time"

// LessonProgress 每个 (用户, 课时) 至多一条
type LessonProgress struct {
	BaseModel
	UserID      uint       `gorm:"uniqueIndex:idx_progress_user_lesson;type:bigint unsigned;not null" json:"userId"`
	LessonID    uint       `gorm:"uniqueIndex:idx_progress_user_lesson;type:bigint unsigned;not null" json:"lessonId"`
	CourseID    uint       `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Completed   bool       `gorm:"index" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	TimeSpent   int        `json:"timeSpent"` // 分钟
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
