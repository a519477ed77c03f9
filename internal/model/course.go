package model

import "time"

type ExerciseType string

const (
	ExercisePractical   ExerciseType = "practical"
	ExerciseTheoretical ExerciseType = "theoretical"
)

// Course 只保留引擎需要的字段：发布状态和课时列表
type Course struct {
	BaseModel
	Title       string   `gorm:"size:200;not null" json:"title"`
	IsPublished bool     `gorm:"index" json:"isPublished"`
	Lessons     []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type Lesson struct {
	BaseModel
	CourseID  uint             `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Position  int              `json:"position"`
	Exercises []LessonExercise `gorm:"foreignKey:LessonID" json:"exercises,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonExercise.Sequence 是课时内练习的 0 基序号，同一课时内唯一
type LessonExercise struct {
	BaseModel
	LessonID uint         `gorm:"uniqueIndex:idx_lesson_exercise_seq;type:bigint unsigned;not null" json:"lessonId"`
	Sequence int          `gorm:"uniqueIndex:idx_lesson_exercise_seq;not null" json:"sequence"`
	Type     ExerciseType `gorm:"size:20;not null" json:"type"`
	Title    string       `gorm:"size:200" json:"title"`
}

func (LessonExercise) TableName() string {
	return "lesson_exercises"
}

// ExerciseSubmission 学生为实践练习提交的凭证（文本或外部链接）
type ExerciseSubmission struct {
	BaseModel
	UserID        uint      `gorm:"index:idx_exercise_submission_user_lesson;type:bigint unsigned;not null" json:"userId"`
	LessonID      uint      `gorm:"index:idx_exercise_submission_user_lesson;type:bigint unsigned;not null" json:"lessonId"`
	ExerciseIndex int       `gorm:"not null" json:"exerciseIndex"`
	Content       string    `gorm:"type:text" json:"content"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

func (ExerciseSubmission) TableName() string {
	return "exercise_submissions"
}
