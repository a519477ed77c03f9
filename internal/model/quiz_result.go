package model

import "time"

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionText     QuestionType = "text"
)

type Quiz struct {
	BaseModel
	CourseID     uint           `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	LessonID     *uint          `gorm:"index;type:bigint unsigned" json:"lessonId,omitempty"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	PassingScore int            `gorm:"not null" json:"passingScore"` // 0-100 百分比
	Questions    []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	BaseModel
	QuizID         uint         `gorm:"index;type:bigint unsigned;not null" json:"quizId"`
	Position       int          `json:"position"`
	Type           QuestionType `gorm:"size:20;not null" json:"type"`
	Content        string       `gorm:"type:text" json:"content"`
	Points         int          `gorm:"not null" json:"points"`
	Options        []string     `gorm:"serializer:json;type:text" json:"options,omitempty"`
	CorrectAnswers []string     `gorm:"serializer:json;type:text" json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuestionOutcome 单题评分结果，供前端展示答题反馈
type QuestionOutcome struct {
	QuestionID uint `json:"questionId"`
	Correct    bool `json:"correct"`
	Points     int  `json:"points"`
	MaxPoints  int  `json:"maxPoints"`
}

// QuizResult 每次提交产生一条，不去重
type QuizResult struct {
	BaseModel
	UserID      uint              `gorm:"index:idx_quiz_results_user_quiz;type:bigint unsigned;not null" json:"userId"`
	QuizID      uint              `gorm:"index:idx_quiz_results_user_quiz;type:bigint unsigned;not null" json:"quizId"`
	CourseID    uint              `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Score       int               `gorm:"not null" json:"score"`
	MaxScore    int               `gorm:"not null" json:"maxScore"`
	Percentage  int               `gorm:"not null" json:"percentage"`
	Passed      bool              `gorm:"index" json:"passed"`
	TimeSpent   int               `json:"timeSpent"`
	Breakdown   []QuestionOutcome `gorm:"serializer:json;type:text" json:"breakdown"`
	CompletedAt time.Time         `json:"completedAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
