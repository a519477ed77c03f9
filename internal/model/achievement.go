package model

import "time"

type RequirementType string

const (
	RequirementLessonsCompleted RequirementType = "lessons_completed"
	RequirementQuizzesPassed    RequirementType = "quizzes_passed"
	RequirementCoursesCompleted RequirementType = "courses_completed"
	RequirementTimeSpent        RequirementType = "time_spent"
	RequirementPerfectQuiz      RequirementType = "perfect_quiz"
	RequirementCustom           RequirementType = "custom"
)

// Achievement 成就定义，Points/Rarity 只用于展示
type Achievement struct {
	BaseModel
	Code             string          `gorm:"size:64;uniqueIndex" json:"code"`
	Name             string          `gorm:"size:100;not null" json:"name"`
	Description      string          `gorm:"size:255" json:"description"`
	Icon             string          `gorm:"size:255" json:"icon"`
	RequirementType  RequirementType `gorm:"size:32;not null" json:"requirementType"`
	RequirementValue int             `gorm:"not null" json:"requirementValue"`
	Points           int             `json:"points"`
	Rarity           string          `gorm:"size:20" json:"rarity"`
	IsActive         bool            `gorm:"index" json:"isActive"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement 用户成就状态；UnlockedAt 一旦写入就不再修改
type UserAchievement struct {
	BaseModel
	UserID        uint       `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"userId"`
	AchievementID uint       `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"achievementId"`
	Progress      int        `gorm:"not null" json:"progress"`
	UnlockedAt    *time.Time `json:"unlockedAt,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

func (ua *UserAchievement) Unlocked() bool {
	return ua != nil && ua.UnlockedAt != nil
}
