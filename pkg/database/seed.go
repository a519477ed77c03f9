package database

import (
	"coder_edu_progress/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 默认成就目录，按 code 去重，可重复执行
var defaultAchievements = []model.Achievement{
	{Code: "first_lesson", Name: "迈出第一步", Description: "完成第一个课时", Icon: "footprints", RequirementType: model.RequirementLessonsCompleted, RequirementValue: 1, Points: 10, Rarity: "common"},
	{Code: "lessons_10", Name: "勤学不辍", Description: "累计完成 10 个课时", Icon: "book", RequirementType: model.RequirementLessonsCompleted, RequirementValue: 10, Points: 30, Rarity: "common"},
	{Code: "lessons_50", Name: "学海无涯", Description: "累计完成 50 个课时", Icon: "library", RequirementType: model.RequirementLessonsCompleted, RequirementValue: 50, Points: 100, Rarity: "rare"},
	{Code: "first_pass", Name: "初试锋芒", Description: "第一次通过测验", Icon: "check", RequirementType: model.RequirementQuizzesPassed, RequirementValue: 1, Points: 10, Rarity: "common"},
	{Code: "quizzes_20", Name: "测验达人", Description: "累计通过 20 次测验", Icon: "trophy", RequirementType: model.RequirementQuizzesPassed, RequirementValue: 20, Points: 60, Rarity: "rare"},
	{Code: "perfect_score", Name: "满分选手", Description: "测验取得 100% 的成绩", Icon: "star", RequirementType: model.RequirementPerfectQuiz, RequirementValue: 1, Points: 20, Rarity: "rare"},
	{Code: "perfect_10", Name: "精益求精", Description: "累计 10 次测验满分", Icon: "crown", RequirementType: model.RequirementPerfectQuiz, RequirementValue: 10, Points: 120, Rarity: "epic"},
	{Code: "first_course", Name: "学有所成", Description: "完成一门课程的全部课时", Icon: "graduation", RequirementType: model.RequirementCoursesCompleted, RequirementValue: 1, Points: 50, Rarity: "rare"},
	{Code: "courses_5", Name: "博学多才", Description: "完成 5 门课程", Icon: "medal", RequirementType: model.RequirementCoursesCompleted, RequirementValue: 5, Points: 200, Rarity: "legendary"},
	{Code: "hours_10", Name: "十小时定律", Description: "累计学习 600 分钟", Icon: "clock", RequirementType: model.RequirementTimeSpent, RequirementValue: 600, Points: 40, Rarity: "common"},
}

// SeedAchievements 插入缺失的默认成就，返回新插入的数量
func SeedAchievements(db *gorm.DB) (int, error) {
	inserted := 0
	for _, def := range defaultAchievements {
		a := def
		a.IsActive = true
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&a)
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}
