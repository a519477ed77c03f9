package controller

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/service"
	"coder_edu_progress/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService  *service.AchievementService
	NotificationService *service.NotificationService
}

func NewAchievementController(achievementService *service.AchievementService, notificationService *service.NotificationService) *AchievementController {
	return &AchievementController{
		AchievementService:  achievementService,
		NotificationService: notificationService,
	}
}

// @Summary 评估用户成就
// @Description 同步评估全部启用的成就，返回本次新解锁的成就
// @Tags 成就
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /users/{userId}/achievements/evaluate [post]
func (c *AchievementController) Evaluate(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	unlocked, err := c.AchievementService.EvaluateAll(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if unlocked == nil {
		unlocked = []model.Achievement{}
	}

	util.Success(ctx, gin.H{"unlocked": unlocked})
}

// @Summary 获取用户成就
// @Tags 成就
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /users/{userId}/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 获取用户通知
// @Tags 成就
// @Produce json
// @Param userId path int true "用户ID"
// @Param limit query int false "条数上限，默认 50"
// @Success 200 {object} util.Response
// @Router /users/{userId}/notifications [get]
func (c *AchievementController) GetNotifications(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	notifications, err := c.NotificationService.ListForUser(ctx.Request.Context(), userID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, notifications)
}
