package controller

import (
	"coder_edu_progress/internal/service"
	"coder_edu_progress/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	LearningService *service.LearningService
}

func NewLearningController(learningService *service.LearningService) *LearningController {
	return &LearningController{LearningService: learningService}
}

type SubmitQuizRequest struct {
	UserID    uint             `json:"userId" binding:"required"`
	Answers   []service.Answer `json:"answers"`
	TimeSpent int              `json:"timeSpent" binding:"min=0"`
}

type CompleteLessonRequest struct {
	UserID    uint `json:"userId" binding:"required"`
	TimeSpent int  `json:"timeSpent" binding:"min=0"`
}

type ExerciseSubmissionRequest struct {
	UserID  uint   `json:"userId" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// @Summary 提交测验
// @Description 评分并保存结果，随后异步评估成就
// @Tags 学习进度
// @Accept json
// @Produce json
// @Param quizId path int true "测验ID"
// @Param request body SubmitQuizRequest true "作答"
// @Success 200 {object} util.Response
// @Router /quizzes/{quizId}/submit [post]
func (c *LearningController) SubmitQuiz(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "quizId")
	if !ok {
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.LearningService.SubmitQuiz(ctx.Request.Context(), quizID, req.UserID, req.Answers, req.TimeSpent)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 测验历史
// @Tags 学习进度
// @Produce json
// @Param userId path int true "用户ID"
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /users/{userId}/quizzes/{quizId}/results [get]
func (c *LearningController) GetQuizHistory(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	quizID, ok := pathID(ctx, "quizId")
	if !ok {
		return
	}

	history, err := c.LearningService.QuizHistory(ctx.Request.Context(), userID, quizID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, history)
}

// @Summary 完成课时
// @Description 所有实践练习提交后才能完成；否则返回 422 和缺失的练习序号（从 1 开始）
// @Tags 学习进度
// @Accept json
// @Produce json
// @Param lessonId path int true "课时ID"
// @Param request body CompleteLessonRequest true "完成信息"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /lessons/{lessonId}/complete [post]
func (c *LearningController) CompleteLesson(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "lessonId")
	if !ok {
		return
	}

	var req CompleteLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	completion, err := c.LearningService.CompleteLesson(ctx.Request.Context(), lessonID, req.UserID, req.TimeSpent)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if !completion.Allowed {
		util.Unprocessable(ctx, "missing-exercises", gin.H{
			"missingIndices": completion.MissingIndices,
		})
		return
	}

	util.Success(ctx, completion.Progress)
}

// @Summary 提交实践练习
// @Tags 学习进度
// @Accept json
// @Produce json
// @Param lessonId path int true "课时ID"
// @Param index path int true "练习序号（从 1 开始）"
// @Param request body ExerciseSubmissionRequest true "提交内容"
// @Success 201 {object} util.Response
// @Router /lessons/{lessonId}/exercises/{index}/submissions [post]
func (c *LearningController) SubmitExercise(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "lessonId")
	if !ok {
		return
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || index < 1 {
		util.BadRequest(ctx, "Invalid exercise index")
		return
	}

	var req ExerciseSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.LearningService.RecordExerciseSubmission(ctx.Request.Context(), lessonID, req.UserID, index-1, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, submission)
}
