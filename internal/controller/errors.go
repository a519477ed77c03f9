package controller

import (
	"coder_edu_progress/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// respondError 将领域错误映射为 HTTP 状态码，未知错误按 500 处理并记录日志
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidID),
		errors.Is(err, util.ErrAnswerCountMismatch),
		errors.Is(err, util.ErrExerciseNotPractice):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrLessonNotFound),
		errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrCertificateNotFound),
		errors.Is(err, util.ErrExerciseNotFound):
		util.NotFound(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParseID(ctx.Param(name))
	if err != nil {
		util.BadRequest(ctx, "Invalid "+name)
		return 0, false
	}
	return id, true
}
