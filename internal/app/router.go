package app

import (
	"coder_edu_progress/docs"
	"coder_edu_progress/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 触发事件
		api.POST("/quizzes/:quizId/submit", c.learning.SubmitQuiz)
		api.POST("/lessons/:lessonId/complete", c.learning.CompleteLesson)
		api.POST("/lessons/:lessonId/exercises/:index/submissions", c.learning.SubmitExercise)

		api.GET("/certificates/:number", c.certificate.GetByNumber)

		users := api.Group("/users/:userId")
		{
			users.GET("/quizzes/:quizId/results", c.learning.GetQuizHistory)

			users.POST("/achievements/evaluate", c.achievement.Evaluate)
			users.GET("/achievements", c.achievement.GetUserAchievements)
			users.GET("/notifications", c.achievement.GetNotifications)

			users.POST("/courses/:courseId/certificate", c.certificate.Issue)
			users.GET("/certificates", c.certificate.ListForUser)
		}
	}
}
