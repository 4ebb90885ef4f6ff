package app

import (
	"github.com/byounghoonpark/PBH-Quiz/docs"
	"github.com/byounghoonpark/PBH-Quiz/internal/middleware"
	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/grades", c.auth.Grades)
	}

	// 需要授权的路由
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/profile", c.auth.Profile)
		auth.PATCH("/profile", c.auth.UpdateProfile)

		// 应试
		auth.POST("/quizzes/:quiz_id/start", c.session.Start)
		auth.GET("/sessions/:session_id", c.session.Detail)
		auth.GET("/sessions/:session_id/questions", c.session.Questions)
		auth.PATCH("/sessions/:session_id/answers", c.session.SaveAnswer)
		auth.POST("/sessions/:session_id/submit", c.session.Submit)
		auth.GET("/my_list", c.session.MyList)
	}

	// 管理员路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/quizzes", c.quiz.Create)
		admin.GET("/quizzes", c.quiz.List)
		admin.GET("/quizzes/:quiz_id", c.quiz.Get)
		admin.PUT("/quizzes/:quiz_id", c.quiz.Update)
		admin.DELETE("/quizzes/:quiz_id", c.quiz.Delete)
		admin.GET("/quizzes/:quiz_id/sessions", c.session.SessionsByQuiz)
	}
}
