package app

import (
	"certilearn_backend/docs"
	"certilearn_backend/internal/config"
	"certilearn_backend/internal/middleware"
	"certilearn_backend/internal/model"
	"certilearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:slug", c.course.GetCourse)
	}

	// 学员路由（需登录）
	student := router.Group("/api")
	student.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		student.GET("/auth/profile", c.auth.Profile)

		student.POST("/courses/:slug/enroll", c.enrollment.Enroll)
		student.GET("/courses/:slug/enrollment", c.enrollment.GetDetail)
		student.GET("/enrollments", c.enrollment.ListMine)
		student.POST("/courses/:slug/modules/:moduleId/access", c.enrollment.MarkModuleAccessed)
		student.POST("/courses/:slug/capstone", c.enrollment.SubmitCapstone)

		student.GET("/courses/:slug/modules/:moduleId/quizzes", c.quiz.ListModuleQuizzes)
		student.GET("/courses/:slug/quizzes/:quizId", c.quiz.GetQuiz)
		student.POST("/courses/:slug/quizzes/:quizId/submit", c.quiz.SubmitQuiz)
		student.POST("/courses/:slug/quizzes/:quizId/session", c.quiz.StartSession)
		student.GET("/quiz-sessions/:token", c.quiz.GetSession)
		student.POST("/quiz-sessions/:token/select", c.quiz.SelectOption)
		student.POST("/quiz-sessions/:token/advance", c.quiz.AdvanceSession)
		student.DELETE("/quiz-sessions/:token", c.quiz.AbandonSession)

		student.POST("/courses/:slug/payments/partial", c.payment.SubmitPartialProof)
		student.POST("/courses/:slug/payments/full", c.payment.SubmitFullProof)
		student.GET("/courses/:slug/payments", c.payment.ListMyProofs)

		student.GET("/courses/:slug/certificate", c.certificate.GetCertificate)
		student.GET("/certificates", c.certificate.ListMyCertificates)
	}

	// 管理端路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/courses", c.admin.ListCourses)
		admin.POST("/courses", c.admin.CreateCourse)
		admin.PUT("/courses/:courseId", c.admin.UpdateCourse)
		admin.POST("/courses/:courseId/modules", c.admin.AddModule)
		admin.PUT("/modules/:moduleId", c.admin.UpdateModule)

		admin.POST("/courses/:courseId/quizzes", c.admin.CreateQuiz)
		admin.GET("/quizzes/:quizId", c.admin.GetQuiz)
		admin.PUT("/quizzes/:quizId", c.admin.UpdateQuiz)
		admin.POST("/quizzes/:quizId/questions", c.admin.AddQuestion)
		admin.PUT("/quizzes/:quizId/questions/:questionId", c.admin.UpdateQuestion)
		admin.DELETE("/quizzes/:quizId/questions/:questionId", c.admin.DeleteQuestion)

		admin.GET("/payments/pending", c.admin.ListPendingProofs)
		admin.POST("/payments/:proofId/verify", c.admin.VerifyProof)
		admin.POST("/payments/:proofId/reject", c.admin.RejectProof)

		admin.GET("/courses/:courseId/enrollments", c.admin.ListEnrollments)
		admin.POST("/enrollments/:enrollmentId/capstone", c.admin.GradeCapstone)

		admin.GET("/users", c.admin.ListUsers)
		admin.PUT("/users/:userId/disabled", c.admin.SetUserDisabled)
	}
}
