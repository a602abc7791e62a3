package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"havia/backend/config"
	"havia/backend/internal/api/handler"
	"havia/backend/internal/api/middleware"
	"havia/backend/pkg/jwt"
	"havia/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 证书核验（公开接口，供外部查证真伪）
		v1.GET("/certificates/:number", h.Evaluation.VerifyCertificate)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 周期模块
			cycles := authorized.Group("/cycles")
			{
				cycles.GET("", h.Cycle.ListCycles)
				cycles.GET("/active", h.Cycle.GetActiveCycle)
				cycles.GET("/:id", h.Cycle.GetCycle)
				cycles.POST("", middleware.RoleAuth("admin"), h.Cycle.CreateCycle)
				cycles.PUT("/:id/launch", middleware.RoleAuth("admin"), h.Cycle.LaunchCycle)
				cycles.PUT("/:id/complete", middleware.RoleAuth("admin"), h.Cycle.CompleteCycle)
				cycles.POST("/:id/interests", h.Cycle.RegisterInterest)
				cycles.DELETE("/:id/interests", h.Cycle.WithdrawInterest)
				cycles.GET("/:id/interests", middleware.RoleAuth("admin"), h.Cycle.ListInterests)
			}

			// 档案模块
			profiles := authorized.Group("/profiles")
			{
				profiles.PUT("/mentor", h.Profile.UpsertMentorProfile)
				profiles.GET("/mentor/:userId", h.Profile.GetMentorProfile)
				profiles.PUT("/mentor/:userId/verify", middleware.RoleAuth("admin"), h.Profile.VerifyMentor)
				profiles.PUT("/mentee", h.Profile.UpsertMenteeProfile)
				profiles.GET("/mentee/:userId", h.Profile.GetMenteeProfile)
			}

			// 可用时间模块
			availability := authorized.Group("/availability")
			{
				availability.GET("", h.Profile.ListSlots)
				availability.POST("", h.Profile.AddSlot)
				availability.DELETE("/:id", h.Profile.DeleteSlot)
				availability.POST("/import-ics", h.Profile.ImportICS)
			}

			// 匹配模块
			matching := authorized.Group("/matching")
			{
				matching.POST("/run", middleware.RoleAuth("admin"), h.Matching.RunMatching)
				matching.POST("/manual", middleware.RoleAuth("admin"), h.Matching.ManualAssign)
				matching.GET("/candidates", middleware.RoleAuth("admin"), h.Matching.GetCandidatePool)
				matching.POST("/onboarding-notify", middleware.RoleAuth("admin"), h.Matching.SendOnboardingNotifications)
				matching.GET("/rules", h.Matching.ListRules)
				matching.PUT("/rules/:code", middleware.RoleAuth("admin"), h.Matching.UpdateRule)
			}
			matches := authorized.Group("/matches")
			{
				matches.GET("", middleware.RoleAuth("admin"), h.Matching.ListMatches)
				matches.GET("/mine", h.Matching.ListMyMatches)
				matches.GET("/:id", h.Matching.GetMatch)
				matches.PUT("/:id/respond", h.Matching.RespondMatch)
				matches.POST("/batch-approve", middleware.RoleAuth("admin"), h.Matching.BatchApprove)
			}

			// 辅导关系模块（含周计划、任务、进度、评价、证书子资源）
			mentorships := authorized.Group("/mentorships")
			{
				mentorships.GET("", middleware.RoleAuth("admin"), h.Mentorship.ListMentorships)
				mentorships.GET("/mine", h.Mentorship.ListMyMentorships)
				mentorships.GET("/:id", h.Mentorship.GetMentorship)
				mentorships.POST("/:id/sessions", h.Mentorship.LogSession)
				mentorships.PUT("/:id/complete", h.Mentorship.CompleteMentorship)
				mentorships.PUT("/:id/cancel", h.Mentorship.CancelMentorship)

				mentorships.GET("/:id/program", h.Program.GetProgram)
				mentorships.PUT("/:id/program/advance", h.Program.AdvanceWeek)
				mentorships.PUT("/:id/program/complete", h.Program.CompleteProgram)
				mentorships.GET("/:id/tasks", h.Program.ListTasks)
				mentorships.POST("/:id/tasks", h.Program.CreateTask)
				mentorships.GET("/:id/progress", h.Program.ListProgress)
				mentorships.PUT("/:id/progress/:week", h.Program.RecomputeProgress)

				mentorships.GET("/:id/evaluations", h.Evaluation.ListEvaluations)
				mentorships.POST("/:id/evaluations", h.Evaluation.SubmitEvaluation)
				mentorships.GET("/:id/certificate", h.Evaluation.GetCertificate)
				mentorships.POST("/:id/certificate", middleware.RoleAuth("admin"), h.Evaluation.IssueCertificate)
			}

			// 任务模块（按任务 ID 操作）
			tasks := authorized.Group("/tasks")
			{
				tasks.PUT("/:id/start", h.Program.StartTask)
				tasks.PUT("/:id/complete", h.Program.CompleteTask)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 统计分析模块
			analytics := authorized.Group("/analytics")
			analytics.Use(middleware.RoleAuth("admin"))
			{
				analytics.GET("/cycles/:id", h.Analytics.GetCycleAnalytics)
				analytics.GET("/cycles/:id/export", h.Analytics.ExportCycleReport)
				analytics.GET("/mentorships/:id", h.Analytics.GetMentorshipProgress)
			}

			// 系统配置模块
			systemConfig := authorized.Group("/system-config")
			{
				systemConfig.GET("", h.SystemConfig.GetConfig)
				systemConfig.PUT("", middleware.RoleAuth("admin"), h.SystemConfig.UpdateConfig)
			}
		}
	}

	return r
}
