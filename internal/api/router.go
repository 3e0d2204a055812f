package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/api/handler"
	"github.com/qs3c/resume_go_server/internal/api/middleware"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/service"
)

type Router struct {
	authHandler      *handler.AuthHandler
	billingHandler   *handler.BillingHandler
	creditsHandler   *handler.CreditsHandler
	optimizeHandler  *handler.OptimizeHandler
	resumeHandler    *handler.ResumeHandler
	websocketHandler *handler.WebSocketHandler
	creditService    *service.CreditService
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	billingHandler *handler.BillingHandler,
	creditsHandler *handler.CreditsHandler,
	optimizeHandler *handler.OptimizeHandler,
	resumeHandler *handler.ResumeHandler,
	websocketHandler *handler.WebSocketHandler,
	creditService *service.CreditService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		billingHandler:   billingHandler,
		creditsHandler:   creditsHandler,
		optimizeHandler:  optimizeHandler,
		resumeHandler:    resumeHandler,
		websocketHandler: websocketHandler,
		creditService:    creditService,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify-email", r.authHandler.VerifyEmail)
			auth.GET("/linkedin", r.authHandler.LinkedinAuth)
			auth.GET("/linkedin/callback", r.authHandler.LinkedinCallback)
		}

		// 公开接口 - 定价目录
		api.GET("/billing/catalog", r.billingHandler.GetCatalog)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			authenticated.GET("/user/profile", r.authHandler.GetProfile)

			// 计费
			billing := authenticated.Group("/billing")
			{
				billing.POST("/quote", r.billingHandler.Quote)
				billing.POST("/orders", r.billingHandler.CreateOrder)
				billing.GET("/orders", r.billingHandler.ListOrders)
				billing.GET("/orders/:id", r.billingHandler.GetOrder)
				billing.POST("/orders/:id/cancel", r.billingHandler.CancelOrder)
				billing.POST("/orders/verify", r.billingHandler.VerifyPayment)
			}

			// 额度
			authenticated.GET("/credits/balance", r.creditsHandler.GetBalance)

			// 简历
			resumes := authenticated.Group("/resumes")
			{
				resumes.POST("", r.resumeHandler.Upload)
				resumes.GET("", r.resumeHandler.List)
				resumes.GET("/:id", r.resumeHandler.Get)
				resumes.DELETE("/:id", r.resumeHandler.Delete)
			}

			// 优化类功能：额度预检 + 服务层条件扣减
			authenticated.POST("/optimize",
				middleware.CreditCheck(r.creditService, model.KindOptimization),
				r.optimizeHandler.Optimize)
			authenticated.POST("/score-check",
				middleware.CreditCheck(r.creditService, model.KindScoreCheck),
				r.optimizeHandler.ScoreCheck)
			authenticated.POST("/linkedin-message",
				middleware.CreditCheck(r.creditService, model.KindLinkedinMessage),
				r.optimizeHandler.LinkedinMessage)
			authenticated.POST("/guided-build",
				middleware.CreditCheck(r.creditService, model.KindGuidedBuild),
				r.optimizeHandler.GuidedBuild)

			// 任务
			authenticated.GET("/jobs", r.optimizeHandler.ListJobs)
			authenticated.GET("/jobs/:id", r.optimizeHandler.GetJob)
		}
	}

	return engine
}
