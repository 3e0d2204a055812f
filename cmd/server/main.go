package main

import (
	"context"
	"fmt"
	"log"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/api"
	"github.com/qs3c/resume_go_server/internal/api/handler"
	"github.com/qs3c/resume_go_server/internal/catalog"
	"github.com/qs3c/resume_go_server/internal/database"
	"github.com/qs3c/resume_go_server/internal/pkg/email"
	"github.com/qs3c/resume_go_server/internal/pkg/oauth"
	"github.com/qs3c/resume_go_server/internal/pkg/oss"
	"github.com/qs3c/resume_go_server/internal/pkg/pubsub"
	"github.com/qs3c/resume_go_server/internal/pkg/queue"
	"github.com/qs3c/resume_go_server/internal/pkg/razorpay"
	"github.com/qs3c/resume_go_server/internal/pkg/ws"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 定价目录，启动时加载后只读
	cat := catalog.New(cfg)

	// 初始化支付网关
	var rzpClient *razorpay.Client
	if cfg.Razorpay.KeyID != "" {
		rzpClient = razorpay.NewClient(&cfg.Razorpay)
		log.Println("Razorpay client initialized")
	} else {
		log.Println("Warning: Razorpay not configured, only zero-amount orders will settle")
	}

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化邮件服务（可选）
	var mailer *email.Service
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewService(&cfg.Email)
		log.Println("Email service initialized")
	}

	// 初始化 Queue 和 Pub/Sub
	jobQueue := queue.NewQueue(rdb, cfg.Queue.OptimizeQueue)
	publisher := pubsub.NewPublisher(rdb)
	stateStore := oauth.NewStateStore(rdb)

	// 初始化 WebSocket Hub，并把 Redis 事件转发给在线用户
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.SubscribeProgress(context.Background(), func(msg *pubsub.ProgressMessage) {
			wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg})
		})
		if err != nil {
			log.Printf("Progress subscription stopped: %v", err)
		}
	}()
	go func() {
		err := subscriber.SubscribePayment(context.Background(), func(msg *pubsub.PaymentMessage) {
			wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg})
		})
		if err != nil {
			log.Printf("Payment subscription stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	addonRepo := repository.NewAddOnCreditRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// 初始化 Service
	creditService := service.NewCreditService(cat, subRepo, addonRepo)
	pricingService := service.NewPricingService(cat, userRepo, txRepo)
	orderService := service.NewOrderService(
		db, cat, pricingService, creditService, txRepo, userRepo, walletRepo,
		rzpClient, &cfg.Razorpay, publisher, mailer,
	)
	authService := service.NewAuthService(userRepo, creditService, mailer, cfg)
	resumeService := service.NewResumeService(resumeRepo, ossClient, cfg)
	optimizeService := service.NewOptimizeService(jobRepo, resumeRepo, creditService, jobQueue)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, stateStore)
	billingHandler := handler.NewBillingHandler(pricingService, orderService)
	creditsHandler := handler.NewCreditsHandler(creditService)
	optimizeHandler := handler.NewOptimizeHandler(optimizeService)
	resumeHandler := handler.NewResumeHandler(resumeService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		billingHandler,
		creditsHandler,
		optimizeHandler,
		resumeHandler,
		websocketHandler,
		creditService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
