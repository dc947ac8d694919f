package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "knowdex/internal/app"
	"knowdex/internal/bootstrap"
	"knowdex/internal/cache"
	"knowdex/internal/platform/rabbitmq"
	"knowdex/internal/repository"
	"knowdex/internal/transport/http/handler"
	"knowdex/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(middleware.RequestLog(app.Logger), gin.Recovery())
	if len(cfg.App.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.App.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Live)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	workspaceRepo := repository.NewWorkspaceRepository(app.DB)
	paperRepo := repository.NewPaperRepository(app.DB)
	sessionRepo := repository.NewSessionRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB)

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	workspaceService := appsvc.NewWorkspaceService(workspaceRepo, paperRepo, app.Logger)
	paperService := appsvc.NewPaperService(workspaceRepo, paperRepo, cfg.Upload.Dir, cfg.MaxUploadBytes(), app.Logger)

	chatDeps := appsvc.ChatDeps{
		Workspaces: workspaceRepo,
		Papers:     paperRepo,
		Sessions:   sessionRepo,
		Messages:   messageRepo,
		Providers:  app.Providers,
	}
	if app.Redis != nil {
		chatDeps.HistoryCache = cache.NewHistoryCache(
			app.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}
	if app.MQConn != nil {
		chatDeps.Audit = rabbitmq.NewAuditPublisher(app.MQConn, cfg.RabbitMQ.AuditQueue)
	}
	chatService := appsvc.NewChatService(chatDeps, app.Logger)

	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	paperHandler := handler.NewPaperHandler(paperService)
	chatHandler := handler.NewChatHandler(chatService)
	requireAuth := middleware.AuthJWT(cfg.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	workspaceGroup := v1.Group("/workspaces", requireAuth)
	workspaceGroup.POST("", workspaceHandler.Create)
	workspaceGroup.GET("", workspaceHandler.List)
	workspaceGroup.GET("/:id", workspaceHandler.Get)
	workspaceGroup.DELETE("/:id", workspaceHandler.Delete)

	paperGroup := v1.Group("/papers", requireAuth)
	paperGroup.POST("", paperHandler.Upload)
	paperGroup.GET("/:workspace_id", paperHandler.List)
	paperGroup.DELETE("/:id", paperHandler.Delete)

	chatGroup := v1.Group("/chat", requireAuth)
	chatGroup.POST("", chatHandler.Send)
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions/:workspace_id", chatHandler.ListSessions)
	chatGroup.GET("/messages/:session_id", chatHandler.GetMessages)

	return router
}
