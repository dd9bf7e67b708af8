package router

import (
	"time"

	"visahub/config"
	"visahub/internal/domain"
	"visahub/internal/handler"
	"visahub/internal/middleware"
	"visahub/internal/realtime"
	"visahub/internal/repository"
	"visahub/internal/service"
	"visahub/internal/ws"
	"visahub/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, mirror *realtime.Mirror, notifier *service.Notifier, hub *ws.Hub, log *logrus.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, inviteRepo)
	archiveSvc := service.NewArchiveService(messageRepo, log)
	receiptSvc := service.NewReceiptService(messageRepo, mirror, userRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	caseHandler := handler.NewCaseHandler(caseRepo, userRepo, notifier)
	docHandler := handler.NewDocumentHandler(docRepo, caseRepo, notifier, cloud)
	messageHandler := handler.NewMessageHandler(archiveSvc, receiptSvc, messageRepo, notifier, userRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	inviteHandler := handler.NewInviteHandler(inviteRepo)
	announcementHandler := handler.NewAnnouncementHandler(userRepo, notifier)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)
	staffMw := middleware.RequireRole(domain.RoleLawyer, domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", authHandler.Me)
			me.POST("/device", authHandler.RegisterDevice)
			me.GET("/notifications", notificationHandler.List)
			me.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			// PUT on the collection acknowledges everything unread.
			me.PUT("/notifications", notificationHandler.MarkAllRead)
			me.GET("/messages/unread-count", messageHandler.UnreadCount)
		}

		cases := api.Group("/cases")
		cases.Use(authMw)
		{
			cases.POST("", caseHandler.Create)
			cases.GET("", caseHandler.ListMine)
			cases.GET("/:id", caseHandler.Get)
			cases.PATCH("/:id/status", staffMw, caseHandler.UpdateStatus)
			cases.POST("/:id/assign", adminMw, caseHandler.Assign)
			cases.POST("/:id/documents", docHandler.Upload)
			cases.GET("/:id/documents", docHandler.List)
		}
		api.POST("/documents/:doc_id/review", authMw, staffMw, docHandler.Review)

		messages := api.Group("/messages")
		messages.Use(authMw)
		{
			messages.POST("/archive", messageHandler.Archive)
			messages.PUT("/:id/read", messageHandler.MarkRead)
			messages.GET("/conversations/:conversation_id", messageHandler.ListConversation)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.POST("/invites", inviteHandler.Create)
			admin.GET("/invites", inviteHandler.List)
			admin.POST("/announcements", announcementHandler.Broadcast)
		}
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, hub))

	return r
}
