package router

import (
	"github.com/gin-gonic/gin"

	"github.com/voisinage/entraide-backend/internal/config"
	"github.com/voisinage/entraide-backend/internal/http/handlers"
	"github.com/voisinage/entraide-backend/internal/http/middleware"
	"github.com/voisinage/entraide-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	helpRequestHandler *handlers.HelpRequestHandler,
	helpOfferHandler *handlers.HelpOfferHandler,
	notificationHandler *handlers.NotificationHandler,
	userHandler *handlers.UserHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/help-requests", helpRequestHandler.ListFeed)
		protected.GET("/help-requests/:id", middleware.UUIDValidator("id"), helpRequestHandler.Get)

		createRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/help-requests", createRateLimit, helpRequestHandler.Create)

		// my-discussions должен идти до :id, иначе gin сматчит его как параметр.
		protected.GET("/help-offers/my-discussions", helpOfferHandler.MyDiscussions)

		protected.POST("/help-offers", createRateLimit, helpOfferHandler.Propose)
		protected.GET("/help-offers/:id", middleware.UUIDValidator("id"), helpOfferHandler.Get)
		protected.POST("/help-offers/:id/validate", middleware.UUIDValidator("id"), helpOfferHandler.Validate)
		protected.POST("/help-offers/:id/confirm", middleware.UUIDValidator("id"), helpOfferHandler.Confirm)
		protected.POST("/help-offers/:id/cancel", middleware.UUIDValidator("id"), helpOfferHandler.Cancel)
		protected.POST("/help-offers/:id/done", middleware.UUIDValidator("id"), helpOfferHandler.Done)
		protected.POST("/help-offers/:id/feedback", middleware.UUIDValidator("id"), helpOfferHandler.SubmitFeedback)
		protected.POST("/help-offers/:id/incident", middleware.UUIDValidator("id"), helpOfferHandler.ReportIncident)

		protected.GET("/help-offers/:id/messages", middleware.UUIDValidator("id"), helpOfferHandler.ListMessages)
		protected.POST("/help-offers/:id/messages", middleware.UUIDValidator("id"), helpOfferHandler.SendMessage)

		protected.GET("/users/:id", middleware.UUIDValidator("id"), userHandler.Get)

		protected.GET("/notifications/unread", notificationHandler.ListUnread)
		protected.POST("/notifications/mark-all-as-read", notificationHandler.MarkAllAsRead)
	}

	return r
}
