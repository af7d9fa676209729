// Package server assembles the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"piggybank/internal/config"
	_ "piggybank/internal/docs" // Import swagger docs
	apperrors "piggybank/internal/errors"
	"piggybank/internal/handlers"
	"piggybank/internal/logger"
	"piggybank/internal/metrics"
	"piggybank/internal/middleware"
	"piggybank/internal/models"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the gin engine with every API route attached.
func NewRouter(cfg *config.Config, db Pinger, svc *Services) *gin.Engine {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Get().Warnw("Failed to register metrics", "error", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	if len(cfg.CORSAllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.ErrNotFound)
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", healthHandler(db))

	attachRoutes(router.Group("/api/v1"), cfg, svc)
	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.FromContext(c.Request.Context()).Errorw("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func attachRoutes(v1 *gin.RouterGroup, cfg *config.Config, svc *Services) {
	authHandler := handlers.NewAuthHandler(svc.Users)
	accountHandler := handlers.NewAccountHandler(svc.Family, svc.Ledger, svc.Audit)
	goalHandler := handlers.NewGoalHandler(svc.Goals, svc.Family, svc.Ledger, svc.Audit)
	purchaseHandler := handlers.NewPurchaseHandler(svc.Purchases, svc.Ledger, svc.Audit)
	interestHandler := handlers.NewInterestHandler(svc.Interest, svc.Family, svc.Ledger, svc.Audit)
	progressHandler := handlers.NewProgressHandler(svc.Progress, svc.Family)
	adminHandler := handlers.NewAdminHandler(svc.Ledger, svc.Audit)

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware())
	parent := protected.Group("", middleware.RequireRole(models.RoleParent))
	child := protected.Group("", middleware.RequireRole(models.RoleChild))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)

	// Children and accounts
	parent.POST("/children", accountHandler.CreateChild)
	parent.GET("/children", accountHandler.ListChildren)
	child.GET("/accounts/me", accountHandler.GetMyAccount)
	protected.GET("/accounts/:id", accountHandler.GetAccount)
	parent.PATCH("/accounts/:id/status", accountHandler.SetAccountStatus)
	parent.POST("/accounts/:id/deposits", accountHandler.Deposit)
	parent.POST("/accounts/:id/withdrawals", accountHandler.Withdraw)
	protected.GET("/accounts/:id/transactions", accountHandler.ListTransactions)

	// Interest
	parent.PUT("/accounts/:id/interest", interestHandler.UpsertConfig)
	protected.GET("/accounts/:id/interest", interestHandler.GetConfig)
	parent.POST("/accounts/:id/interest/apply", interestHandler.Apply)

	// Progress
	protected.GET("/accounts/:id/progress", progressHandler.GetProgress)
	parent.GET("/leaderboard", progressHandler.Leaderboard)

	// Goals
	child.POST("/goals", goalHandler.CreateGoal)
	protected.GET("/goals", goalHandler.ListGoals)
	protected.GET("/goals/:id", goalHandler.GetGoal)
	protected.DELETE("/goals/:id", goalHandler.DeleteGoal)
	child.POST("/goals/:id/contributions", goalHandler.Contribute)
	child.POST("/goals/:id/cancel", goalHandler.Cancel)
	child.POST("/goals/:id/fulfillment", goalHandler.RequestFulfillment)
	parent.POST("/goals/:id/fulfillment/resolve", goalHandler.ResolveFulfillment)

	// Purchase requests
	child.POST("/purchase-requests", purchaseHandler.Create)
	protected.GET("/purchase-requests", purchaseHandler.List)
	parent.POST("/purchase-requests/:id/resolve", purchaseHandler.Resolve)
	parent.POST("/purchase-requests/:id/charge", purchaseHandler.Charge)

	// Operator routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg.AdminAPIKey))
	admin.POST("/interest/run", adminHandler.RunInterestBatch)
	admin.DELETE("/accounts/:id/transactions", adminHandler.PurgeTransactions)
}
