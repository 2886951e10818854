// Package routes provides HTTP route configurations.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig contains dependencies for tenant subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *middleware.RateLimiter
}

// SetupSubscriptionRoutes configures the tenant-scoped routes under /subscription.
// The tenant is taken from the bearer token.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	sub := engine.Group("/subscription")
	sub.Use(cfg.AuthMiddleware.RequireTenant())
	if cfg.RateLimiter != nil {
		sub.Use(cfg.RateLimiter.Limit())
	}
	{
		sub.GET("", cfg.SubscriptionHandler.GetStatus)
		sub.POST("/plan", cfg.SubscriptionHandler.ChangePlan)
		sub.DELETE("/scheduled-downgrade", cfg.SubscriptionHandler.CancelScheduledDowngrade)
		sub.POST("/cancel", cfg.SubscriptionHandler.Cancel)
		sub.POST("/reactivate", cfg.SubscriptionHandler.Reactivate)
		sub.POST("/checkout", cfg.SubscriptionHandler.Checkout)

		entitlements := sub.Group("/entitlements")
		{
			entitlements.GET("/features/:feature", cfg.SubscriptionHandler.CheckFeature)
			entitlements.GET("/staff", cfg.SubscriptionHandler.CheckStaff)
		}
	}
}
