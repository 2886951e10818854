package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
)

// InternalRouteConfig holds dependencies for service-to-service routes.
type InternalRouteConfig struct {
	InternalHandler       *handlers.InternalHandler
	WebhookHandler        *handlers.WebhookHandler
	HealthHandler         *handlers.HealthHandler
	SweepSecretMiddleware *middleware.SweepSecretMiddleware
}

// SetupInternalRoutes configures the sweep trigger, provisioning, provider
// webhooks and health. Webhooks authenticate by signature in the use case.
func SetupInternalRoutes(engine *gin.Engine, cfg *InternalRouteConfig) {
	engine.GET("/health", cfg.HealthHandler.Health)

	internal := engine.Group("/internal")
	internal.Use(cfg.SweepSecretMiddleware.RequireSecret())
	{
		internal.POST("/sweep", cfg.InternalHandler.Sweep)
		internal.POST("/tenants/:tenantId/subscription", cfg.InternalHandler.Provision)
	}

	webhooks := engine.Group("/webhooks")
	{
		webhooks.POST("/paystack", cfg.WebhookHandler.Paystack)
	}
}
