package http

import (
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/routes"
)

// SetupRoutes installs the global middleware chain and every route group.
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.Recovery())
	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.CustomLogger(c.log.Named("http.access")))

	routes.SetupInternalRoutes(c.engine, &routes.InternalRouteConfig{
		InternalHandler:       c.hdlrs.internal,
		WebhookHandler:        c.hdlrs.webhook,
		HealthHandler:         c.hdlrs.health,
		SweepSecretMiddleware: c.sweepSecretMiddleware,
	})

	routes.SetupPlanRoutes(c.engine, &routes.PlanRouteConfig{
		PlanHandler:    c.hdlrs.plan,
		AuthMiddleware: c.authMiddleware,
		RateLimiter:    c.rateLimiter,
	})

	routes.SetupSubscriptionRoutes(c.engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: c.hdlrs.subscription,
		AuthMiddleware:      c.authMiddleware,
		RateLimiter:         c.rateLimiter,
	})
}
