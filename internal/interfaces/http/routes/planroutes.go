package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

// PlanRouteConfig holds dependencies for plan routes.
type PlanRouteConfig struct {
	PlanHandler    *handlers.PlanHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

// SetupPlanRoutes configures the public catalog and the owner price table.
func SetupPlanRoutes(engine *gin.Engine, cfg *PlanRouteConfig) {
	plans := engine.Group("/plans")
	if cfg.RateLimiter != nil {
		plans.Use(cfg.RateLimiter.Limit())
	}
	plans.GET("", cfg.PlanHandler.ListPlans)

	admin := engine.Group("/admin/plans")
	admin.Use(cfg.AuthMiddleware.RequireTenant())
	admin.Use(cfg.AuthMiddleware.RequireRole(constants.RoleOwner))
	{
		admin.PUT("/:id/price", cfg.PlanHandler.SetPrice)
		admin.DELETE("/:id/price", cfg.PlanHandler.ClearPrice)
	}
}
