package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

type featureChecker interface {
	CheckFeature(ctx context.Context, query usecases.CheckFeatureQuery) (*dto.FeatureDecisionDTO, error)
}

// EntitlementMiddleware gates routes of other services mounted on this
// engine behind a plan feature.
type EntitlementMiddleware struct {
	checker featureChecker
	logger  logger.Interface
}

func NewEntitlementMiddleware(checker featureChecker, logger logger.Interface) *EntitlementMiddleware {
	return &EntitlementMiddleware{
		checker: checker,
		logger:  logger,
	}
}

// RequireFeature must run after RequireTenant.
func (m *EntitlementMiddleware) RequireFeature(feature plan.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(constants.ContextKeyTenantID)
		if tenantID == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
			c.Abort()
			return
		}

		decision, err := m.checker.CheckFeature(c.Request.Context(), usecases.CheckFeatureQuery{
			TenantID:    tenantID,
			Feature:     feature,
			DevOverride: DevOverride(c),
		})
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		if !decision.Allowed {
			m.logger.Infow("feature not in plan",
				"tenant_id", tenantID,
				"feature", feature,
				"effective_plan", decision.EffectivePlan,
			)
			utils.ErrorResponse(c, http.StatusForbidden, fmt.Sprintf("feature not available: %s", feature))
			c.Abort()
			return
		}

		c.Next()
	}
}

// DevOverride reads the developer override header. The evaluator ignores it
// in production.
func DevOverride(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.GetHeader(constants.HeaderDevOverride))
	return err == nil && v
}
