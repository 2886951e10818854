package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

// InternalHandler serves the endpoints called by other services behind the
// shared secret: the scheduled sweep and tenant provisioning.
type InternalHandler struct {
	sweepUseCase     sweepDueUseCase
	provisionUseCase provisionSubscriptionUseCase
	sweepTimeout     time.Duration
	logger           logger.Interface
}

func NewInternalHandler(
	sweepUC sweepDueUseCase,
	provisionUC provisionSubscriptionUseCase,
	sweepTimeout time.Duration,
	logger logger.Interface,
) *InternalHandler {
	return &InternalHandler{
		sweepUseCase:     sweepUC,
		provisionUseCase: provisionUC,
		sweepTimeout:     sweepTimeout,
		logger:           logger,
	}
}

// SweepResponse is flat so cron callers can read the counts directly.
type SweepResponse struct {
	Success   bool      `json:"success"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ProvisionRequest struct {
	Plan string `json:"plan" binding:"omitempty,oneof=starter professional enterprise"`
}

func (h *InternalHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()
	if h.sweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.sweepTimeout)
		defer cancel()
	}

	result, err := h.sweepUseCase.Execute(ctx)
	if err != nil {
		h.logger.Errorw("sweep failed", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SweepResponse{
		Success:   true,
		Processed: result.Processed,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
		Timestamp: result.StartedAt,
	})
}

func (h *InternalHandler) Provision(c *gin.Context) {
	var req ProvisionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.logger, &req) {
		return
	}

	sub, err := h.provisionUseCase.Execute(c.Request.Context(), usecases.ProvisionSubscriptionCommand{
		TenantID: c.Param("tenantId"),
		Plan:     plan.ID(req.Plan),
		Actor:    "organization-service",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, sub, "subscription provisioned")
}
