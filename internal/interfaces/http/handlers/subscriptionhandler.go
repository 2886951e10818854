package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	paymentUsecases "github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	"github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

// SubscriptionHandler serves the tenant-scoped subscription commands. The
// tenant always comes from the verified token, never from the request.
type SubscriptionHandler struct {
	statusUseCase          getSubscriptionStatusUseCase
	changePlanUseCase      changePlanUseCase
	cancelDowngradeUseCase cancelScheduledDowngradeUseCase
	cancelUseCase          cancelSubscriptionUseCase
	reactivateUseCase      reactivateSubscriptionUseCase
	checkoutUseCase        initializeCheckoutUseCase
	entitlementUseCase     checkEntitlementUseCase
	logger                 logger.Interface
}

func NewSubscriptionHandler(
	statusUC getSubscriptionStatusUseCase,
	changePlanUC changePlanUseCase,
	cancelDowngradeUC cancelScheduledDowngradeUseCase,
	cancelUC cancelSubscriptionUseCase,
	reactivateUC reactivateSubscriptionUseCase,
	checkoutUC initializeCheckoutUseCase,
	entitlementUC checkEntitlementUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		statusUseCase:          statusUC,
		changePlanUseCase:      changePlanUC,
		cancelDowngradeUseCase: cancelDowngradeUC,
		cancelUseCase:          cancelUC,
		reactivateUseCase:      reactivateUC,
		checkoutUseCase:        checkoutUC,
		entitlementUseCase:     entitlementUC,
		logger:                 logger,
	}
}

type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=starter professional enterprise"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type CheckoutRequest struct {
	Plan  string `json:"plan" binding:"required,oneof=professional enterprise"`
	Email string `json:"email" binding:"required,email"`
}

func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	status, err := h.statusUseCase.Execute(c.Request.Context(), usecases.GetSubscriptionStatusQuery{
		TenantID: tenantID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var req ChangePlanRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.changePlanUseCase.Execute(c.Request.Context(), usecases.ChangePlanCommand{
		TenantID:   tenantID(c),
		TargetPlan: plan.ID(req.Plan),
		Actor:      actor(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "plan change "+result.Outcome, result)
}

func (h *SubscriptionHandler) CancelScheduledDowngrade(c *gin.Context) {
	sub, err := h.cancelDowngradeUseCase.Execute(c.Request.Context(), usecases.CancelScheduledDowngradeCommand{
		TenantID: tenantID(c),
		Actor:    actor(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "scheduled downgrade cancelled", sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var req CancelSubscriptionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		TenantID: tenantID(c),
		Reason:   req.Reason,
		Actor:    actor(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription cancelled", result)
}

func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	result, err := h.reactivateUseCase.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		TenantID: tenantID(c),
		Actor:    actor(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription reactivated", result)
}

func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	session, err := h.checkoutUseCase.Execute(c.Request.Context(), paymentUsecases.InitializeCheckoutCommand{
		TenantID:   tenantID(c),
		Email:      req.Email,
		TargetPlan: plan.ID(req.Plan),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "checkout initialized", session)
}

func (h *SubscriptionHandler) CheckFeature(c *gin.Context) {
	decision, err := h.entitlementUseCase.CheckFeature(c.Request.Context(), usecases.CheckFeatureQuery{
		TenantID:    tenantID(c),
		Feature:     plan.Feature(c.Param("feature")),
		DevOverride: middleware.DevOverride(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

func (h *SubscriptionHandler) CheckStaff(c *gin.Context) {
	current, err := strconv.Atoi(c.Query("current"))
	if err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("current must be an integer", c.Query("current")))
		return
	}

	decision, err := h.entitlementUseCase.CheckStaff(c.Request.Context(), usecases.CheckStaffQuery{
		TenantID:     tenantID(c),
		CurrentCount: current,
		DevOverride:  middleware.DevOverride(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

func tenantID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyTenantID)
}

func actor(c *gin.Context) string {
	if userID := c.GetString(constants.ContextKeyUserID); userID != "" {
		return userID
	}
	return "tenant:" + tenantID(c)
}

func bindJSON(c *gin.Context, log logger.Interface, req any) bool {
	utils.RegisterBindingValidators()
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warnw("invalid request body", "path", c.Request.URL.Path, "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", utils.ValidationDetails(err)))
		return false
	}
	return true
}
