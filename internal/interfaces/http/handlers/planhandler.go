package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/application/plan/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

type PlanHandler struct {
	listUseCase  listPlansUseCase
	priceUseCase planPriceUseCase
	logger       logger.Interface
}

func NewPlanHandler(listUC listPlansUseCase, priceUC planPriceUseCase, logger logger.Interface) *PlanHandler {
	return &PlanHandler{
		listUseCase:  listUC,
		priceUseCase: priceUC,
		logger:       logger,
	}
}

// SetPriceRequest carries the price in major currency units as a string so
// no precision is lost in JSON.
type SetPriceRequest struct {
	Price string `json:"price" binding:"required,decimal"`
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.listUseCase.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plans)
}

func (h *PlanHandler) SetPrice(c *gin.Context) {
	var req SetPriceRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid price", req.Price))
		return
	}

	if err := h.priceUseCase.Set(c.Request.Context(), usecases.SetPlanPriceCommand{
		PlanID: plan.ID(c.Param("id")),
		Price:  price,
		Actor:  actor(c),
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "plan price updated", nil)
}

func (h *PlanHandler) ClearPrice(c *gin.Context) {
	if err := h.priceUseCase.Clear(c.Request.Context(), usecases.ClearPlanPriceCommand{
		PlanID: plan.ID(c.Param("id")),
		Actor:  actor(c),
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "plan price reset to catalog", nil)
}
