package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	ingestUseCase ingestWebhookUseCase
	logger        logger.Interface
}

func NewWebhookHandler(ingestUC ingestWebhookUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		ingestUseCase: ingestUC,
		logger:        logger,
	}
}

// Paystack signs the exact bytes it sent, so the body is read raw and
// handed to the parser untouched.
func (h *WebhookHandler) Paystack(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("failed to read request body"))
		return
	}
	if len(body) > maxWebhookBody {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "webhook body too large")
		return
	}

	result, err := h.ingestUseCase.Execute(c.Request.Context(), usecases.IngestWebhookCommand{
		Body:      body,
		Signature: c.GetHeader(constants.HeaderPaystackSignature),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, string(result.Outcome), result)
}
