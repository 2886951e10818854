package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tenantbilling/internal/infrastructure/auth"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

// SweepSecretMiddleware guards internal endpoints called by the cron
// trigger and the organization service. The secret is read from
// X-Cron-Secret or an Authorization bearer value.
type SweepSecretMiddleware struct {
	secret string
	logger logger.Interface
}

func NewSweepSecretMiddleware(secret string, logger logger.Interface) *SweepSecretMiddleware {
	return &SweepSecretMiddleware{
		secret: secret,
		logger: logger,
	}
}

func (m *SweepSecretMiddleware) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(constants.HeaderCronSecret)
		if provided == "" {
			provided, _ = bearerToken(c)
		}

		if !auth.SecretMatches(provided, m.secret) {
			m.logger.Warnw("internal request rejected",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"secret_present", provided != "",
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
