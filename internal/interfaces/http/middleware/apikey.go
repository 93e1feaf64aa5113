package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"github.com/remotive/saleshub/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// API key context keys
const (
	APIKeyHeader     = "X-API-Key"
	InboundTenantKey = "inbound_tenant"
)

// InboundAuthenticator resolves the dealership owning an inbound API key.
type InboundAuthenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*identity.Tenant, error)
}

// InboundAPIKey authenticates lead feeds by the X-API-Key header and
// stores the owning tenant on the context.
func InboundAPIKey(authn InboundAuthenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := authn.Authenticate(c.Request.Context(), c.GetHeader(APIKeyHeader))
		if err != nil {
			if errors.Is(err, shared.ErrUnauthorized) {
				if log != nil {
					log.Warn("Inbound API key rejected",
						zap.String("client_ip", c.ClientIP()),
						zap.String("path", c.Request.URL.Path))
				}
				abortWithError(c, http.StatusUnauthorized, dto.ErrCodeInvalidAPIKey, "Invalid or missing API key")
				return
			}
			if log != nil {
				log.Error("Inbound API key lookup failed", zap.Error(err))
			}
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		c.Set(InboundTenantKey, tenant)
		c.Set(JWTTenantIDKey, tenant.ID.String())
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenant.ID.String()))
		AnnotateSpan(c)
		c.Next()
	}
}

// GetInboundTenant returns the tenant resolved by InboundAPIKey.
func GetInboundTenant(c *gin.Context) (*identity.Tenant, bool) {
	v, ok := c.Get(InboundTenantKey)
	if !ok {
		return nil, false
	}
	t, ok := v.(*identity.Tenant)
	return t, ok
}
