package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	Logger *zap.Logger
}

// RequireRole allows the request through only when the caller holds one of
// roles.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig is RequireRole with a logger for denials.
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("Role denied",
				zap.String("user_id", caller.UserID.String()),
				zap.String("role", string(caller.Role)),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}
		abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied for role "+string(caller.Role))
	}
}

// RequireAdmin admits owners, directors and CRM admins.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleOwner, identity.RoleDirector, identity.RoleCRMAdmin)
}

// RequireTeamManager admits managers plus the admin roles.
func RequireTeamManager() gin.HandlerFunc {
	return RequireRole(identity.RoleManager, identity.RoleOwner, identity.RoleDirector, identity.RoleCRMAdmin)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}
