package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
	"github.com/noah-isme/sma-insights-api/pkg/response"
)

// RequireRoles rejects callers whose role is not in the allowed list.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.AccessDenied())
			c.Abort()
			return
		}
		c.Next()
	}
}
