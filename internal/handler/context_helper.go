package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/middleware"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func callerFromContext(c *gin.Context) (models.Caller, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Caller{}, appErrors.ErrUnauthorized
	}
	return claims.Caller(), nil
}

func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	return middleware.ExtractMeta(c)
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "pagination values must be positive integers")
	}
	return value, nil
}
