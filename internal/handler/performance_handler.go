package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/pkg/response"
)

type performanceService interface {
	TeacherSummary(ctx context.Context, caller models.Caller, teacherID, period string) (*dto.TeacherPerformanceSummary, bool, error)
}

// PerformanceHandler exposes teacher performance summaries.
type PerformanceHandler struct {
	service performanceService
}

// NewPerformanceHandler constructs a PerformanceHandler.
func NewPerformanceHandler(service performanceService) *PerformanceHandler {
	return &PerformanceHandler{service: service}
}

// Teacher godoc
// @Summary Teacher performance summary
// @Tags Performance
// @Produce json
// @Param id path string true "Teacher ID"
// @Param period query string false "Period (YYYY-MM). Defaults to the current month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teachers/{id}/performance [get]
func (h *PerformanceHandler) Teacher(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, hit, err := h.service.TeacherSummary(c.Request.Context(), caller, c.Param("id"), strings.TrimSpace(c.Query("period")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, withCacheMeta(c, hit))
}
