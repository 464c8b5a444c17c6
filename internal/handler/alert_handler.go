package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/internal/service"
	"github.com/noah-isme/sma-insights-api/pkg/response"
)

type alertService interface {
	List(ctx context.Context, caller models.Caller, filter service.ScopeFilter) (*dto.AlertsResponse, error)
	Dispatch(ctx context.Context, caller models.Caller, filter service.ScopeFilter) (*dto.DispatchAlertsResponse, error)
}

// AlertHandler exposes academic alerts.
type AlertHandler struct {
	service alertService
}

// NewAlertHandler constructs an AlertHandler.
func NewAlertHandler(service alertService) *AlertHandler {
	return &AlertHandler{service: service}
}

func scopeFilterFromQuery(c *gin.Context) service.ScopeFilter {
	return service.ScopeFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		GroupID:   strings.TrimSpace(c.Query("groupId")),
	}
}

// List godoc
// @Summary Prioritized alerts for the caller
// @Tags Alerts
// @Produce json
// @Param studentId query string false "Student ID"
// @Param groupId query string false "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	alerts, err := h.service.List(c.Request.Context(), caller, scopeFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// Dispatch godoc
// @Summary Publish alert digests for students in scope
// @Tags Alerts
// @Produce json
// @Param studentId query string false "Student ID"
// @Param groupId query string false "Group ID"
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /alerts/dispatch [post]
func (h *AlertHandler) Dispatch(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Dispatch(c.Request.Context(), caller, scopeFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}
