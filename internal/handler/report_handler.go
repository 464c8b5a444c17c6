package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/internal/service"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
	"github.com/noah-isme/sma-insights-api/pkg/response"
)

type reportArchive interface {
	ArchiveStudentReport(ctx context.Context, caller models.Caller, studentID string, format service.ReportFormat) (*dto.ReportLink, error)
	OpenArchivedReport(ctx context.Context, caller models.Caller, token string) (*service.ArchivedReport, error)
}

// ReportHandler stores rendered reports and serves them through signed links.
type ReportHandler struct {
	archive reportArchive
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(archive reportArchive) *ReportHandler {
	return &ReportHandler{archive: archive}
}

// Archive godoc
// @Summary Store a student report and issue a download link
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Param format query string false "html, csv or pdf (default)"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/report/archive [post]
func (h *ReportHandler) Archive(c *gin.Context) {
	if h.archive == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	raw := c.Query("format")
	if raw == "" {
		raw = string(service.ReportFormatPDF)
	}
	format, err := service.ParseReportFormat(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.archive.ArchiveStudentReport(c.Request.Context(), caller, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, link, nil)
}

// Download godoc
// @Summary Download an archived report via signed token
// @Tags Grades
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	if h.archive == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.archive.OpenArchivedReport(c.Request.Context(), caller, c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer report.Body.Close() //nolint:errcheck
	response.Stream(c, report.Filename, report.ContentType, report.Size, report.Body)
}
