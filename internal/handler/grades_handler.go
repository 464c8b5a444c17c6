package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/internal/service"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
	"github.com/noah-isme/sma-insights-api/pkg/response"
)

const (
	defaultGradesPageSize = 50
	maxGradesPageSize     = 200
)

type gradesService interface {
	StudentGrades(ctx context.Context, caller models.Caller, studentID string) (*dto.StudentGrades, error)
	ListStudentGrades(ctx context.Context, caller models.Caller, groupID string) (*dto.StudentGradesList, error)
	Progress(ctx context.Context, caller models.Caller, studentID string) (*dto.ProgressSummary, error)
}

type reportService interface {
	StudentReport(ctx context.Context, caller models.Caller, studentID string, format service.ReportFormat) (*service.RenderedReport, error)
}

// GradesHandler exposes student grade, progress and report endpoints.
type GradesHandler struct {
	grades  gradesService
	reports reportService
}

// NewGradesHandler constructs a GradesHandler.
func NewGradesHandler(grades gradesService, reports reportService) *GradesHandler {
	return &GradesHandler{grades: grades, reports: reports}
}

// List godoc
// @Summary Grades for every student in scope
// @Tags Grades
// @Produce json
// @Param groupId query string false "Group ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50, max 200)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/grades [get]
func (h *GradesHandler) List(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := parsePositiveInt(c.Query("page"), 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	size, err := parsePositiveInt(c.Query("page_size"), defaultGradesPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	if size > maxGradesPageSize {
		size = maxGradesPageSize
	}

	list, err := h.grades.ListStudentGrades(c.Request.Context(), caller, strings.TrimSpace(c.Query("groupId")))
	if err != nil {
		response.Error(c, err)
		return
	}

	total := len(list.Students)
	from, to := total, total
	if page-1 < (total+size-1)/size {
		from = (page - 1) * size
		to = min(from+size, total)
	}
	paged := &dto.StudentGradesList{Empty: list.Empty, Students: list.Students[from:to]}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	response.JSON(c, http.StatusOK, paged, pagination)
}

// Student godoc
// @Summary Grades of one student
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/grades [get]
func (h *GradesHandler) Student(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.grades.StudentGrades(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Progress godoc
// @Summary Progress summary of one student
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *GradesHandler) Progress(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.grades.Progress(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Report godoc
// @Summary Render a student grade report
// @Tags Grades
// @Produce html
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "html (default), csv or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/report [get]
func (h *GradesHandler) Report(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	caller, err := callerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.StudentReport(c.Request.Context(), caller, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := report.Filename
	if format == service.ReportFormatHTML {
		filename = ""
	}
	response.File(c, filename, report.ContentType, report.Body)
}
