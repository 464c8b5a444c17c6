package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/internal/service"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

type fakeReportArchive struct {
	link       *dto.ReportLink
	archived   *service.ArchivedReport
	err        error
	lastFormat service.ReportFormat
	lastToken  string
	lastCaller models.Caller
}

func (f *fakeReportArchive) ArchiveStudentReport(_ context.Context, caller models.Caller, _ string, format service.ReportFormat) (*dto.ReportLink, error) {
	f.lastCaller = caller
	f.lastFormat = format
	return f.link, f.err
}

func (f *fakeReportArchive) OpenArchivedReport(_ context.Context, caller models.Caller, token string) (*service.ArchivedReport, error) {
	f.lastCaller = caller
	f.lastToken = token
	return f.archived, f.err
}

func TestReportArchiveDefaultsToPDF(t *testing.T) {
	expires := time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC)
	archive := &fakeReportArchive{link: &dto.ReportLink{StudentID: "s1", Format: "pdf", Token: "tok", DownloadURL: "/api/v1/reports/download?token=tok", ExpiresAt: expires}}
	h := NewReportHandler(archive)

	c, rec := newTestContext(http.MethodPost, "/students/s1/report/archive", nil, parentClaims())
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Archive(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, service.ReportFormatPDF, archive.lastFormat)
	assert.Equal(t, "parent-1", archive.lastCaller.ID)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "/api/v1/reports/download?token=tok", envelope.Data["downloadUrl"])
}

func TestReportArchiveRejectsUnknownFormat(t *testing.T) {
	h := NewReportHandler(&fakeReportArchive{})

	c, rec := newTestContext(http.MethodPost, "/students/s1/report/archive?format=xls", nil, parentClaims())
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Archive(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDownloadStreamsFile(t *testing.T) {
	archive := &fakeReportArchive{archived: &service.ArchivedReport{
		Filename:    "reporte-s1.csv",
		ContentType: "text/csv; charset=utf-8",
		Size:        4,
		Body:        io.NopCloser(strings.NewReader("a,b\n")),
	}}
	h := NewReportHandler(archive)

	c, rec := newTestContext(http.MethodGet, "/reports/download?token=tok", nil, parentClaims())
	h.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", archive.lastToken)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=reporte-s1.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestReportDownloadForbidden(t *testing.T) {
	h := NewReportHandler(&fakeReportArchive{err: appErrors.AccessDenied()})

	c, rec := newTestContext(http.MethodGet, "/reports/download?token=tok", nil, parentClaims())
	h.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportDownloadRequiresClaims(t *testing.T) {
	h := NewReportHandler(&fakeReportArchive{})

	c, rec := newTestContext(http.MethodGet, "/reports/download?token=tok", nil, nil)
	h.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
