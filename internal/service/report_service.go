package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
	"github.com/noah-isme/sma-insights-api/pkg/export"
	"github.com/noah-isme/sma-insights-api/pkg/storage"
)

// ReportFormat selects the rendered representation of a student report.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ContentType returns the MIME type of the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv; charset=utf-8"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "text/html; charset=utf-8"
	}
}

// ParseReportFormat validates a format query value, defaulting to HTML.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatHTML:
		return ReportFormatHTML, nil
	case ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "format must be one of html, csv, pdf")
}

// RenderedReport is a rendered student report.
type RenderedReport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// StudentRollupProvider yields the rollup behind a student report.
type StudentRollupProvider interface {
	StudentRollup(ctx context.Context, caller models.Caller, studentID string) (*models.StudentRollup, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type reportStore interface {
	Put(name string, data []byte) error
	Open(name string) (io.ReadCloser, int64, error)
	Sweep(cutoff time.Time) ([]string, error)
}

type linkSigner interface {
	Sign(owner, path string, now time.Time) (string, storage.Link, error)
	Verify(token string, now time.Time) (storage.Link, error)
	TTL() time.Duration
}

// ReportService renders the grades view of a student as HTML, CSV or PDF.
type ReportService struct {
	grades  StudentRollupProvider
	html    titledRenderer
	csv     tableRenderer
	pdf     titledRenderer
	store   reportStore
	signer  linkSigner
	prefix  string
	now     func() time.Time
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportService constructs a ReportService with the default exporters.
func NewReportService(grades StudentRollupProvider, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		grades:  grades,
		html:    export.NewHTMLExporter(),
		csv:     export.NewCSVExporter(export.WithBOM()),
		pdf:     export.NewPDFExporter(),
		prefix:  "/api/v1",
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// WithArchive enables storing rendered reports behind signed download links.
func (s *ReportService) WithArchive(store reportStore, signer linkSigner, apiPrefix string) *ReportService {
	s.store = store
	s.signer = signer
	if trimmed := strings.TrimRight(apiPrefix, "/"); trimmed != "" {
		s.prefix = trimmed
	}
	return s
}

const missingAverage = "Sin calificar"

var reportHeaders = []string{"Materia", "Promedio", "Tendencia", "Tareas", "Entregadas", "Calificadas", "Tardías", "Completitud"}

// StudentReport renders the report of one student in the caller's scope.
func (s *ReportService) StudentReport(ctx context.Context, caller models.Caller, studentID string, format ReportFormat) (*RenderedReport, error) {
	report, err := s.render(ctx, caller, studentID, format)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReport(string(format), "inline")
	return report, nil
}

func (s *ReportService) render(ctx context.Context, caller models.Caller, studentID string, format ReportFormat) (*RenderedReport, error) {
	rollup, err := s.grades.StudentRollup(ctx, caller, studentID)
	if err != nil {
		return nil, err
	}
	view := dto.NewStudentGrades(*rollup)
	dataset := BuildGradesDataset(view)
	title := "Reporte de calificaciones - " + view.StudentName

	var body []byte
	switch format {
	case ReportFormatCSV:
		body, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		body, err = s.pdf.Render(dataset, title)
	default:
		format = ReportFormatHTML
		body, err = s.html.Render(dataset, title)
	}
	if err != nil {
		s.logger.Error("render student report", zap.String("student_id", studentID), zap.String("format", string(format)), zap.Error(err))
		return nil, internalError(err, "failed to render report")
	}
	return &RenderedReport{
		Filename:    fmt.Sprintf("reporte-%s.%s", view.StudentID, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// BuildGradesDataset flattens a grades view into a table with summary notes.
func BuildGradesDataset(view dto.StudentGrades) export.Dataset {
	dataset := export.Dataset{
		Headers: reportHeaders,
		Rows:    make([]map[string]string, 0, len(view.Subjects)),
		Notes: []string{
			"Alumno: " + view.StudentName,
			"Promedio general: " + formatAverage(view.OverallAverage),
			"Completitud: " + formatPercent(view.CompletionRate),
			"Tareas calificadas: " + strconv.Itoa(view.TotalGradedTasks),
			"Entregas tardías: " + strconv.Itoa(view.LateSubmissions),
		},
	}
	for _, subject := range view.Subjects {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Materia":     subject.SubjectName,
			"Promedio":    formatAverage(subject.Average),
			"Tendencia":   dto.TrendLabels[subject.Trend],
			"Tareas":      strconv.Itoa(subject.TotalTasks),
			"Entregadas":  strconv.Itoa(subject.CompletedTasks),
			"Calificadas": strconv.Itoa(subject.GradedTasks),
			"Tardías":     strconv.Itoa(subject.LateSubmissions),
			"Completitud": formatPercent(subject.CompletionRate),
		})
	}
	return dataset
}

func formatAverage(v *float64) string {
	if v == nil {
		return missingAverage
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// ArchivedReport is a stored report opened through a download link.
type ArchivedReport struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

var errArchiveDisabled = appErrors.Clone(appErrors.ErrInternal, "report archive is not configured")

// ArchiveStudentReport renders a report, stores it and returns a signed link bound to the caller.
func (s *ReportService) ArchiveStudentReport(ctx context.Context, caller models.Caller, studentID string, format ReportFormat) (*dto.ReportLink, error) {
	if s.store == nil || s.signer == nil {
		return nil, errArchiveDisabled
	}
	report, err := s.render(ctx, caller, studentID, format)
	if err != nil {
		return nil, err
	}
	name := path.Join(studentID, uuid.NewString()+"-"+report.Filename)
	if err := s.store.Put(name, report.Body); err != nil {
		s.logger.Error("store student report", zap.String("student_id", studentID), zap.Error(err))
		return nil, internalError(err, "failed to store report")
	}
	token, link, err := s.signer.Sign(caller.ID, name, s.now())
	if err != nil {
		return nil, internalError(err, "failed to sign report link")
	}
	s.metrics.RecordReport(string(format), "archived")
	return &dto.ReportLink{
		StudentID:   studentID,
		Format:      string(format),
		Token:       token,
		DownloadURL: s.prefix + "/reports/download?token=" + token,
		ExpiresAt:   link.ExpiresAt,
	}, nil
}

// OpenArchivedReport resolves a download token issued to the caller.
func (s *ReportService) OpenArchivedReport(_ context.Context, caller models.Caller, token string) (*ArchivedReport, error) {
	if s.store == nil || s.signer == nil {
		return nil, errArchiveDisabled
	}
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	link, err := s.signer.Verify(token, s.now())
	switch {
	case errors.Is(err, storage.ErrExpiredLink):
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	case err != nil:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	if link.Owner != caller.ID {
		return nil, appErrors.AccessDenied()
	}
	body, size, err := s.store.Open(link.Path)
	if err != nil {
		s.logger.Warn("open archived report", zap.String("path", link.Path), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	filename := path.Base(link.Path)
	if idx := strings.Index(filename, "-reporte-"); idx >= 0 {
		filename = filename[idx+1:]
	}
	return &ArchivedReport{
		Filename:    filename,
		ContentType: ReportFormat(strings.TrimPrefix(path.Ext(filename), ".")).ContentType(),
		Size:        size,
		Body:        body,
	}, nil
}

// SweepArchive removes stored reports whose links have expired.
func (s *ReportService) SweepArchive() (int, error) {
	if s.store == nil || s.signer == nil {
		return 0, nil
	}
	removed, err := s.store.Sweep(s.now().Add(-s.signer.TTL()))
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		s.logger.Info("swept archived reports", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

// StartSweeper purges expired archived reports every interval until ctx ends.
func (s *ReportService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.store == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepArchive(); err != nil {
					s.logger.Warn("sweep archived reports", zap.Error(err))
				}
			}
		}
	}()
}
