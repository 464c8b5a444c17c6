package dto

import (
	"time"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// Alert is the display form of a generated alert.
type Alert struct {
	ID          string               `json:"id"`
	Type        models.AlertType     `json:"type"`
	Priority    models.AlertPriority `json:"priority"`
	Label       string               `json:"label"`
	TaskID      string               `json:"taskId"`
	TaskTitle   string               `json:"taskTitle"`
	StudentID   string               `json:"studentId"`
	StudentName string               `json:"studentName"`
	SubjectName string               `json:"subjectName"`
	DueDate     *time.Time           `json:"dueDate,omitempty"`
}

// AlertSummary counts alerts by priority.
type AlertSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// AlertsResponse is returned by the alerts endpoint.
type AlertsResponse struct {
	Empty   bool         `json:"empty"`
	Alerts  []Alert      `json:"alerts"`
	Summary AlertSummary `json:"summary"`
}

// DispatchAlertsResponse reports how many digests were queued.
type DispatchAlertsResponse struct {
	Students int `json:"students"`
	Queued   int `json:"queued"`
	Failed   int `json:"failed"`
}

// NewAlertsResponse converts engine alerts into the display form.
func NewAlertsResponse(alerts []models.Alert, summary models.AlertSummary) AlertsResponse {
	items := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, Alert{
			ID:          alert.ID,
			Type:        alert.Type,
			Priority:    alert.Priority,
			Label:       AlertTypeLabels[alert.Type],
			TaskID:      alert.TaskID,
			TaskTitle:   alert.TaskTitle,
			StudentID:   alert.StudentID,
			StudentName: alert.StudentName,
			SubjectName: alert.SubjectName,
			DueDate:     alert.DueDate,
		})
	}
	return AlertsResponse{
		Alerts: items,
		Summary: AlertSummary{
			Total:  summary.Total,
			High:   summary.High,
			Medium: summary.Medium,
			Low:    summary.Low,
		},
	}
}
