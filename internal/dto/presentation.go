package dto

import "github.com/noah-isme/sma-insights-api/internal/models"

// CategoryLabels maps staff metric categories to display labels.
var CategoryLabels = map[models.MetricCategory]string{
	models.MetricAttendance:     "Asistencia",
	models.MetricTaskCompletion: "Tareas calificadas",
	models.MetricCommunication:  "Comunicación",
	models.MetricStudentGrades:  "Calificaciones de alumnos",
	models.MetricPunctuality:    "Puntualidad",
}

// TierColors maps performance tiers to report colors.
var TierColors = map[models.PerformanceTier]string{
	models.TierOnTarget:    "#16A34A",
	models.TierNearTarget:  "#F59E0B",
	models.TierBelowTarget: "#DC2626",
}

// AlertTypeLabels maps alert types to display labels.
var AlertTypeLabels = map[models.AlertType]string{
	models.AlertOverdue:       "Tarea vencida",
	models.AlertUpcoming:      "Entrega próxima",
	models.AlertPendingReview: "Pendiente de calificar",
}

// TrendLabels maps trends to display labels.
var TrendLabels = map[models.Trend]string{
	models.TrendUp:   "En alza",
	models.TrendDown: "En baja",
	models.TrendFlat: "Estable",
}
