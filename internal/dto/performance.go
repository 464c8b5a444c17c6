package dto

import "github.com/noah-isme/sma-insights-api/internal/models"

// CategoryPerformance is one classified staff category.
type CategoryPerformance struct {
	Category models.MetricCategory  `json:"category"`
	Label    string                 `json:"label"`
	Value    float64                `json:"value"`
	Target   float64                `json:"target"`
	Tier     models.PerformanceTier `json:"tier"`
	Color    string                 `json:"color"`
	Source   models.MetricSource    `json:"source"`
}

// TeacherPerformanceSummary is the staff performance view for a period.
type TeacherPerformanceSummary struct {
	TeacherID    string                  `json:"teacherId"`
	TeacherName  string                  `json:"teacherName"`
	Period       string                  `json:"period"`
	OverallScore *float64                `json:"overallScore"`
	OverallTier  *models.PerformanceTier `json:"overallTier,omitempty"`
	Categories   []CategoryPerformance   `json:"categories"`
}

// NewTeacherPerformanceSummary converts a computed summary into its display form.
func NewTeacherPerformanceSummary(perf models.TeacherPerformance, overallTier *models.PerformanceTier) TeacherPerformanceSummary {
	categories := make([]CategoryPerformance, 0, len(perf.Categories))
	for _, score := range perf.Categories {
		categories = append(categories, CategoryPerformance{
			Category: score.Category,
			Label:    CategoryLabels[score.Category],
			Value:    Round1(score.Value),
			Target:   Round1(score.Target),
			Tier:     score.Tier,
			Color:    TierColors[score.Tier],
			Source:   score.Source,
		})
	}
	return TeacherPerformanceSummary{
		TeacherID:    perf.Teacher.ID,
		TeacherName:  perf.Teacher.FullName,
		Period:       perf.Period.Label,
		OverallScore: Round1Ptr(perf.OverallScore),
		OverallTier:  overallTier,
		Categories:   categories,
	}
}

// GradeSubmissionResponse echoes the graded submission.
type GradeSubmissionResponse struct {
	SubmissionID string                  `json:"submissionId"`
	Status       models.SubmissionStatus `json:"status"`
	Score        *float64                `json:"score"`
	MaxScore     float64                 `json:"maxScore"`
	Percentage   *float64                `json:"percentage"`
	ReviewedAt   string                  `json:"reviewedAt"`
}
