package dto

import "github.com/noah-isme/sma-insights-api/internal/models"

// PeriodAverage is one point of a subject's monthly history.
type PeriodAverage struct {
	Period  string   `json:"period"`
	Average *float64 `json:"average"`
}

// SubjectGrades is the per-subject grade view for one student.
type SubjectGrades struct {
	SubjectID       *string         `json:"subjectId"`
	SubjectName     string          `json:"subjectName"`
	Color           string          `json:"color"`
	TotalTasks      int             `json:"totalTasks"`
	CompletedTasks  int             `json:"completedTasks"`
	GradedTasks     int             `json:"gradedTasks"`
	LateSubmissions int             `json:"lateSubmissions"`
	CompletionRate  float64         `json:"completionRate"`
	Average         *float64        `json:"average"`
	Trend           models.Trend    `json:"trend"`
	History         []PeriodAverage `json:"history"`
}

// StudentGrades is the rolled-up grade view for one student.
type StudentGrades struct {
	StudentID        string          `json:"studentId"`
	StudentName      string          `json:"studentName"`
	GroupID          string          `json:"groupId"`
	OverallAverage   *float64        `json:"overallAverage"`
	CompletionRate   float64         `json:"completionRate"`
	TotalTasks       int             `json:"totalTasks"`
	CompletedTasks   int             `json:"completedTasks"`
	TotalGradedTasks int             `json:"totalGradedTasks"`
	LateSubmissions  int             `json:"lateSubmissions"`
	Subjects         []SubjectGrades `json:"subjects"`
}

// StudentGradesList is returned for multi-student queries. Empty marks an authorized scope with no students.
type StudentGradesList struct {
	Empty    bool            `json:"empty"`
	Students []StudentGrades `json:"students"`
}

// SubjectHighlight is a subject surfaced as a concern or strength.
type SubjectHighlight struct {
	SubjectID   *string      `json:"subjectId"`
	SubjectName string       `json:"subjectName"`
	Color       string       `json:"color"`
	Average     *float64     `json:"average"`
	Trend       models.Trend `json:"trend"`
}

// ProgressSummary is the progress view for one student.
type ProgressSummary struct {
	Empty            bool               `json:"empty"`
	StudentID        string             `json:"studentId"`
	StudentName      string             `json:"studentName"`
	OverallAverage   *float64           `json:"overallAverage"`
	CompletionRate   float64            `json:"completionRate"`
	TotalGradedTasks int                `json:"totalGradedTasks"`
	LateSubmissions  int                `json:"lateSubmissions"`
	Subjects         []SubjectGrades    `json:"subjects"`
	AreasOfConcern   []SubjectHighlight `json:"areasOfConcern"`
	Strengths        []SubjectHighlight `json:"strengths"`
}

// NewSubjectGrades converts an aggregate into its display form.
func NewSubjectGrades(agg models.SubjectAggregate) SubjectGrades {
	history := make([]PeriodAverage, 0, len(agg.History))
	for _, point := range agg.History {
		history = append(history, PeriodAverage{Period: point.Period, Average: Round1Ptr(point.Average)})
	}
	return SubjectGrades{
		SubjectID:       subjectIDPtr(agg.SubjectID),
		SubjectName:     agg.SubjectName,
		Color:           agg.Color,
		TotalTasks:      agg.TotalTasks,
		CompletedTasks:  agg.CompletedTasks,
		GradedTasks:     agg.GradedTasks,
		LateSubmissions: agg.LateCount,
		CompletionRate:  Round1(agg.CompletionRate),
		Average:         Round1Ptr(agg.Average),
		Trend:           agg.Trend,
		History:         history,
	}
}

// NewStudentGrades converts a rollup into the grades view.
func NewStudentGrades(rollup models.StudentRollup) StudentGrades {
	return StudentGrades{
		StudentID:        rollup.Student.ID,
		StudentName:      rollup.Student.FullName,
		GroupID:          rollup.Student.GroupID,
		OverallAverage:   Round1Ptr(rollup.OverallAverage),
		CompletionRate:   Round1(rollup.CompletionRate),
		TotalTasks:       rollup.TotalTasks,
		CompletedTasks:   rollup.CompletedTasks,
		TotalGradedTasks: rollup.TotalGradedTasks,
		LateSubmissions:  rollup.LateSubmissions,
		Subjects:         subjectGradesList(rollup.Subjects),
	}
}

// NewProgressSummary converts a rollup into the progress view.
func NewProgressSummary(rollup models.StudentRollup) ProgressSummary {
	return ProgressSummary{
		StudentID:        rollup.Student.ID,
		StudentName:      rollup.Student.FullName,
		OverallAverage:   Round1Ptr(rollup.OverallAverage),
		CompletionRate:   Round1(rollup.CompletionRate),
		TotalGradedTasks: rollup.TotalGradedTasks,
		LateSubmissions:  rollup.LateSubmissions,
		Subjects:         subjectGradesList(rollup.Subjects),
		AreasOfConcern:   highlights(rollup.AreasOfConcern),
		Strengths:        highlights(rollup.Strengths),
	}
}

func subjectGradesList(aggs []models.SubjectAggregate) []SubjectGrades {
	result := make([]SubjectGrades, 0, len(aggs))
	for _, agg := range aggs {
		result = append(result, NewSubjectGrades(agg))
	}
	return result
}

func highlights(aggs []models.SubjectAggregate) []SubjectHighlight {
	result := make([]SubjectHighlight, 0, len(aggs))
	for _, agg := range aggs {
		result = append(result, SubjectHighlight{
			SubjectID:   subjectIDPtr(agg.SubjectID),
			SubjectName: agg.SubjectName,
			Color:       agg.Color,
			Average:     Round1Ptr(agg.Average),
			Trend:       agg.Trend,
		})
	}
	return result
}

func subjectIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
