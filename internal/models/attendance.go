package models

import "time"

// AttendanceStatus enumerates daily attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENTE"
	AttendanceAbsent  AttendanceStatus = "AUSENTE"
	AttendanceLate    AttendanceStatus = "TARDANZA"
	AttendanceExcused AttendanceStatus = "JUSTIFICADO"
)

// Attendance is one record per student per school day.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	GroupID   string           `db:"group_id" json:"group_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// AttendanceSession is a (group, day) pair on which attendance was taken.
type AttendanceSession struct {
	GroupID string    `db:"group_id"`
	Date    time.Time `db:"date"`
}
