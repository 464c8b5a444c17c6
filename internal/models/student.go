package models

// Student represents a learner registered in the institution.
type Student struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	GroupID  string `db:"group_id" json:"group_id"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// Group is a homeroom class led by a single teacher.
type Group struct {
	ID        string `db:"id" json:"id"`
	SchoolID  string `db:"school_id" json:"school_id"`
	Name      string `db:"name" json:"name"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
}
