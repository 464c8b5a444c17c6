package models

// Subject represents an academic subject within a school.
type Subject struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	Name     string `db:"name" json:"name"`
	Color    string `db:"color" json:"color"`
}
