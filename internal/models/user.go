package models

// UserRole represents the roles recognised by the scoping rules.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleParent  UserRole = "PARENT"
)

// Valid reports whether the role is one the engine knows how to scope.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// User is the staff/guardian record referenced by teacher performance lookups.
type User struct {
	ID       string   `db:"id" json:"id"`
	SchoolID string   `db:"school_id" json:"school_id"`
	Email    string   `db:"email" json:"email"`
	FullName string   `db:"full_name" json:"full_name"`
	Role     UserRole `db:"role" json:"role"`
	Active   bool     `db:"active" json:"active"`
}

// Caller is the (id, role, school) triple supplied by the identity collaborator.
type Caller struct {
	ID       string
	Role     UserRole
	SchoolID string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
