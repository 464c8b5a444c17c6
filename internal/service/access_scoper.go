package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// ScopeStudentReader resolves student IDs by relationship.
type ScopeStudentReader interface {
	IDsByParent(ctx context.Context, parentID string) ([]string, error)
	IDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
	IDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	IDsByGroup(ctx context.Context, groupID string) ([]string, error)
}

// ScopeGroupReader loads group ownership data.
type ScopeGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// ScopeFilter narrows a scope to an explicit student or group.
type ScopeFilter struct {
	StudentID string
	GroupID   string
}

// Scope is the sorted, de-duplicated set of students a caller may see.
type Scope struct {
	StudentIDs []string
	GroupID    string
}

// Empty reports whether the scope contains no students.
func (s Scope) Empty() bool {
	return len(s.StudentIDs) == 0
}

// Contains reports whether the student is part of the scope.
func (s Scope) Contains(studentID string) bool {
	idx := sort.SearchStrings(s.StudentIDs, studentID)
	return idx < len(s.StudentIDs) && s.StudentIDs[idx] == studentID
}

// Scoper is the per-role visibility rule.
type Scoper interface {
	Role() models.UserRole
	AllowedStudents(ctx context.Context, caller models.Caller) ([]string, error)
	CanViewGroup(caller models.Caller, group models.Group, allowed Scope, members []string) bool
}

type parentScoper struct{ students ScopeStudentReader }

func (parentScoper) Role() models.UserRole { return models.RoleParent }

func (p parentScoper) AllowedStudents(ctx context.Context, caller models.Caller) ([]string, error) {
	return p.students.IDsByParent(ctx, caller.ID)
}

func (parentScoper) CanViewGroup(_ models.Caller, _ models.Group, allowed Scope, members []string) bool {
	for _, id := range members {
		if allowed.Contains(id) {
			return true
		}
	}
	return false
}

type teacherScoper struct{ students ScopeStudentReader }

func (teacherScoper) Role() models.UserRole { return models.RoleTeacher }

func (t teacherScoper) AllowedStudents(ctx context.Context, caller models.Caller) ([]string, error) {
	return t.students.IDsByTeacher(ctx, caller.ID)
}

func (teacherScoper) CanViewGroup(caller models.Caller, group models.Group, _ Scope, _ []string) bool {
	return group.TeacherID == caller.ID
}

type adminScoper struct{ students ScopeStudentReader }

func (adminScoper) Role() models.UserRole { return models.RoleAdmin }

func (a adminScoper) AllowedStudents(ctx context.Context, caller models.Caller) ([]string, error) {
	if caller.SchoolID == "" {
		return nil, nil
	}
	return a.students.IDsBySchool(ctx, caller.SchoolID)
}

func (adminScoper) CanViewGroup(caller models.Caller, group models.Group, _ Scope, _ []string) bool {
	return caller.SchoolID != "" && group.SchoolID == caller.SchoolID
}

// AccessScoper dispatches to the Scoper registered for the caller's role.
type AccessScoper struct {
	variants map[models.UserRole]Scoper
	students ScopeStudentReader
	groups   ScopeGroupReader
	logger   *zap.Logger
}

// NewAccessScoper wires the admin, teacher and parent variants.
func NewAccessScoper(students ScopeStudentReader, groups ScopeGroupReader, logger *zap.Logger) *AccessScoper {
	if logger == nil {
		logger = zap.NewNop()
	}
	scoper := &AccessScoper{
		variants: make(map[models.UserRole]Scoper),
		students: students,
		groups:   groups,
		logger:   logger,
	}
	for _, variant := range []Scoper{parentScoper{students}, teacherScoper{students}, adminScoper{students}} {
		scoper.variants[variant.Role()] = variant
	}
	return scoper
}

// Resolve returns the students visible to the caller after applying the filter.
// Out-of-scope and non-existent entities both yield a Forbidden error.
func (s *AccessScoper) Resolve(ctx context.Context, caller models.Caller, filter ScopeFilter) (Scope, error) {
	variant, ok := s.variants[caller.Role]
	if !ok || caller.ID == "" {
		return Scope{}, appErrors.AccessDenied()
	}

	ids, err := variant.AllowedStudents(ctx, caller)
	if err != nil {
		return Scope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	scope := Scope{StudentIDs: uniqueSorted(ids)}

	if filter.StudentID != "" {
		if !scope.Contains(filter.StudentID) {
			s.logger.Debug("student outside caller scope",
				zap.String("caller_id", caller.ID),
				zap.String("role", string(caller.Role)),
				zap.String("student_id", filter.StudentID))
			return Scope{}, appErrors.AccessDenied()
		}
		scope.StudentIDs = []string{filter.StudentID}
	}

	if filter.GroupID != "" {
		narrowed, err := s.narrowToGroup(ctx, caller, variant, scope, filter.GroupID)
		if err != nil {
			return Scope{}, err
		}
		scope = narrowed
	}
	return scope, nil
}

func (s *AccessScoper) narrowToGroup(ctx context.Context, caller models.Caller, variant Scoper, scope Scope, groupID string) (Scope, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scope{}, appErrors.AccessDenied()
		}
		return Scope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if group == nil {
		return Scope{}, appErrors.AccessDenied()
	}
	members, err := s.students.IDsByGroup(ctx, group.ID)
	if err != nil {
		return Scope{}, appErrors.Wrap(fmt.Errorf("group members: %w", err), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	if !variant.CanViewGroup(caller, *group, scope, members) {
		return Scope{}, appErrors.AccessDenied()
	}

	inGroup := make([]string, 0, len(members))
	for _, id := range uniqueSorted(members) {
		if scope.Contains(id) {
			inGroup = append(inGroup, id)
		}
	}
	return Scope{StudentIDs: inGroup, GroupID: group.ID}, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}
