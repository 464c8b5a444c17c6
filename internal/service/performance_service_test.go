package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

type fakeUserStore struct {
	users map[string]models.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

type fakeStaffActivity struct {
	submissions []models.TeacherSubmission
	sessions    []models.AttendanceSession
	stored      []models.PerformanceMetric
	loads       int
}

func (f *fakeStaffActivity) ListForTeacher(context.Context, string, time.Time, time.Time) ([]models.TeacherSubmission, error) {
	f.loads++
	return f.submissions, nil
}

func (f *fakeStaffActivity) SessionsByGroups(context.Context, []string, time.Time, time.Time) ([]models.AttendanceSession, error) {
	return f.sessions, nil
}

func (f *fakeStaffActivity) ListMetrics(context.Context, string, string) ([]models.PerformanceMetric, error) {
	return f.stored, nil
}

func newPerformanceFixture(cache CacheRepository) (*PerformanceService, *fakeStaffActivity) {
	_, groups := schoolFixture()
	activity := &fakeStaffActivity{
		submissions: teacherSubmissions(10, 7, time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)),
		stored:      []models.PerformanceMetric{{Category: models.MetricCommunication, Value: 85, Period: "2024-04"}},
	}
	users := &fakeUserStore{users: map[string]models.User{
		"t-1":      {ID: "t-1", SchoolID: "school-1", FullName: "Lucia Mena", Role: models.RoleTeacher, Active: true},
		"t-9":      {ID: "t-9", SchoolID: "school-9", FullName: "Otro Colegio", Role: models.RoleTeacher, Active: true},
		"parent-1": {ID: "parent-1", SchoolID: "school-1", Role: models.RoleParent},
	}}
	svc := NewPerformanceService(PerformanceServiceDeps{
		Users:       users,
		Groups:      groups,
		Submissions: activity,
		Attendance:  activity,
		Stored:      activity,
		Cache:       NewCacheService(cache, nil, time.Minute, nil, cache != nil),
	}, DefaultPolicy())
	svc.now = func() time.Time { return fixedNow }
	return svc, activity
}

func TestPerformanceServiceTeacherSummary(t *testing.T) {
	svc, _ := newPerformanceFixture(nil)

	summary, hit, err := svc.TeacherSummary(context.Background(), teacherT1, "t-1", "2024-04")

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Lucia Mena", summary.TeacherName)
	assert.Equal(t, "2024-04", summary.Period)
	categories := make(map[models.MetricCategory]string)
	for _, category := range summary.Categories {
		categories[category.Category] = string(category.Tier)
	}
	assert.Equal(t, string(models.TierNearTarget), categories[models.MetricTaskCompletion])
	assert.Equal(t, string(models.TierOnTarget), categories[models.MetricCommunication])
	assert.NotContains(t, categories, models.MetricAttendance)
	require.NotNil(t, summary.OverallScore)
}

func TestPerformanceServiceCachesClosedPeriods(t *testing.T) {
	cache := newMemoryCache()
	svc, activity := newPerformanceFixture(cache)
	ctx := context.Background()

	_, hit, err := svc.TeacherSummary(ctx, adminOne, "t-1", "2024-04")
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := svc.TeacherSummary(ctx, adminOne, "t-1", "2024-04")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "t-1", cached.TeacherID)
	assert.Equal(t, 1, activity.loads)
	assert.Contains(t, cache.entries, "performance:t-1:2024-04")

	_, hit, err = svc.TeacherSummary(ctx, adminOne, "t-1", "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotContains(t, cache.entries, "performance:t-1:2024-05")
}

func TestPerformanceServiceAuthorization(t *testing.T) {
	svc, _ := newPerformanceFixture(nil)
	ctx := context.Background()

	_, _, err := svc.TeacherSummary(ctx, models.Caller{ID: "t-2", Role: models.RoleTeacher, SchoolID: "school-1"}, "t-1", "2024-04")
	assertForbidden(t, err)

	_, _, err = svc.TeacherSummary(ctx, parentOne, "t-1", "2024-04")
	assertForbidden(t, err)

	_, _, err = svc.TeacherSummary(ctx, adminOne, "t-9", "2024-04")
	assertForbidden(t, err)

	_, _, err = svc.TeacherSummary(ctx, adminOne, "parent-1", "2024-04")
	assertForbidden(t, err)

	_, _, err = svc.TeacherSummary(ctx, adminOne, "ghost", "2024-04")
	assertForbidden(t, err)
}

func TestPerformanceServiceRejectsBadPeriod(t *testing.T) {
	svc, _ := newPerformanceFixture(nil)

	_, _, err := svc.TeacherSummary(context.Background(), teacherT1, "t-1", "April")

	require.Error(t, err)
}
