package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-magazine/apiserver/types"
)

type fakeReportRepo struct {
	cells       []types.FacultyYearCount
	yearTotals  []types.YearCount
	total       int
	uncommented []types.UncommentedContribution
}

func (f *fakeReportRepo) SelectedByFacultyYear(context.Context) ([]types.FacultyYearCount, error) {
	return f.cells, nil
}
func (f *fakeReportRepo) ContributorsByFacultyYear(context.Context) ([]types.FacultyYearCount, error) {
	return f.cells, nil
}
func (f *fakeReportRepo) ContributorsByYear(context.Context) ([]types.YearCount, error) {
	return f.yearTotals, nil
}
func (f *fakeReportRepo) TotalSelected(context.Context) (int, error)     { return f.total, nil }
func (f *fakeReportRepo) TotalContributors(context.Context) (int, error) { return f.total, nil }
func (f *fakeReportRepo) FacultyStats(context.Context, string, string) (types.FacultyStats, error) {
	return types.FacultyStats{FacultyName: "Engineering", TotalContributions: 7, UniqueContributors: 4}, nil
}
func (f *fakeReportRepo) YearlyStats(context.Context, string) ([]types.YearlyStat, error) {
	return nil, nil
}
func (f *fakeReportRepo) Uncommented(context.Context, string) ([]types.UncommentedContribution, error) {
	return f.uncommented, nil
}

type fakeGuestDirectory struct {
	guests []types.User
}

func (f *fakeGuestDirectory) ListByFacultyAndRole(context.Context, string, string) ([]types.User, error) {
	return f.guests, nil
}

func newReportService(repo *fakeReportRepo) *ReportService {
	return NewReportService(repo, &fakeGuestDirectory{})
}

func reportCells() []types.FacultyYearCount {
	start2025 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end2026 := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	start2024 := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end2025 := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	return []types.FacultyYearCount{
		{YearID: "y2", YearStart: start2025, YearEnd: end2026, FacultyID: "f1", FacultyName: "Arts", Count: 3},
		{YearID: "y2", YearStart: start2025, YearEnd: end2026, FacultyID: "f2", FacultyName: "Engineering", Count: 5},
		{YearID: "y1", YearStart: start2024, YearEnd: end2025, FacultyID: "f2", FacultyName: "Engineering", Count: 2},
	}
}

func TestContributionsReportSumsFacultyCells(t *testing.T) {
	repo := &fakeReportRepo{cells: reportCells(), total: 10}
	service := newReportService(repo)

	report, err := service.ContributionsReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.AcademicYears, 2)
	assert.Equal(t, "2025-2026", report.AcademicYears[0].Year)
	assert.Equal(t, 8, report.AcademicYears[0].Total)
	assert.Equal(t, "2024-2025", report.AcademicYears[1].Year)
	assert.Equal(t, 2, report.AcademicYears[1].Total)
	assert.Equal(t, 10, report.TotalContributions)

	require.Len(t, report.AcademicYears[0].Faculties, 2)
	assert.Equal(t, "Arts", report.AcademicYears[0].Faculties[0].Name)
}

func TestContributorsReportUsesDistinctYearTotals(t *testing.T) {
	// a student contributing in two faculties: faculty cells sum to 8 for
	// y2 but the distinct year total is 7
	repo := &fakeReportRepo{
		cells:      reportCells(),
		yearTotals: []types.YearCount{{YearID: "y2", Count: 7}, {YearID: "y1", Count: 2}},
		total:      8,
	}
	service := newReportService(repo)

	report, err := service.ContributorsReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.AcademicYears, 2)
	assert.Equal(t, 7, report.AcademicYears[0].Total)
	assert.Equal(t, 2, report.AcademicYears[1].Total)
	assert.Equal(t, 8, report.TotalUniqueContributors)
}

func TestUncommentedReportFlagsOverdue(t *testing.T) {
	now := time.Now()
	repo := &fakeReportRepo{uncommented: []types.UncommentedContribution{
		{Contribution: types.Contribution{ID: "old", SubmissionDate: now.Add(-20 * 24 * time.Hour)}},
		{Contribution: types.Contribution{ID: "new", SubmissionDate: now.Add(-2 * 24 * time.Hour)}},
	}}
	service := newReportService(repo)

	report, err := service.UncommentedReport(context.Background(), coordinator())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.TotalOverdue)
	assert.True(t, report.Items[0].Overdue)
	assert.False(t, report.Items[1].Overdue)
	assert.Equal(t, report.Items[1].SubmissionDate.Add(FeedbackWindow), report.Items[1].DueDate)
}

func TestUncommentedReportEmpty(t *testing.T) {
	service := newReportService(&fakeReportRepo{})

	report, err := service.UncommentedReport(context.Background(), coordinator())
	require.NoError(t, err)
	assert.NotNil(t, report.Items)
	assert.Equal(t, 0, report.Total)
}

func TestFacultyGuestsKeepsOnlyActiveAccounts(t *testing.T) {
	service := NewReportService(&fakeReportRepo{}, &fakeGuestDirectory{guests: []types.User{
		{ID: "g1", Status: types.UserStatusActive},
		{ID: "g2", Status: types.UserStatusInactive},
	}})

	guests, err := service.FacultyGuests(context.Background(), coordinator())
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "g1", guests[0].ID)
}

func TestReportsRequireFaculty(t *testing.T) {
	service := newReportService(&fakeReportRepo{})
	manager := types.User{ID: "m1", Role: types.RoleMarketingManager}

	_, err := service.FacultyStats(context.Background(), manager, "")
	assert.Error(t, err)
	_, err = service.UncommentedReport(context.Background(), manager)
	assert.Error(t, err)
}
