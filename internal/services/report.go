package services

import (
	"context"
	"time"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/types"
)

// FeedbackWindow is how long a coordinator has to comment on a new
// contribution before it counts as overdue.
const FeedbackWindow = 14 * 24 * time.Hour

// ReportRepository defines the aggregate queries behind the reports.
type ReportRepository interface {
	SelectedByFacultyYear(ctx context.Context) ([]types.FacultyYearCount, error)
	ContributorsByFacultyYear(ctx context.Context) ([]types.FacultyYearCount, error)
	ContributorsByYear(ctx context.Context) ([]types.YearCount, error)
	TotalSelected(ctx context.Context) (int, error)
	TotalContributors(ctx context.Context) (int, error)
	FacultyStats(ctx context.Context, facultyID, academicYearID string) (types.FacultyStats, error)
	YearlyStats(ctx context.Context, facultyID string) ([]types.YearlyStat, error)
	Uncommented(ctx context.Context, facultyID string) ([]types.UncommentedContribution, error)
}

// GuestDirectory is the slice of the user store the coordinator's guest
// report needs.
type GuestDirectory interface {
	ListByFacultyAndRole(ctx context.Context, facultyID, role string) ([]types.User, error)
}

// ReportService encapsulates the manager and coordinator reports.
type ReportService struct {
	reports ReportRepository
	users   GuestDirectory
}

func NewReportService(reports ReportRepository, users GuestDirectory) *ReportService {
	return &ReportService{reports: reports, users: users}
}

// ContributionsReport counts selected contributions per faculty per academic
// year. The year total is the sum of its faculty cells.
func (s *ReportService) ContributionsReport(ctx context.Context) (types.ContributionsReport, error) {
	cells, err := s.reports.SelectedByFacultyYear(ctx)
	if err != nil {
		return types.ContributionsReport{}, err
	}
	total, err := s.reports.TotalSelected(ctx)
	if err != nil {
		return types.ContributionsReport{}, err
	}

	groups := groupByYear(cells)
	for i := range groups {
		sum := 0
		for _, faculty := range groups[i].Faculties {
			sum += faculty.Count
		}
		groups[i].Total = sum
	}

	return types.ContributionsReport{
		AcademicYears:      groups,
		TotalContributions: total,
	}, nil
}

// ContributorsReport counts distinct students with a selected contribution
// per faculty per academic year. A student active across faculties counts
// once per year and once in the grand total, so the year totals come from
// their own query rather than from summing the faculty cells.
func (s *ReportService) ContributorsReport(ctx context.Context) (types.ContributorsReport, error) {
	cells, err := s.reports.ContributorsByFacultyYear(ctx)
	if err != nil {
		return types.ContributorsReport{}, err
	}
	yearTotals, err := s.reports.ContributorsByYear(ctx)
	if err != nil {
		return types.ContributorsReport{}, err
	}
	total, err := s.reports.TotalContributors(ctx)
	if err != nil {
		return types.ContributorsReport{}, err
	}

	totalByYear := make(map[string]int, len(yearTotals))
	for _, yearTotal := range yearTotals {
		totalByYear[yearTotal.YearID] = yearTotal.Count
	}

	groups := groupByYear(cells)
	for i := range groups {
		groups[i].Total = totalByYear[groups[i].ID]
	}

	return types.ContributorsReport{
		AcademicYears:           groups,
		TotalUniqueContributors: total,
	}, nil
}

// groupByYear folds faculty cells into per-year groups, keeping the cells'
// order (most recent year first, faculties alphabetical within a year).
func groupByYear(cells []types.FacultyYearCount) []types.YearGroup {
	groups := []types.YearGroup{}
	index := map[string]int{}
	for _, cell := range cells {
		i, ok := index[cell.YearID]
		if !ok {
			i = len(groups)
			index[cell.YearID] = i
			groups = append(groups, types.YearGroup{
				ID:        cell.YearID,
				Year:      types.FormatAcademicYear(cell.YearStart, cell.YearEnd),
				StartDate: cell.YearStart,
			})
		}
		groups[i].Faculties = append(groups[i].Faculties, types.FacultyCount{
			ID:    cell.FacultyID,
			Name:  cell.FacultyName,
			Count: cell.Count,
		})
	}
	return groups
}

// FacultyStats is the coordinator's rollup for their own faculty, optionally
// scoped to one academic year.
func (s *ReportService) FacultyStats(ctx context.Context, coordinator types.User, academicYearID string) (types.FacultyStats, error) {
	if coordinator.FacultyID == "" {
		return types.FacultyStats{}, apperr.Validation("coordinator has no faculty")
	}
	return s.reports.FacultyStats(ctx, coordinator.FacultyID, academicYearID)
}

// FacultyGuests lists the active guest accounts of the coordinator's faculty.
func (s *ReportService) FacultyGuests(ctx context.Context, coordinator types.User) ([]types.User, error) {
	if coordinator.FacultyID == "" {
		return nil, apperr.Validation("coordinator has no faculty")
	}

	guests, err := s.users.ListByFacultyAndRole(ctx, coordinator.FacultyID, types.RoleGuest)
	if err != nil {
		return nil, err
	}

	active := []types.User{}
	for _, guest := range guests {
		if guest.Status == types.UserStatusActive {
			active = append(active, guest)
		}
	}
	return active, nil
}

// YearlyStats is the coordinator's per-year trend for their faculty.
func (s *ReportService) YearlyStats(ctx context.Context, coordinator types.User) ([]types.YearlyStat, error) {
	if coordinator.FacultyID == "" {
		return nil, apperr.Validation("coordinator has no faculty")
	}
	return s.reports.YearlyStats(ctx, coordinator.FacultyID)
}

// UncommentedReport lists the coordinator's pending contributions still
// waiting for a first comment, flagging the ones past the feedback window.
func (s *ReportService) UncommentedReport(ctx context.Context, coordinator types.User) (types.UncommentedReport, error) {
	if coordinator.FacultyID == "" {
		return types.UncommentedReport{}, apperr.Validation("coordinator has no faculty")
	}

	items, err := s.reports.Uncommented(ctx, coordinator.FacultyID)
	if err != nil {
		return types.UncommentedReport{}, err
	}

	now := time.Now()
	overdue := 0
	for i := range items {
		items[i].DueDate = items[i].SubmissionDate.Add(FeedbackWindow)
		items[i].Overdue = now.After(items[i].DueDate)
		if items[i].Overdue {
			overdue++
		}
	}
	if items == nil {
		items = []types.UncommentedContribution{}
	}

	return types.UncommentedReport{
		Items:        items,
		Total:        len(items),
		TotalOverdue: overdue,
	}, nil
}
