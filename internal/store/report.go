package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/uni-magazine/apiserver/types"
)

// ReportRepository runs the aggregate queries behind the manager and
// coordinator reports. Grouping into response shapes happens in the service
// layer.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SelectedByFacultyYear counts selected contributions per faculty per
// academic year.
func (r *ReportRepository) SelectedByFacultyYear(ctx context.Context) ([]types.FacultyYearCount, error) {
	const query = `
		SELECT y.id, y.start_date, y.end_date, f.id, f.name, COUNT(c.id)
		FROM contributions c
		JOIN academic_years y ON y.id = c.academic_year_id
		JOIN faculties f ON f.id = c.faculty_id
		WHERE c.status = 'selected'
		GROUP BY y.id, y.start_date, y.end_date, f.id, f.name
		ORDER BY y.start_date DESC, f.name`
	return r.queryFacultyYearCounts(ctx, query)
}

// ContributorsByFacultyYear counts distinct students with a selected
// contribution per faculty per academic year.
func (r *ReportRepository) ContributorsByFacultyYear(ctx context.Context) ([]types.FacultyYearCount, error) {
	const query = `
		SELECT y.id, y.start_date, y.end_date, f.id, f.name, COUNT(DISTINCT c.student_id)
		FROM contributions c
		JOIN academic_years y ON y.id = c.academic_year_id
		JOIN faculties f ON f.id = c.faculty_id
		WHERE c.status = 'selected'
		GROUP BY y.id, y.start_date, y.end_date, f.id, f.name
		ORDER BY y.start_date DESC, f.name`
	return r.queryFacultyYearCounts(ctx, query)
}

func (r *ReportRepository) queryFacultyYearCounts(ctx context.Context, query string) ([]types.FacultyYearCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []types.FacultyYearCount
	for rows.Next() {
		var cell types.FacultyYearCount
		if err := rows.Scan(
			&cell.YearID,
			&cell.YearStart,
			&cell.YearEnd,
			&cell.FacultyID,
			&cell.FacultyName,
			&cell.Count,
		); err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// ContributorsByYear counts distinct students with a selected contribution
// per academic year. A student active in two faculties of the same year
// counts once here, so this cannot be derived by summing the faculty cells.
func (r *ReportRepository) ContributorsByYear(ctx context.Context) ([]types.YearCount, error) {
	const query = `
		SELECT y.id, COUNT(DISTINCT c.student_id)
		FROM contributions c
		JOIN academic_years y ON y.id = c.academic_year_id
		WHERE c.status = 'selected'
		GROUP BY y.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []types.YearCount
	for rows.Next() {
		var count types.YearCount
		if err := rows.Scan(&count.YearID, &count.Count); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// TotalSelected counts all selected contributions.
func (r *ReportRepository) TotalSelected(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM contributions WHERE status = 'selected'`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TotalContributors counts distinct students with a selected contribution
// across all years.
func (r *ReportRepository) TotalContributors(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id) FROM contributions WHERE status = 'selected'`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// FacultyStats is the coordinator's rollup for their own faculty, optionally
// narrowed to one academic year. The year filter sits in the join so a
// faculty with no matching contributions still reports zeros.
func (r *ReportRepository) FacultyStats(ctx context.Context, facultyID, academicYearID string) (types.FacultyStats, error) {
	const query = `
		SELECT f.name, COUNT(c.id), COUNT(DISTINCT c.student_id)
		FROM faculties f
		LEFT JOIN contributions c ON c.faculty_id = f.id
			AND ($2 = '' OR c.academic_year_id = $2::uuid)
		WHERE f.id = $1
		GROUP BY f.name`
	var stats types.FacultyStats
	err := r.db.QueryRowContext(ctx, query, facultyID, academicYearID).Scan(
		&stats.FacultyName,
		&stats.TotalContributions,
		&stats.UniqueContributors,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.FacultyStats{}, ErrNotFound
		}
		return types.FacultyStats{}, err
	}
	return stats, nil
}

// YearlyStats returns a faculty's per-year contribution and contributor
// counts, most recent year first.
func (r *ReportRepository) YearlyStats(ctx context.Context, facultyID string) ([]types.YearlyStat, error) {
	const query = `
		SELECT y.start_date, y.end_date, COUNT(c.id), COUNT(DISTINCT c.student_id)
		FROM contributions c
		JOIN academic_years y ON y.id = c.academic_year_id
		WHERE c.faculty_id = $1
		GROUP BY y.id, y.start_date, y.end_date
		ORDER BY y.start_date DESC`
	rows, err := r.db.QueryContext(ctx, query, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []types.YearlyStat
	for rows.Next() {
		var stat types.YearlyStat
		var start, end time.Time
		if err := rows.Scan(&start, &end, &stat.Contributions, &stat.Contributors); err != nil {
			return nil, err
		}
		stat.AcademicYear = types.FormatAcademicYear(start, end)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// Uncommented lists a faculty's pending contributions that have no comments,
// oldest submission first.
func (r *ReportRepository) Uncommented(ctx context.Context, facultyID string) ([]types.UncommentedContribution, error) {
	const query = `
		SELECT c.id, c.title, c.description, c.student_id, c.faculty_id, c.academic_year_id,
			c.submission_date, c.status, c.view_count, c.feedback_given, c.last_updated,
			c.created_at, c.updated_at,
			u.name, f.name, y.start_date, y.end_date
		FROM contributions c
		JOIN users u ON u.id = c.student_id
		JOIN faculties f ON f.id = c.faculty_id
		JOIN academic_years y ON y.id = c.academic_year_id
		WHERE c.faculty_id = $1
			AND c.status = 'pending'
			AND NOT EXISTS (SELECT 1 FROM comments cm WHERE cm.contribution_id = c.id)
		ORDER BY c.submission_date`
	rows, err := r.db.QueryContext(ctx, query, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []types.UncommentedContribution
	for rows.Next() {
		var item types.UncommentedContribution
		var yearStart, yearEnd time.Time
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.StudentID,
			&item.FacultyID,
			&item.AcademicYearID,
			&item.SubmissionDate,
			&item.Status,
			&item.ViewCount,
			&item.FeedbackGiven,
			&item.LastUpdated,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.StudentName,
			&item.FacultyName,
			&yearStart,
			&yearEnd,
		); err != nil {
			return nil, err
		}
		item.AcademicYear = types.FormatAcademicYear(yearStart, yearEnd)
		items = append(items, item)
	}
	return items, rows.Err()
}
