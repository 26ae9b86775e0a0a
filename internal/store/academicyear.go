package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uni-magazine/apiserver/types"
)

// AcademicYearRepository handles persistence for academic years.
type AcademicYearRepository struct {
	db *sql.DB
}

func NewAcademicYearRepository(db *sql.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

const academicYearColumns = `
	id, start_date, end_date, new_closure_date, final_closure_date, status,
	created_at, updated_at`

func scanAcademicYear(row *sql.Row) (types.AcademicYear, error) {
	var year types.AcademicYear
	err := row.Scan(
		&year.ID,
		&year.StartDate,
		&year.EndDate,
		&year.NewClosureDate,
		&year.FinalClosureDate,
		&year.Status,
		&year.CreatedAt,
		&year.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AcademicYear{}, ErrNotFound
		}
		return types.AcademicYear{}, err
	}
	return year, nil
}

func (r *AcademicYearRepository) Get(ctx context.Context, id string) (types.AcademicYear, error) {
	const query = `SELECT` + academicYearColumns + ` FROM academic_years WHERE id = $1`
	return scanAcademicYear(r.db.QueryRowContext(ctx, query, id))
}

// FindContaining returns the academic year whose [start_date, end_date]
// window contains the given instant. When windows overlap the most recently
// started year wins.
func (r *AcademicYearRepository) FindContaining(ctx context.Context, at time.Time) (types.AcademicYear, error) {
	const query = `SELECT` + academicYearColumns + `
		FROM academic_years
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY start_date DESC
		LIMIT 1`
	return scanAcademicYear(r.db.QueryRowContext(ctx, query, at))
}

func (r *AcademicYearRepository) List(ctx context.Context) ([]types.AcademicYear, error) {
	const query = `SELECT` + academicYearColumns + ` FROM academic_years ORDER BY start_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []types.AcademicYear
	for rows.Next() {
		var year types.AcademicYear
		if err := rows.Scan(
			&year.ID,
			&year.StartDate,
			&year.EndDate,
			&year.NewClosureDate,
			&year.FinalClosureDate,
			&year.Status,
			&year.CreatedAt,
			&year.UpdatedAt,
		); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

func (r *AcademicYearRepository) Create(ctx context.Context, year types.AcademicYear) (types.AcademicYear, error) {
	now := time.Now()
	year.CreatedAt = now
	year.UpdatedAt = now

	const query = `
		INSERT INTO academic_years (start_date, end_date, new_closure_date, final_closure_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		year.StartDate,
		year.EndDate,
		year.NewClosureDate,
		year.FinalClosureDate,
		year.Status,
		year.CreatedAt,
		year.UpdatedAt,
	).Scan(&year.ID); err != nil {
		return types.AcademicYear{}, err
	}
	return year, nil
}

func (r *AcademicYearRepository) Update(ctx context.Context, year types.AcademicYear) error {
	const query = `
		UPDATE academic_years
		SET start_date = $1,
			end_date = $2,
			new_closure_date = $3,
			final_closure_date = $4,
			status = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		year.StartDate,
		year.EndDate,
		year.NewClosureDate,
		year.FinalClosureDate,
		year.Status,
		time.Now(),
		year.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *AcademicYearRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM academic_years WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountContributions reports how many contributions were filed under a year.
// A year with contributions cannot be deleted.
func (r *AcademicYearRepository) CountContributions(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM contributions WHERE academic_year_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
