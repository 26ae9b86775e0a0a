package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uni-magazine/apiserver/types"
)

// FacultyRepository handles persistence for faculties.
type FacultyRepository struct {
	db *sql.DB
}

func NewFacultyRepository(db *sql.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

func (r *FacultyRepository) Get(ctx context.Context, id string) (types.Faculty, error) {
	const query = `SELECT id, name, status, created_at, updated_at FROM faculties WHERE id = $1`
	var faculty types.Faculty
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&faculty.ID,
		&faculty.Name,
		&faculty.Status,
		&faculty.CreatedAt,
		&faculty.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Faculty{}, ErrNotFound
		}
		return types.Faculty{}, err
	}
	return faculty, nil
}

func (r *FacultyRepository) List(ctx context.Context) ([]types.Faculty, error) {
	const query = `SELECT id, name, status, created_at, updated_at FROM faculties ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faculties []types.Faculty
	for rows.Next() {
		var faculty types.Faculty
		if err := rows.Scan(
			&faculty.ID,
			&faculty.Name,
			&faculty.Status,
			&faculty.CreatedAt,
			&faculty.UpdatedAt,
		); err != nil {
			return nil, err
		}
		faculties = append(faculties, faculty)
	}
	return faculties, rows.Err()
}

func (r *FacultyRepository) Create(ctx context.Context, faculty types.Faculty) (types.Faculty, error) {
	now := time.Now()
	faculty.CreatedAt = now
	faculty.UpdatedAt = now

	const query = `
		INSERT INTO faculties (name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		faculty.Name,
		faculty.Status,
		faculty.CreatedAt,
		faculty.UpdatedAt,
	).Scan(&faculty.ID); err != nil {
		return types.Faculty{}, err
	}
	return faculty, nil
}

func (r *FacultyRepository) Update(ctx context.Context, id, name, status string) error {
	const query = `UPDATE faculties SET name = $1, status = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, name, status, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM faculties WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountContributions reports how many contributions reference a faculty.
// Used as the delete guard alongside UserRepository.CountByFaculty.
func (r *FacultyRepository) CountContributions(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM contributions WHERE faculty_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
