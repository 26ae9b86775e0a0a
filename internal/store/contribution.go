package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/uni-magazine/apiserver/internal/pagination"
	"github.com/uni-magazine/apiserver/types"
)

// ContributionRepository handles persistence for contributions, their file
// assets and their comment threads.
type ContributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

const contributionColumns = `
	id, title, description, student_id, faculty_id, academic_year_id,
	submission_date, status, view_count, feedback_given, last_updated,
	created_at, updated_at`

func scanContribution(scanner interface{ Scan(...any) error }) (types.Contribution, error) {
	var c types.Contribution
	err := scanner.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.StudentID,
		&c.FacultyID,
		&c.AcademicYearID,
		&c.SubmissionDate,
		&c.Status,
		&c.ViewCount,
		&c.FeedbackGiven,
		&c.LastUpdated,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// NewAsset is an asset to attach on create or update, before it has a row.
type NewAsset struct {
	Type     string
	FilePath string
}

// Create inserts the contribution and its assets in one transaction.
func (r *ContributionRepository) Create(ctx context.Context, c types.Contribution, assets []NewAsset) (types.Contribution, error) {
	now := time.Now()
	c.SubmissionDate = now
	c.LastUpdated = now
	c.CreatedAt = now
	c.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Contribution{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insert = `
		INSERT INTO contributions (title, description, student_id, faculty_id, academic_year_id,
			submission_date, status, last_updated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insert,
		c.Title,
		c.Description,
		c.StudentID,
		c.FacultyID,
		c.AcademicYearID,
		c.SubmissionDate,
		c.Status,
		c.LastUpdated,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID); err != nil {
		return types.Contribution{}, err
	}

	if err := insertAssets(ctx, tx, c.ID, assets, now); err != nil {
		return types.Contribution{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Contribution{}, err
	}
	return c, nil
}

func insertAssets(ctx context.Context, tx *sql.Tx, contributionID string, assets []NewAsset, now time.Time) error {
	const insert = `
		INSERT INTO contribution_assets (contribution_id, type, file_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	for _, asset := range assets {
		if _, err := tx.ExecContext(ctx, insert, contributionID, asset.Type, asset.FilePath, now, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContributionRepository) Get(ctx context.Context, id string) (types.Contribution, error) {
	const query = `SELECT` + contributionColumns + ` FROM contributions WHERE id = $1`
	c, err := scanContribution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contribution{}, ErrNotFound
		}
		return types.Contribution{}, err
	}
	return c, nil
}

// GetDetail returns a contribution joined with its author, faculty and
// academic year. Assets and comments are fetched separately.
func (r *ContributionRepository) GetDetail(ctx context.Context, id string) (types.ContributionDetail, error) {
	const query = `
		SELECT c.id, c.title, c.description, c.student_id, c.faculty_id, c.academic_year_id,
			c.submission_date, c.status, c.view_count, c.feedback_given, c.last_updated,
			c.created_at, c.updated_at,
			u.name, u.email, f.name, y.start_date, y.end_date
		FROM contributions c
		JOIN users u ON u.id = c.student_id
		JOIN faculties f ON f.id = c.faculty_id
		JOIN academic_years y ON y.id = c.academic_year_id
		WHERE c.id = $1`
	var detail types.ContributionDetail
	var yearStart, yearEnd time.Time
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID,
		&detail.Title,
		&detail.Description,
		&detail.StudentID,
		&detail.FacultyID,
		&detail.AcademicYearID,
		&detail.SubmissionDate,
		&detail.Status,
		&detail.ViewCount,
		&detail.FeedbackGiven,
		&detail.LastUpdated,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.StudentName,
		&detail.StudentEmail,
		&detail.FacultyName,
		&yearStart,
		&yearEnd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ContributionDetail{}, ErrNotFound
		}
		return types.ContributionDetail{}, err
	}
	detail.AcademicYear = types.FormatAcademicYear(yearStart, yearEnd)
	return detail, nil
}

// Update replaces the editable fields and, when assets is non-nil, the whole
// asset set, in one transaction. Returns the replaced assets' file paths so
// the caller can delete the orphaned objects.
func (r *ContributionRepository) Update(ctx context.Context, id, title, description string, assets []NewAsset) ([]string, error) {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const update = `
		UPDATE contributions
		SET title = $1, description = $2, last_updated = $3, updated_at = $3
		WHERE id = $4`
	result, err := tx.ExecContext(ctx, update, title, description, now, id)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	var replaced []string
	if assets != nil {
		const drop = `DELETE FROM contribution_assets WHERE contribution_id = $1 RETURNING file_path`
		rows, err := tx.QueryContext(ctx, drop, id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var path string
			if err := rows.Scan(&path); err != nil {
				rows.Close()
				return nil, err
			}
			replaced = append(replaced, path)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if err := insertAssets(ctx, tx, id, assets, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return replaced, nil
}

// UpdateStatus moves a pending contribution to selected or rejected. The
// WHERE clause enforces the one-way transition; a non-pending row reports
// ErrNotFound to the caller.
func (r *ContributionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
		UPDATE contributions
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// IncrementViewCount bumps the counter by one.
func (r *ContributionRepository) IncrementViewCount(ctx context.Context, id string) (int, error) {
	const query = `
		UPDATE contributions
		SET view_count = view_count + 1
		WHERE id = $1
		RETURNING view_count`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return count, nil
}

// ListFilter narrows a paginated contribution listing. Zero values mean no
// constraint on that dimension.
type ListFilter struct {
	StudentID      string
	FacultyID      string
	AcademicYearID string
	Status         string
}

// List fetches one page of contributions ordered by created_at. It returns
// limit+1 rows so the caller can tell whether a further page exists.
func (r *ContributionRepository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]types.Contribution, error) {
	direction := "DESC"
	comparison := "<"
	if params.Order == pagination.OrderAsc {
		direction = "ASC"
		comparison = ">"
	}

	query := `SELECT` + contributionColumns + `
		FROM contributions
		WHERE ($1 = '' OR student_id = $1::uuid)
			AND ($2 = '' OR faculty_id = $2::uuid)
			AND ($3 = '' OR academic_year_id = $3::uuid)
			AND ($4 = '' OR status = $4::contribution_status)`
	args := []any{filter.StudentID, filter.FacultyID, filter.AcademicYearID, filter.Status}

	if params.Cursor != "" {
		query += fmt.Sprintf(" AND created_at %s $5", comparison)
		args = append(args, params.Cursor)
	}
	query += fmt.Sprintf(" ORDER BY created_at %s LIMIT %d", direction, params.Limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []types.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// ListAssets returns a contribution's assets in insertion order.
func (r *ContributionRepository) ListAssets(ctx context.Context, contributionID string) ([]types.ContributionAsset, error) {
	const query = `
		SELECT id, contribution_id, type, file_path, created_at, updated_at
		FROM contribution_assets
		WHERE contribution_id = $1
		ORDER BY created_at`
	return r.queryAssets(ctx, query, contributionID)
}

// ListAssetsForContributions returns the assets of every listed contribution
// in one round trip. Used by the export fan-out.
func (r *ContributionRepository) ListAssetsForContributions(ctx context.Context, ids []string) ([]types.ContributionAsset, error) {
	const query = `
		SELECT id, contribution_id, type, file_path, created_at, updated_at
		FROM contribution_assets
		WHERE contribution_id = ANY($1)
		ORDER BY contribution_id, created_at`
	return r.queryAssets(ctx, query, pq.Array(ids))
}

func (r *ContributionRepository) queryAssets(ctx context.Context, query string, args ...any) ([]types.ContributionAsset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []types.ContributionAsset
	for rows.Next() {
		var asset types.ContributionAsset
		if err := rows.Scan(
			&asset.ID,
			&asset.ContributionID,
			&asset.Type,
			&asset.FilePath,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// ListComments returns a contribution's thread, oldest first, with each
// commenter's display name.
func (r *ContributionRepository) ListComments(ctx context.Context, contributionID string) ([]types.Comment, error) {
	const query = `
		SELECT c.id, c.contribution_id, c.user_id, u.name, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.contribution_id = $1
		ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, query, contributionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var comment types.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ContributionID,
			&comment.UserID,
			&comment.By,
			&comment.Content,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// CountComments reports the size of a contribution's thread.
func (r *ContributionRepository) CountComments(ctx context.Context, contributionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM comments WHERE contribution_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, contributionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// AddComment appends to the thread.
func (r *ContributionRepository) AddComment(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (contribution_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.ContributionID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// SetFeedbackGiven marks that the contribution has received staff feedback.
func (r *ContributionRepository) SetFeedbackGiven(ctx context.Context, id string) error {
	const query = `UPDATE contributions SET feedback_given = TRUE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListSelectedByYear returns a year's selected contributions joined with the
// author's name. Used by the export builder.
func (r *ContributionRepository) ListSelectedByYear(ctx context.Context, academicYearID string) ([]types.ContributionDetail, error) {
	const query = `
		SELECT c.id, c.title, c.description, c.student_id, c.faculty_id, c.academic_year_id,
			c.submission_date, c.status, c.view_count, c.feedback_given, c.last_updated,
			c.created_at, c.updated_at,
			u.name, u.email, f.name
		FROM contributions c
		JOIN users u ON u.id = c.student_id
		JOIN faculties f ON f.id = c.faculty_id
		WHERE c.academic_year_id = $1 AND c.status = 'selected'
		ORDER BY c.submission_date`
	rows, err := r.db.QueryContext(ctx, query, academicYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []types.ContributionDetail
	for rows.Next() {
		var detail types.ContributionDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.Title,
			&detail.Description,
			&detail.StudentID,
			&detail.FacultyID,
			&detail.AcademicYearID,
			&detail.SubmissionDate,
			&detail.Status,
			&detail.ViewCount,
			&detail.FeedbackGiven,
			&detail.LastUpdated,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.StudentName,
			&detail.StudentEmail,
			&detail.FacultyName,
		); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}
