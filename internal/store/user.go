package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uni-magazine/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, name, role, COALESCE(faculty_id::text, ''), status,
	last_login, total_logins, COALESCE(browser::text, ''), password_hash,
	created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.FacultyID,
		&user.Status,
		&lastLogin,
		&user.TotalLogins,
		&user.Browser,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (email, password_hash, name, role, faculty_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.FacultyID,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Update replaces the admin-managed fields. An empty passwordHash keeps the
// stored one.
func (r *UserRepository) Update(ctx context.Context, id, role, facultyID, status, passwordHash string) error {
	const query = `
		UPDATE users
		SET role = $1,
			faculty_id = NULLIF($2, '')::uuid,
			status = $3,
			password_hash = COALESCE(NULLIF($4, ''), password_hash),
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, role, facultyID, status, passwordHash, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdatePassword resets the stored hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// RecordLogin bumps the login counters, stores the reported browser tag and
// appends a login audit row, atomically.
func (r *UserRepository) RecordLogin(ctx context.Context, id, browser string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const update = `
		UPDATE users
		SET last_login = $1,
			total_logins = total_logins + 1,
			browser = COALESCE(NULLIF($2, '')::user_browser, browser)
		WHERE id = $3`
	if _, err := tx.ExecContext(ctx, update, at, browser, id); err != nil {
		return err
	}

	const audit = `INSERT INTO login_audit_logs (user_id, login_time) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, audit, id, at); err != nil {
		return err
	}

	return tx.Commit()
}

// List returns every user joined with its faculty name.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.role, COALESCE(u.faculty_id::text, ''),
			COALESCE(f.name, ''), u.status, u.last_login, u.total_logins,
			COALESCE(u.browser::text, '')
		FROM users u
		LEFT JOIN faculties f ON f.id = u.faculty_id
		ORDER BY u.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		var lastLogin sql.NullTime
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.Role,
			&user.FacultyID,
			&user.FacultyName,
			&user.Status,
			&lastLogin,
			&user.TotalLogins,
			&user.Browser,
		); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListByFacultyAndRole returns a faculty's users holding the given role.
func (r *UserRepository) ListByFacultyAndRole(ctx context.Context, facultyID, role string) ([]types.User, error) {
	const query = `
		SELECT id, email, name, role, COALESCE(faculty_id::text, ''), status,
			last_login, total_logins, COALESCE(browser::text, '')
		FROM users
		WHERE faculty_id = $1 AND role = $2
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, facultyID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		var lastLogin sql.NullTime
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.Role,
			&user.FacultyID,
			&user.Status,
			&lastLogin,
			&user.TotalLogins,
			&user.Browser,
		); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// FindCoordinatorByFaculty resolves the marketing coordinator responsible for
// a faculty.
func (r *UserRepository) FindCoordinatorByFaculty(ctx context.Context, facultyID string) (types.User, error) {
	const query = `SELECT` + userColumns + `
		FROM users
		WHERE faculty_id = $1 AND role = 'marketing_coordinator'
		LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, facultyID))
}

// MostActive returns the top users by total logins.
func (r *UserRepository) MostActive(ctx context.Context, limit int) ([]types.User, error) {
	const query = `
		SELECT id, email, name, COALESCE(faculty_id::text, ''), total_logins
		FROM users
		ORDER BY total_logins DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.FacultyID, &user.TotalLogins); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// BrowserUsage counts accounts per last-used browser tag.
func (r *UserRepository) BrowserUsage(ctx context.Context) ([]types.BrowserUsage, error) {
	const query = `
		SELECT COALESCE(browser::text, 'unknown'), COUNT(*)
		FROM users
		GROUP BY browser`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []types.BrowserUsage
	for rows.Next() {
		var stat types.BrowserUsage
		if err := rows.Scan(&stat.Browser, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// CountByFaculty reports how many users reference a faculty. Used as the
// delete/deactivate guard.
func (r *UserRepository) CountByFaculty(ctx context.Context, facultyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE faculty_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, facultyID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
