package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uni-magazine/apiserver/types"
)

// TermRepository handles persistence for terms & conditions entries.
type TermRepository struct {
	db *sql.DB
}

func NewTermRepository(db *sql.DB) *TermRepository {
	return &TermRepository{db: db}
}

func (r *TermRepository) Get(ctx context.Context, id string) (types.Term, error) {
	const query = `SELECT id, name, content, created_at, updated_at FROM terms WHERE id = $1`
	var term types.Term
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&term.ID,
		&term.Name,
		&term.Content,
		&term.CreatedAt,
		&term.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Term{}, ErrNotFound
		}
		return types.Term{}, err
	}
	return term, nil
}

func (r *TermRepository) List(ctx context.Context) ([]types.Term, error) {
	const query = `SELECT id, name, content, created_at, updated_at FROM terms ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []types.Term
	for rows.Next() {
		var term types.Term
		if err := rows.Scan(&term.ID, &term.Name, &term.Content, &term.CreatedAt, &term.UpdatedAt); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (r *TermRepository) Create(ctx context.Context, term types.Term) (types.Term, error) {
	now := time.Now()
	term.CreatedAt = now
	term.UpdatedAt = now

	const query = `
		INSERT INTO terms (name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, term.Name, term.Content, term.CreatedAt, term.UpdatedAt).Scan(&term.ID); err != nil {
		return types.Term{}, err
	}
	return term, nil
}

func (r *TermRepository) Update(ctx context.Context, id, name, content string) error {
	const query = `UPDATE terms SET name = $1, content = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, name, content, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *TermRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM terms WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
