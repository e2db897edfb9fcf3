package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/model"
	"github.com/sakif/codefixer/internal/repository"
)

var _ repository.CompletionRepository = (*DB)(nil)

// Create inserts a completion and fills in its ID and CreatedAt.
//
// The ID comes from SQLite (AUTOINCREMENT) via LastInsertId, not from
// xid: history ordering relies on ids growing monotonically.
func (db *DB) Create(ctx context.Context, c *model.Completion) error {
	c.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO completions (question, code_answer, language, kind, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Question,
		c.CodeAnswer,
		c.Language,
		c.Kind,
		c.UserID,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating completion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading completion id: %w", err)
	}
	c.ID = id

	return nil
}

// ListByOwner returns every completion owned by ownerID, newest first.
// An owner with no history gets an empty (non-nil) slice.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Completion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, question, code_answer, language, kind, user_id, created_at
		 FROM completions
		 WHERE user_id = ?
		 ORDER BY id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing completions: %w", err)
	}
	defer rows.Close()

	completions := make([]model.Completion, 0)
	for rows.Next() {
		var c model.Completion
		if err := rows.Scan(
			&c.ID, &c.Question, &c.CodeAnswer, &c.Language,
			&c.Kind, &c.UserID, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning completion row: %w", err)
		}
		completions = append(completions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating completions: %w", err)
	}

	return completions, nil
}

// GetByIDForOwner returns one completion. A missing id and an id owned by
// someone else produce the same NotFound error, so a caller cannot probe
// for other users' records.
func (db *DB) GetByIDForOwner(ctx context.Context, id int64, ownerID string) (*model.Completion, error) {
	var c model.Completion

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, question, code_answer, language, kind, user_id, created_at
		 FROM completions
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	).Scan(
		&c.ID, &c.Question, &c.CodeAnswer, &c.Language,
		&c.Kind, &c.UserID, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("completion", id)
		}
		return nil, fmt.Errorf("sqlite: getting completion %d: %w", id, err)
	}

	return &c, nil
}

// DeleteForOwner removes a completion if and only if ownerID owns it.
// The owner is part of the WHERE clause, so RowsAffected == 0 covers both
// "no such id" and "someone else's id".
func (db *DB) DeleteForOwner(ctx context.Context, id int64, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM completions WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting completion %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("completion", id)
	}

	return nil
}
