package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/quill/internal/core"
)

// CaptureRepo persists captures that could not be classified because of
// a transient failure. A replay worker drains the pending rows.
type CaptureRepo struct {
	db      *sql.DB
	enabled bool
}

func NewCaptureRepo(db *sql.DB, enabled bool) *CaptureRepo {
	return &CaptureRepo{db: db, enabled: enabled}
}

func (r *CaptureRepo) Enabled() bool { return r.enabled }

func (r *CaptureRepo) Enqueue(ctx context.Context, text string, hints *core.ClassificationHints, channel core.Channel) (int64, error) {
	var hintCategory, hintName string
	if hints != nil {
		hintCategory = string(hints.Category)
		hintName = hints.Name
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO captures (text, hint_category, hint_name, channel)
		VALUES (?, ?, ?, ?)`,
		text, hintCategory, hintName, channel,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue capture: %w", err)
	}
	return res.LastInsertId()
}

func (r *CaptureRepo) Pending(ctx context.Context, limit int) ([]core.QueuedCapture, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, hint_category, hint_name, channel, attempts
		FROM captures
		WHERE status = 'pending'
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending captures: %w", err)
	}
	defer rows.Close()

	var out []core.QueuedCapture
	for rows.Next() {
		var c core.QueuedCapture
		var hintCategory, hintName string
		if err := rows.Scan(&c.ID, &c.Text, &hintCategory, &hintName, &c.Channel, &c.Attempts); err != nil {
			return nil, err
		}
		if hintCategory != "" || hintName != "" {
			c.Hints = &core.ClassificationHints{Category: core.Category(hintCategory), Name: hintName}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CaptureRepo) MarkDone(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE captures SET status = 'done', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// MarkFailed records one more failed attempt; past maxAttempts the row
// is parked as failed so replay stops retrying it.
func (r *CaptureRepo) MarkFailed(ctx context.Context, id int64, cause string, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE captures
		SET attempts = attempts + 1,
			last_error = ?,
			status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		cause, maxAttempts, id)
	return err
}
