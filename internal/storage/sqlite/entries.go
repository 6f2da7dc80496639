package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
)

const maxSlugAttempts = 50

type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

const entryColumns = `id, path, category, slug, name, status, due_date, priority,
	duration_minutes, fields, related, body, agent_note, channel, created_at, updated_at`

func (r *EntryRepo) Create(ctx context.Context, category core.Category, draft core.EntryDraft, channel core.Channel) (*core.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	slug, err := freeSlug(ctx, tx, category, draft.Slug)
	if err != nil {
		return nil, err
	}
	path := string(category) + "/" + slug

	fieldsJSON, relatedJSON, err := marshalBlobs(draft.Fields, draft.Related)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (path, category, slug, name, status, due_date, priority,
			duration_minutes, fields, related, body, agent_note, channel)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, category, slug, draft.Name, draft.Status, draft.DueDate, draft.Priority,
		draft.DurationMinutes, fieldsJSON, relatedJSON, draft.Body, draft.AgentNote, channel,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	entry, err := readEntry(ctx, tx, path)
	if err != nil {
		return nil, err
	}
	return entry, tx.Commit()
}

// freeSlug returns the first unoccupied slug in the category: the base
// slug, then base-2, base-3 and so on.
func freeSlug(ctx context.Context, tx *sql.Tx, category core.Category, base string) (string, error) {
	if base == "" {
		base = "entry"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM entries WHERE category = ? AND slug = ?`, category, candidate,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe slug: %w", err)
		}
	}
	return "", core.NewConflict(fmt.Sprintf("could not find a free slug for %q in %s", base, category))
}

func (r *EntryRepo) Read(ctx context.Context, path string) (*core.Entry, error) {
	return readEntry(ctx, r.db, path)
}

func (r *EntryRepo) Update(ctx context.Context, path string, upd core.EntryUpdate, channel core.Channel) (*core.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := readEntry(ctx, tx, path)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		entry.Name = *upd.Name
	}
	if upd.Status != nil {
		entry.Status = *upd.Status
	}
	if upd.DueDate != nil {
		entry.DueDate = *upd.DueDate
	}
	if upd.Priority != nil {
		entry.Priority = *upd.Priority
	}
	if upd.Fields != nil {
		if entry.Fields == nil {
			entry.Fields = map[string]any{}
		}
		for k, v := range upd.Fields {
			entry.Fields[k] = v
		}
	}
	if upd.Related != nil {
		entry.Related = upd.Related
	}
	if upd.Body != nil {
		entry.Body = applyBody(entry.Body, *upd.Body)
	}
	entry.Channel = channel
	entry.UpdatedAt = time.Now().UTC()

	fieldsJSON, relatedJSON, err := marshalBlobs(entry.Fields, entry.Related)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET name = ?, status = ?, due_date = ?, priority = ?, fields = ?, related = ?,
			body = ?, channel = ?, updated_at = ?
		WHERE path = ?`,
		entry.Name, entry.Status, entry.DueDate, entry.Priority, fieldsJSON, relatedJSON,
		entry.Body, entry.Channel, entry.UpdatedAt, path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return entry, tx.Commit()
}

func (r *EntryRepo) Move(ctx context.Context, path string, target core.Category, channel core.Channel) (*core.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := readEntry(ctx, tx, path)
	if err != nil {
		return nil, err
	}

	slug, err := freeSlug(ctx, tx, target, entry.Slug)
	if err != nil {
		return nil, err
	}
	newPath := string(target) + "/" + slug

	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET path = ?, category = ?, slug = ?, channel = ?, updated_at = CURRENT_TIMESTAMP
		WHERE path = ?`,
		newPath, target, slug, channel, path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to move entry: %w", err)
	}

	moved, err := readEntry(ctx, tx, newPath)
	if err != nil {
		return nil, err
	}
	return moved, tx.Commit()
}

func (r *EntryRepo) Delete(ctx context.Context, path string, _ core.Channel) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NewNotFound(path)
	}
	return nil
}

func (r *EntryRepo) List(ctx context.Context, filter core.ListFilter) ([]core.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var conds []string
	var args []any
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, path ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// Merge folds each source entry's body and relations into the target,
// then removes the sources. All or nothing.
func (r *EntryRepo) Merge(ctx context.Context, targetPath string, sourcePaths []string, channel core.Channel) (*core.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	target, err := readEntry(ctx, tx, targetPath)
	if err != nil {
		return nil, err
	}

	related := map[string]struct{}{}
	for _, p := range target.Related {
		related[p] = struct{}{}
	}

	body := target.Body
	for _, src := range sourcePaths {
		source, err := readEntry(ctx, tx, src)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(source.Body) != "" {
			body = strings.TrimSpace(body) + fmt.Sprintf("\n\n## Merged from %s\n\n%s", source.Name, strings.TrimSpace(source.Body))
		}
		for _, p := range source.Related {
			related[p] = struct{}{}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, src); err != nil {
			return nil, fmt.Errorf("failed to remove merged source: %w", err)
		}
	}

	target.Body = body
	target.Related = target.Related[:0]
	for p := range related {
		target.Related = append(target.Related, p)
	}
	sort.Strings(target.Related)

	_, relatedJSON, err := marshalBlobs(nil, target.Related)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE entries SET body = ?, related = ?, channel = ?, updated_at = CURRENT_TIMESTAMP
		WHERE path = ?`,
		target.Body, relatedJSON, channel, targetPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update merge target: %w", err)
	}

	merged, err := readEntry(ctx, tx, targetPath)
	if err != nil {
		return nil, err
	}
	return merged, tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readEntry(ctx context.Context, q querier, path string) (*core.Entry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*core.Entry, error) {
	var e core.Entry
	var fieldsJSON, relatedJSON string
	err := s.Scan(&e.ID, &e.Path, &e.Category, &e.Slug, &e.Name, &e.Status, &e.DueDate,
		&e.Priority, &e.DurationMinutes, &fieldsJSON, &relatedJSON, &e.Body, &e.AgentNote,
		&e.Channel, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if fieldsJSON != "" && fieldsJSON != "{}" {
		if err := json.Unmarshal([]byte(fieldsJSON), &e.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry fields: %w", err)
		}
	}
	if relatedJSON != "" && relatedJSON != "[]" {
		if err := json.Unmarshal([]byte(relatedJSON), &e.Related); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry relations: %w", err)
		}
	}
	return &e, nil
}

func marshalBlobs(fields map[string]any, related []string) (string, string, error) {
	fieldsJSON := "{}"
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal entry fields: %w", err)
		}
		fieldsJSON = string(b)
	}
	relatedJSON := "[]"
	if len(related) > 0 {
		b, err := json.Marshal(related)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal entry relations: %w", err)
		}
		relatedJSON = string(b)
	}
	return fieldsJSON, relatedJSON, nil
}
