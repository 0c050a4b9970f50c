package store

import (
	"context"

	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

// Import log statuses.
const (
	ImportStatusProcessing = "processing"
	ImportStatusCommitted  = "committed"
	ImportStatusFailed     = "failed"
)

// CreateImportLog opens an import log in the processing state and returns its id.
func (s *Store) CreateImportLog(ctx context.Context, filename string, c model.Collection, mode model.ImportMode) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (filename, collection, mode, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		filename, string(c), mode.String(), ImportStatusProcessing, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "create import log")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "get import log id")
	}
	return id, nil
}

// FinishImportLog records the outcome of an import.
func (s *Store) FinishImportLog(ctx context.Context, id int64, records, errorRows int, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			records = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?`,
		records, errorRows, status, errorMessage, s.now(), id)
	return errors.Wrap(err, "update import log")
}

// ListImportLogs returns the latest import logs, newest first.
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, collection, mode, records, error_rows, status, error_message, created_at
		FROM import_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query import logs")
	}
	defer rows.Close()

	out := []model.ImportLog{}
	for rows.Next() {
		var (
			l          model.ImportLog
			collection string
		)
		if err := rows.Scan(&l.ID, &l.Filename, &collection, &l.Mode, &l.Records, &l.ErrorRows,
			&l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan import log")
		}
		l.Collection = model.Collection(collection)
		out = append(out, l)
	}
	return out, rows.Err()
}

