package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

const activityColumns = `id, scheduled_date, title, description, tags, instructions, goals,
	video_url, points, expert_name, expert_title, image_url, expert_avatar, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(sc rowScanner) (model.ActivityRecord, error) {
	var (
		a    model.ActivityRecord
		tags string
	)
	err := sc.Scan(&a.ID, &a.ScheduledDate, &a.Title, &a.Description, &tags, &a.Instructions, &a.Goals,
		&a.VideoURL, &a.Points, &a.ExpertName, &a.ExpertTitle, &a.ImageURL, &a.ExpertAvatar, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return a, errors.Wrapf(err, "decode tags of activity %s", a.ID)
		}
	}
	return a, nil
}

func (s *Store) queryActivities(ctx context.Context, query string, args ...any) ([]model.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query activities")
	}
	defer rows.Close()

	out := []model.ActivityRecord{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListActivities returns activities scheduled between from and to (inclusive,
// YYYY-MM-DD), ordered by date.
func (s *Store) ListActivities(ctx context.Context, from, to string) ([]model.ActivityRecord, error) {
	return s.queryActivities(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE scheduled_date >= ? AND scheduled_date <= ?
		ORDER BY scheduled_date, created_at`, from, to)
}

// ListAllActivities returns every activity, most recent date first.
func (s *Store) ListAllActivities(ctx context.Context) ([]model.ActivityRecord, error) {
	return s.queryActivities(ctx, `
		SELECT `+activityColumns+` FROM activities
		ORDER BY scheduled_date DESC, created_at DESC`)
}

// GetActivity loads one activity.
func (s *Store) GetActivity(ctx context.Context, id uuid.UUID) (*model.ActivityRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id.String())
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get activity %s", id)
	}
	return &a, nil
}

// SaveActivity inserts a when it has no id, otherwise updates it in place.
// The saved record (with id and created_at) is returned.
func (s *Store) SaveActivity(ctx context.Context, a model.ActivityRecord) (*model.ActivityRecord, error) {
	if a.Tags == nil {
		a.Tags = []string{}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
		a.CreatedAt = s.now()
		if err := s.BulkInsert(ctx, model.CollectionActivities, []model.Record{a}); err != nil {
			return nil, err
		}
		return &a, nil
	}

	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			scheduled_date = ?, title = ?, description = ?, tags = ?, instructions = ?, goals = ?,
			video_url = ?, points = ?, expert_name = ?, expert_title = ?, image_url = ?, expert_avatar = ?
		WHERE id = ?`,
		a.ScheduledDate, a.Title, a.Description, string(tags), a.Instructions, a.Goals,
		a.VideoURL, a.Points, a.ExpertName, a.ExpertTitle, a.ImageURL, a.ExpertAvatar, a.ID.String())
	if err != nil {
		return nil, errors.Wrapf(err, "update activity %s", a.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetActivity(ctx, a.ID)
}
