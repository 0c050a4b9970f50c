package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

func tableFor(c model.Collection) (string, error) {
	switch c {
	case model.CollectionActivities, model.CollectionStoriesMusic, model.CollectionShopProducts:
		return string(c), nil
	default:
		return "", errors.Errorf("unknown collection %q", c)
	}
}

const (
	insertActivitySQL = `
		INSERT INTO activities (
			id, scheduled_date, title, description, tags, instructions, goals,
			video_url, points, expert_name, expert_title, image_url, expert_avatar, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertStorySQL = `
		INSERT INTO stories_music (
			id, title, type, description, content_url, thumbnail_url, duration_minutes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertProductSQL = `
		INSERT INTO shop_products (
			id, name, description, price, image_url, category, link, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// BulkInsert appends records to a collection in one transaction. Records
// without an id get a fresh one; every record must belong to c.
func (s *Store) BulkInsert(ctx context.Context, c model.Collection, records []model.Record) error {
	if _, err := tableFor(c); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var query string
	switch c {
	case model.CollectionActivities:
		query = insertActivitySQL
	case model.CollectionStoriesMusic:
		query = insertStorySQL
	case model.CollectionShopProducts:
		query = insertProductSQL
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return errors.Wrap(err, "prepare insert")
		}
		defer stmt.Close()

		now := s.now()
		for i, rec := range records {
			if rec.Collection() != c {
				return errors.Errorf("record %d belongs to %s, not %s", i, rec.Collection(), c)
			}
			args, err := insertArgs(rec, now)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrapf(err, "insert %s record %d", c, i)
			}
		}
		return nil
	})
}

func insertArgs(rec model.Record, now time.Time) ([]any, error) {
	switch r := rec.(type) {
	case model.ActivityRecord:
		tags, err := json.Marshal(nonNilTags(r.Tags))
		if err != nil {
			return nil, err
		}
		return []any{
			idOrNew(r.ID), r.ScheduledDate, r.Title, r.Description, string(tags), r.Instructions, r.Goals,
			r.VideoURL, r.Points, r.ExpertName, r.ExpertTitle, r.ImageURL, r.ExpertAvatar, createdOr(r.CreatedAt, now),
		}, nil
	case model.StoryMusicRecord:
		return []any{
			idOrNew(r.ID), r.Title, r.Type, r.Description, r.ContentURL, r.ThumbnailURL,
			r.DurationMinutes, createdOr(r.CreatedAt, now),
		}, nil
	case model.ShopProductRecord:
		return []any{
			idOrNew(r.ID), r.Name, r.Description, r.Price, r.ImageURL, r.Category, r.Link,
			createdOr(r.CreatedAt, now),
		}, nil
	default:
		return nil, errors.Errorf("unsupported record type %T", rec)
	}
}

func idOrNew(id uuid.UUID) string {
	if id == uuid.Nil {
		return uuid.NewString()
	}
	return id.String()
}

func createdOr(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// DeleteAll removes every record of a collection and reports how many went.
func (s *Store) DeleteAll(ctx context.Context, c model.Collection) (int64, error) {
	table, err := tableFor(c)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, errors.Wrapf(err, "delete all %s", c)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteRecord removes one record by id.
func (s *Store) DeleteRecord(ctx context.Context, c model.Collection, id uuid.UUID) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id.String())
	if err != nil {
		return errors.Wrapf(err, "delete %s %s", c, id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, c model.Collection) (int, error) {
	table, err := tableFor(c)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count %s", c)
	}
	return n, nil
}
