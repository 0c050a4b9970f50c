package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("record already exists")

// GetProfile returns a user's name and point totals; unknown users have an
// empty name and zero totals.
func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	p := &model.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT full_name, total_points, total_activities, updated_at FROM profiles WHERE user_id = ?`,
		userID.String(),
	).Scan(&p.FullName, &p.TotalPoints, &p.TotalActivities, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get profile %s", userID)
	}
	return p, nil
}

// UpdateProfileName sets a user's display name, creating the profile with
// zero totals when it does not exist yet.
func (s *Store) UpdateProfileName(ctx context.Context, userID uuid.UUID, fullName string) (*model.Profile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			updated_at = excluded.updated_at`,
		userID.String(), fullName, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "update profile %s", userID)
	}
	return s.GetProfile(ctx, userID)
}

// RecordCompletion stores a progress row and adds its points to the user's
// profile atomically. A second completion of the same activity by the same
// user returns ErrDuplicate and changes nothing.
func (s *Store) RecordCompletion(ctx context.Context, p model.Progress) (*model.Progress, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CompletedAt.IsZero() {
		p.CompletedAt = s.now()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_progress (id, user_id, activity_id, activity_title, points_earned, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID.String(), p.UserID.String(), p.ActivityID.String(), p.ActivityTitle, p.PointsEarned, p.CompletedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return errors.Wrap(err, "insert progress")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (user_id, total_points, total_activities, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				total_points = total_points + excluded.total_points,
				total_activities = total_activities + 1,
				updated_at = excluded.updated_at`,
			p.UserID.String(), p.PointsEarned, p.CompletedAt)
		return errors.Wrap(err, "update profile")
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProgress returns a user's completions, newest first.
func (s *Store) ListProgress(ctx context.Context, userID uuid.UUID) ([]model.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, activity_id, activity_title, points_earned, completed_at
		FROM user_progress WHERE user_id = ?
		ORDER BY completed_at DESC`, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query progress")
	}
	defer rows.Close()

	out := []model.Progress{}
	for rows.Next() {
		var p model.Progress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ActivityID, &p.ActivityTitle, &p.PointsEarned, &p.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "scan progress")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
