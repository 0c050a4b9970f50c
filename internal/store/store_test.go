package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidbloom/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "kidbloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBulkInsertAndListActivities(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.BulkInsert(ctx, model.CollectionActivities, []model.Record{
		model.ActivityRecord{ScheduledDate: "2025-01-06", Title: "B", Tags: []string{"x", "y"}, Points: 10},
		model.ActivityRecord{ScheduledDate: "2025-01-05", Title: "A", Points: 15},
		model.ActivityRecord{ScheduledDate: "2025-02-01", Title: "later", Points: 10},
	})
	require.NoError(t, err)

	n, err := s.Count(ctx, model.CollectionActivities)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.ListActivities(ctx, "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, []string{}, got[0].Tags)
	assert.Equal(t, []string{"x", "y"}, got[1].Tags)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	one, err := s.GetActivity(ctx, got[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "B", one.Title)

	_, err = s.GetActivity(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkInsert_RejectsForeignRecord(t *testing.T) {
	s := newTestStore(t)
	err := s.BulkInsert(context.Background(), model.CollectionActivities, []model.Record{
		model.ActivityRecord{ScheduledDate: "2025-01-05", Title: "ok"},
		model.ShopProductRecord{Name: "wrong collection"},
	})
	require.Error(t, err)

	n, err := s.Count(context.Background(), model.CollectionActivities)
	require.NoError(t, err)
	assert.Zero(t, n, "the transaction must roll back")
}

func TestStoriesAndProductsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.BulkInsert(ctx, model.CollectionStoriesMusic, []model.Record{
		model.StoryMusicRecord{Title: "old", Type: "story", CreatedAt: base},
		model.StoryMusicRecord{Title: "new", Type: "music", ContentURL: strPtr("https://www.youtube.com/embed/dQw4w9WgXcQ"),
			DurationMinutes: intPtr(4), CreatedAt: base.Add(time.Hour)},
	}))
	require.NoError(t, s.BulkInsert(ctx, model.CollectionShopProducts, []model.Record{
		model.ShopProductRecord{Name: "Sách", Price: decimal.NewNullDecimal(decimal.NewFromInt(250000))},
		model.ShopProductRecord{Name: "Free"},
	}))

	stories, err := s.ListStoriesMusic(ctx, "")
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "new", stories[0].Title)
	require.NotNil(t, stories[0].DurationMinutes)
	assert.Equal(t, 4, *stories[0].DurationMinutes)
	assert.Nil(t, stories[1].ContentURL)
	assert.Nil(t, stories[1].Description)

	music, err := s.ListStoriesMusic(ctx, "music")
	require.NoError(t, err)
	assert.Len(t, music, 1)

	products, err := s.ListShopProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	byName := map[string]model.ShopProductRecord{}
	for _, p := range products {
		byName[p.Name] = p
	}
	assert.True(t, byName["Sách"].Price.Valid)
	assert.True(t, byName["Sách"].Price.Decimal.Equal(decimal.NewFromInt(250000)))
	assert.False(t, byName["Free"].Price.Valid)
}

func TestDeleteAllAndDeleteRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.BulkInsert(ctx, model.CollectionShopProducts, []model.Record{
		model.ShopProductRecord{Name: "a"}, model.ShopProductRecord{Name: "b"},
	}))
	products, err := s.ListShopProducts(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecord(ctx, model.CollectionShopProducts, products[0].ID))
	assert.ErrorIs(t, s.DeleteRecord(ctx, model.CollectionShopProducts, products[0].ID), ErrNotFound)

	n, err := s.DeleteAll(ctx, model.CollectionShopProducts)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.DeleteAll(ctx, model.Collection("profiles"))
	assert.Error(t, err)
}

func TestSaveActivity_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.SaveActivity(ctx, model.ActivityRecord{ScheduledDate: "2025-01-05", Title: "draft", Points: 10})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	created.Title = "final"
	created.Tags = []string{"art"}
	updated, err := s.SaveActivity(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, []string{"art"}, updated.Tags)

	_, err = s.SaveActivity(ctx, model.ActivityRecord{ID: uuid.New(), Title: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := uuid.New()
	activity := uuid.New()

	profile, err := s.GetProfile(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, profile.TotalPoints)

	_, err = s.RecordCompletion(ctx, model.Progress{UserID: user, ActivityID: activity, ActivityTitle: "A", PointsEarned: 15})
	require.NoError(t, err)
	_, err = s.RecordCompletion(ctx, model.Progress{UserID: user, ActivityID: activity, PointsEarned: 15})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = s.RecordCompletion(ctx, model.Progress{UserID: user, ActivityID: uuid.New(), PointsEarned: 10})
	require.NoError(t, err)

	profile, err = s.GetProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 25, profile.TotalPoints)
	assert.Equal(t, 2, profile.TotalActivities)

	progress, err := s.ListProgress(ctx, user)
	require.NoError(t, err)
	assert.Len(t, progress, 2)
}

func TestUpdateProfileName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := uuid.New()

	profile, err := s.UpdateProfileName(ctx, user, "Nguyễn Thị Lan")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Thị Lan", profile.FullName)
	assert.Zero(t, profile.TotalPoints)

	_, err = s.RecordCompletion(ctx, model.Progress{UserID: user, ActivityID: uuid.New(), PointsEarned: 15})
	require.NoError(t, err)
	profile, err = s.UpdateProfileName(ctx, user, "Lan")
	require.NoError(t, err)
	assert.Equal(t, "Lan", profile.FullName)
	assert.Equal(t, 15, profile.TotalPoints, "renaming keeps the totals")
	assert.Equal(t, 1, profile.TotalActivities)
}

func TestNew_AddsFullNameToOlderProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE profiles (
		user_id TEXT PRIMARY KEY,
		total_points INTEGER NOT NULL DEFAULT 0,
		total_activities INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL)`)
	require.NoError(t, err)
	user := uuid.New()
	_, err = db.Exec(`INSERT INTO profiles VALUES (?, 40, 3, ?)`, user.String(), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	profile, err := s.GetProfile(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "", profile.FullName)
	assert.Equal(t, 40, profile.TotalPoints)

	// opening again finds the column already there
	require.NoError(t, s.initSchema())
}

func TestImportLogLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateImportLog(ctx, "mau_hoat_dong.xlsx", model.CollectionActivities, model.ImportModeReplace)
	require.NoError(t, err)
	require.NoError(t, s.FinishImportLog(ctx, id, 12, 2, ImportStatusCommitted, ""))

	logs, err := s.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.CollectionActivities, logs[0].Collection)
	assert.Equal(t, "replace", logs[0].Mode)
	assert.Equal(t, 12, logs[0].Records)
	assert.Equal(t, ImportStatusCommitted, logs[0].Status)
}

func TestBulkInsert_RollsBackOnExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewWithDB(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO stories_music")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = s.BulkInsert(context.Background(), model.CollectionStoriesMusic, []model.Record{
		model.StoryMusicRecord{Title: "a", Type: "story"},
		model.StoryMusicRecord{Title: "b", Type: "story"},
	})
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
