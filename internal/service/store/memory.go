package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

// MemoryStore keeps collections in process memory. It satisfies the importer's
// record store and lets tests make individual calls fail.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[model.Collection][]model.Record

	// FailInsert and FailDelete, when set, are returned by the next calls.
	FailInsert error
	FailDelete error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[model.Collection][]model.Record)}
}

// Seed replaces a collection's contents without going through BulkInsert.
func (s *MemoryStore) Seed(c model.Collection, records ...model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[c] = append([]model.Record(nil), records...)
}

// BulkInsert appends records, assigning ids and timestamps. Either every
// record is stored or none is.
func (s *MemoryStore) BulkInsert(_ context.Context, c model.Collection, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		return s.FailInsert
	}

	now := time.Now().UTC()
	stamped := make([]model.Record, 0, len(records))
	for i, rec := range records {
		if rec.Collection() != c {
			return errors.Errorf("record %d belongs to %s, not %s", i, rec.Collection(), c)
		}
		stamped = append(stamped, stamp(rec, now))
	}
	s.records[c] = append(s.records[c], stamped...)
	return nil
}

func stamp(rec model.Record, now time.Time) model.Record {
	switch r := rec.(type) {
	case model.ActivityRecord:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		return r
	case model.StoryMusicRecord:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		return r
	case model.ShopProductRecord:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		return r
	}
	return rec
}

// DeleteAll empties a collection.
func (s *MemoryStore) DeleteAll(_ context.Context, c model.Collection) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete != nil {
		return 0, s.FailDelete
	}
	n := int64(len(s.records[c]))
	delete(s.records, c)
	return n, nil
}

// Count returns the number of records in a collection.
func (s *MemoryStore) Count(_ context.Context, c model.Collection) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[c]), nil
}

// Records returns a copy of a collection in insertion order.
func (s *MemoryStore) Records(c model.Collection) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Record(nil), s.records[c]...)
}
