package importer

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"kidbloom/internal/observability"
)

// PendingStore holds parsed batches between upload and commit. Entries expire
// after the TTL; nothing is written anywhere until a batch is taken.
type PendingStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now    func() time.Time
	random io.Reader
	items  map[string]pendingBatch
}

type pendingBatch struct {
	parsed    *Parsed
	owner     string
	expiresAt time.Time
}

// NewPendingStore returns a store whose entries live for ttl.
func NewPendingStore(ttl time.Duration) *PendingStore {
	return &PendingStore{
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
		items:  make(map[string]pendingBatch),
	}
}

// Put stores a batch for owner and returns its URL-safe token.
func (s *PendingStore) Put(owner string, p *Parsed) (token string, expiresAt time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token, err = newRandomToken(s.random, 24)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt = now.Add(s.ttl)
	s.items[token] = pendingBatch{parsed: p, owner: owner, expiresAt: expiresAt}
	observability.SetPendingImports(len(s.items))
	return token, expiresAt, nil
}

// Get returns the batch without removing it.
func (s *PendingStore) Get(owner, token string) (*Parsed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lookupLocked(owner, token)
	if !ok {
		return nil, false
	}
	return v.parsed, true
}

// Take removes and returns the batch, so one batch is committed at most once.
func (s *PendingStore) Take(owner, token string) (*Parsed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lookupLocked(owner, token)
	if !ok {
		return nil, false
	}
	delete(s.items, token)
	observability.SetPendingImports(len(s.items))
	return v.parsed, true
}

// Cancel discards a batch. It reports whether the token was known.
func (s *PendingStore) Cancel(owner, token string) bool {
	_, ok := s.Take(owner, token)
	return ok
}

// Len returns the number of live batches.
func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.items)
}

func (s *PendingStore) lookupLocked(owner, token string) (pendingBatch, bool) {
	s.purgeExpiredLocked(s.now())

	v, ok := s.items[token]
	if !ok || v.owner != owner {
		return pendingBatch{}, false
	}
	return v, true
}

func (s *PendingStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errors.Wrap(err, "generate import token")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
