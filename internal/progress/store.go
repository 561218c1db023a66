// Package progress owns the durable username -> ProgressRecord mapping.
//
// The whole mapping is stored as one JSON blob under Key in a key/value
// backend. Loading fails soft: a missing, unreadable or corrupted blob
// yields an empty mapping. Saving never aborts the caller's flow; a failed
// write is logged and the store is marked degraded (in-memory only). A failed
// read also disables writes, so a partial mapping never replaces the stored
// one.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
)

// Key is the backend key holding the serialized mapping.
const Key = "progress"

// Backend is the slice of metadata.Repository the store needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store holds the mapping in memory and writes it back as a whole. It is
// safe for concurrent use; records returned by GetOrCreate are shared and
// must be mutated only by their session.
type Store struct {
	backend Backend
	log     logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	records  models.ProgressMap
	degraded bool
	// loadFailed is set when the persisted mapping could not be read. The
	// in-memory mapping is then partial, so it is never written back.
	loadFailed bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store over backend. Call Load before use.
func NewStore(backend Backend, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     log.With("component", "progress"),
		now:     time.Now,
		records: make(models.ProgressMap),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory mapping with the persisted one and returns it.
// If the backend cannot be read the store starts empty and stops writing
// until a later Load succeeds, so the durable mapping is left intact.
func (s *Store) Load(ctx context.Context) models.ProgressMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(models.ProgressMap)
	s.loadFailed = false

	data, err := s.backend.Get(ctx, Key)
	if err != nil {
		s.degraded = true
		s.loadFailed = true
		s.log.Warn(ctx, "progress load failed, running in memory until restart", "error", err)
		return s.records
	}
	if data == nil {
		return s.records
	}

	m, err := Decode(data)
	if err != nil {
		s.log.Warn(ctx, "progress mapping corrupted, resetting all users", "error", err, "bytes", len(data))
		return s.records
	}

	s.records = m
	s.log.Debug(ctx, "progress loaded", "users", len(m))
	return s.records
}

// Save flushes the full mapping. The returned error wraps
// common.ErrPersistence; callers may ignore it because it is already logged.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.loadFailed {
		return fmt.Errorf("%w: mapping was not loaded, not overwriting it", common.ErrPersistence)
	}

	data, err := json.Marshal(s.records)
	if err == nil {
		err = s.backend.Set(ctx, Key, data)
	}
	if err != nil {
		if !s.degraded {
			s.log.Warn(ctx, "progress save failed, continuing in memory", "error", err)
		}
		s.degraded = true
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

// GetOrCreate returns the record for username, creating and persisting a
// fresh one on first sight. created reports whether a record was made.
// The returned pointer is the store's own record: mutate it, then Save.
func (s *Store) GetOrCreate(ctx context.Context, username string) (rec *models.ProgressRecord, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[username]; ok {
		return r, false
	}

	r := models.NewProgressRecord(username, s.now())
	s.records[username] = r
	s.log.Info(ctx, "progress record created", "username", username, "id", r.ID)

	_ = s.saveLocked(ctx)
	return r, true
}

// Len reports how many users have a record.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Degraded reports whether any read or write failed since construction.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Decode parses a persisted mapping and rejects it if any record breaks an
// invariant.
func Decode(data []byte) (models.ProgressMap, error) {
	var m models.ProgressMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorrupted, err)
	}
	if m == nil {
		m = make(models.ProgressMap)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorrupted, err)
	}
	return m, nil
}
