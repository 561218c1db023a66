package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/countdown"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/journal"
)

// manualClock returns a settable time; its tickers never fire on their own.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *manualClock) NewTicker(time.Duration) countdown.Ticker {
	return silentTicker{ch: make(chan time.Time)}
}

type silentTicker struct{ ch chan time.Time }

func (s silentTicker) C() <-chan time.Time { return s.ch }
func (s silentTicker) Stop()               {}

// countingAuth wraps an Authenticator and counts calls.
type countingAuth struct {
	inner Authenticator
	calls int
}

func (c *countingAuth) Authenticate(ctx context.Context, username, externalID string, secret []byte) (models.UserIdentity, error) {
	c.calls++
	return c.inner.Authenticate(ctx, username, externalID, secret)
}

// memJournal is an in-memory Journal with the same uniqueness rule as the
// SQLite one.
type memJournal struct {
	mu        sync.Mutex
	entries   map[string]journal.Entry
	RecordErr error
}

func newMemJournal() *memJournal {
	return &memJournal{entries: make(map[string]journal.Entry)}
}

func (j *memJournal) Record(ctx context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.RecordErr != nil {
		return j.RecordErr
	}
	if _, ok := j.entries[e.RecordID]; ok {
		return common.ErrAlreadyRedeemed
	}
	j.entries[e.RecordID] = e
	return nil
}

func (j *memJournal) History(ctx context.Context, recordID string) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e, ok := j.entries[recordID]; ok {
		return []journal.Entry{e}, nil
	}
	return nil, nil
}

// failingKV fails every call with Err.
type failingKV struct{ Err error }

func (f failingKV) Get(ctx context.Context, key string) ([]byte, error)     { return nil, f.Err }
func (f failingKV) Set(ctx context.Context, key string, value []byte) error { return f.Err }
func (f failingKV) Delete(ctx context.Context, key string) error            { return f.Err }
