package journal

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE redemptions (
  id          TEXT PRIMARY KEY,
  record_id   TEXT NOT NULL UNIQUE,
  reward_key  TEXT NOT NULL,
  points      INTEGER NOT NULL,
  redeemed_at TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func newEntry(recordID string, at time.Time) Entry {
	return Entry{ID: uuid.NewString(), RecordID: recordID, RewardKey: "ABCDE", Points: 100, RedeemedAt: at}
}

func TestStore_RecordThenHistory(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 10, 0, 0, 123, time.UTC)

	require.NoError(t, s.Record(ctx, newEntry("alice", at)))

	h, err := s.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "ABCDE", h[0].RewardKey)
	assert.Equal(t, int64(100), h[0].Points)
	assert.True(t, at.Equal(h[0].RedeemedAt))

	other, err := s.History(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_RecordTwice_AlreadyRedeemed(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, newEntry("alice", time.Now())))
	err := s.Record(ctx, newEntry("alice", time.Now()))
	require.ErrorIs(t, err, common.ErrAlreadyRedeemed)

	h, err := s.History(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestSQLiteRepository_UniqueConstraint(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, newEntry("alice", time.Now())))
	require.ErrorContains(t, r.Append(ctx, newEntry("alice", time.Now())), "failed to append redemption")
}

func TestStore_ClosedDB(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	require.NoError(t, db.Close())

	require.Error(t, s.Record(context.Background(), newEntry("alice", time.Now())))
	_, err := s.History(context.Background(), "alice")
	require.ErrorContains(t, err, "failed to select redemptions")
}
