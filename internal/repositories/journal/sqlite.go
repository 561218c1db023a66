package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO redemptions (id, record_id, reward_key, points, redeemed_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.RecordID, e.RewardKey, e.Points, e.RedeemedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append redemption: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, recordID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redemptions WHERE record_id = ?`, recordID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListByRecord(ctx context.Context, recordID string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, reward_key, points, redeemed_at
		FROM redemptions WHERE record_id = ? ORDER BY redeemed_at
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to select redemptions: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var (
			e  Entry
			at string
		)
		if err := rows.Scan(&e.ID, &e.RecordID, &e.RewardKey, &e.Points, &at); err != nil {
			return nil, fmt.Errorf("failed to scan redemption row: %w", err)
		}
		if e.RedeemedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("bad redeemed_at %q: %w", at, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate redemption rows: %w", err)
	}
	return result, nil
}

// Store binds the repository to a database so that Record can run its
// check-and-insert in a single transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends e unless the record already has a redemption, in which case
// it returns common.ErrAlreadyRedeemed and writes nothing.
func (s *Store) Record(ctx context.Context, e Entry) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		exists, err := repo.Exists(ctx, e.RecordID)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyRedeemed
		}
		return repo.Append(ctx, e)
	})
}

func (s *Store) History(ctx context.Context, recordID string) ([]Entry, error) {
	return NewSQLiteRepository(s.db).ListByRecord(ctx, recordID)
}
