package journal

import (
	"context"
	"time"
)

// Entry is one redemption event.
type Entry struct {
	ID         string
	RecordID   string
	RewardKey  string
	Points     int64
	RedeemedAt time.Time
}

type Repository interface {
	Append(ctx context.Context, e Entry) error
	Exists(ctx context.Context, recordID string) (bool, error)
	ListByRecord(ctx context.Context, recordID string) ([]Entry, error)
}
