// Package models defines the bounty tracker's persisted and transient data.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserIdentity is the authenticated user of the active session. Only a
// "current identity" marker derived from it is ever persisted.
type UserIdentity struct {
	Username       string    `json:"username"`
	ExternalID     string    `json:"external_id"`
	LoginTimestamp time.Time `json:"login_timestamp"`
}

// ProgressRecord is the durable per-user progress state.
type ProgressRecord struct {
	// ID is assigned once at creation and never changes.
	ID string `json:"id"`

	DisplayName string `json:"display_name"`

	CompletedCount  int64 `json:"completed_count"`
	CurrentPoints   int64 `json:"current_points"`
	LifetimePoints  int64 `json:"lifetime_points"`
	PointsThisMonth int64 `json:"points_this_month"`

	// AvatarRef is an opaque image reference; empty means no avatar.
	AvatarRef string `json:"avatar_ref,omitempty"`

	// TimerStartTimestamp anchors the countdown. Set at creation only.
	TimerStartTimestamp time.Time `json:"timer_start_timestamp"`

	KeySubmitted   bool `json:"key_submitted"`
	RewardUnlocked bool `json:"reward_unlocked"`
}

// NewProgressRecord returns a zeroed record for username whose countdown
// starts at now.
func NewProgressRecord(username string, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		ID:                  uuid.NewString(),
		DisplayName:         username,
		TimerStartTimestamp: now.UTC(),
	}
}

// Validate checks the record invariants:
// counters are non-negative, and keySubmitted implies rewardUnlocked
// implies completedCount >= 1.
func (r *ProgressRecord) Validate() error {
	switch {
	case r.CompletedCount < 0, r.CurrentPoints < 0, r.LifetimePoints < 0, r.PointsThisMonth < 0:
		return fmt.Errorf("negative counter in record %q", r.ID)
	case r.KeySubmitted && !r.RewardUnlocked:
		return fmt.Errorf("record %q: key submitted but reward locked", r.ID)
	case r.RewardUnlocked && r.CompletedCount < 1:
		return fmt.Errorf("record %q: reward unlocked without completed tasks", r.ID)
	case r.TimerStartTimestamp.IsZero():
		return fmt.Errorf("record %q: missing timer start", r.ID)
	}
	return nil
}

// Clone returns a detached copy suitable for handing to presentation code.
func (r *ProgressRecord) Clone() ProgressRecord {
	return *r
}

// ProgressMap is the durable username -> record mapping.
type ProgressMap map[string]*ProgressRecord

// Validate reports the first record that breaks an invariant.
func (m ProgressMap) Validate() error {
	for name, r := range m {
		if r == nil {
			return fmt.Errorf("nil record for %q", name)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("user %q: %w", name, err)
		}
	}
	return nil
}
