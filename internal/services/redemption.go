package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/countdown"
	"github.com/dmitrijs2005/bountyhunter/internal/ledger"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/journal"
	"github.com/google/uuid"
)

// MinKeyLength is the minimum trimmed key length accepted for redemption.
const MinKeyLength = 5

// DefaultRewardBaseURL prefixes the submitted key to form the reward link.
const DefaultRewardBaseURL = "https://reward-portal.com/claim/"

// Saver flushes the progress mapping.
type Saver interface {
	Save(ctx context.Context) error
}

// Journal durably records redemptions. Record must refuse a second entry
// for the same record with common.ErrAlreadyRedeemed.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	History(ctx context.Context, recordID string) ([]journal.Entry, error)
}

// RedemptionResult is returned on a successful key submission.
type RedemptionResult struct {
	PointsAwarded int64
	// RewardRef is built from the submitted key; it is passed through, not
	// checked for uniqueness or authenticity.
	RewardRef  string
	RedeemedAt time.Time
}

// Redeemer applies key submissions to progress records. It grants the
// fixed award at most once per record: the record's keySubmitted flag is
// the first guard and the optional journal, whose entries are unique per
// record id, is the durable second one. The Redeemer holds no per-user
// state; callers serialize submissions for the same record.
type Redeemer struct {
	store      Saver
	journal    Journal
	log        logging.Logger
	window     time.Duration
	award      int64
	rewardBase string
}

// RedeemerOption configures a Redeemer.
type RedeemerOption func(*Redeemer)

// WithJournal enables the durable redemption journal. WithWindow must match
// the window used by the session timer. WithRewardBaseURL sets the prefix of
// RedemptionResult.RewardRef.
func WithJournal(j Journal) RedeemerOption      { return func(r *Redeemer) { r.journal = j } }
func WithWindow(d time.Duration) RedeemerOption { return func(r *Redeemer) { r.window = d } }
func WithRewardBaseURL(u string) RedeemerOption { return func(r *Redeemer) { r.rewardBase = u } }

// NewRedeemer returns a Redeemer that saves through store after every award.
// Without options it uses the 24h window, no journal and the default reward
// portal URL.
func NewRedeemer(store Saver, log logging.Logger, opts ...RedeemerOption) *Redeemer {
	r := &Redeemer{
		store:      store,
		log:        log.With("component", "redemption"),
		window:     countdown.DefaultWindow,
		award:      ledger.RedemptionAward,
		rewardBase: DefaultRewardBaseURL,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Submit validates rawKey against rec at time now and, on success, applies
// the award exactly once. Preconditions are checked in order and reported
// as common.ErrExpired, common.ErrInvalidKey, common.ErrAlreadyRedeemed;
// a failed precondition leaves rec untouched.
func (r *Redeemer) Submit(ctx context.Context, rec *models.ProgressRecord, rawKey string, now time.Time) (RedemptionResult, error) {
	if countdown.ComputeRemaining(rec.TimerStartTimestamp, now, r.window) <= 0 {
		return RedemptionResult{}, common.ErrExpired
	}

	key := strings.TrimSpace(rawKey)
	if utf8.RuneCountInString(key) < MinKeyLength {
		return RedemptionResult{}, common.ErrInvalidKey
	}

	if rec.KeySubmitted {
		return RedemptionResult{}, common.ErrAlreadyRedeemed
	}

	if r.journal != nil {
		err := r.journal.Record(ctx, journal.Entry{
			ID:         uuid.NewString(),
			RecordID:   rec.ID,
			RewardKey:  key,
			Points:     r.award,
			RedeemedAt: now.UTC(),
		})
		switch {
		case errors.Is(err, common.ErrAlreadyRedeemed):
			// the record lost its flag (e.g. an earlier save failed) but
			// the journal remembers the redemption
			r.log.Warn(ctx, "journal already holds a redemption for record", "record", rec.ID)
			return RedemptionResult{}, common.ErrAlreadyRedeemed
		case err != nil:
			r.log.Warn(ctx, "journal write failed, continuing", "record", rec.ID, "error", err)
		}
	}

	if err := ledger.CompleteTask(rec, r.award); err != nil {
		return RedemptionResult{}, err
	}
	rec.KeySubmitted = true
	rec.RewardUnlocked = true

	_ = r.store.Save(ctx)

	r.log.Info(ctx, "key redeemed", "record", rec.ID, "points", r.award)
	return RedemptionResult{
		PointsAwarded: r.award,
		RewardRef:     r.rewardBase + url.PathEscape(key),
		RedeemedAt:    now,
	}, nil
}

// History lists journaled redemptions for a record; nil without a journal.
func (r *Redeemer) History(ctx context.Context, recordID string) ([]journal.Entry, error) {
	if r.journal == nil {
		return nil, nil
	}
	return r.journal.History(ctx, recordID)
}
