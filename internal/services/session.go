package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/countdown"
	"github.com/dmitrijs2005/bountyhunter/internal/ledger"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/journal"
)

// ProgressStore is what the session needs from progress.Store.
type ProgressStore interface {
	GetOrCreate(ctx context.Context, username string) (*models.ProgressRecord, bool)
	Save(ctx context.Context) error
}

// SessionContext is the state of one logged-in session. Record is borrowed
// from the progress store; Timer is owned by the session.
type SessionContext struct {
	Identity models.UserIdentity
	Record   *models.ProgressRecord
	Timer    *countdown.Timer
}

// SessionSnapshot is a detached, read-only view for presentation.
type SessionSnapshot struct {
	Identity   models.UserIdentity
	Record     models.ProgressRecord
	Stats      ledger.Stats
	Remaining  int64
	TimerState countdown.State
}

// SessionManager binds an authenticated identity to its progress record and
// owns the session's countdown timer. All record mutations go through it.
type SessionManager struct {
	auth     Authenticator
	store    ProgressStore
	markers  *MarkerStore
	redeemer *Redeemer
	log      logging.Logger

	clock    countdown.Clock
	window   time.Duration
	interval time.Duration
	onTick   func(remaining int64)
	onExpire func(username string)

	mu   sync.Mutex
	sess *SessionContext
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock replaces the wall clock used for timers and redemption time.
func WithClock(c countdown.Clock) SessionOption { return func(m *SessionManager) { m.clock = c } }

// WithTimerWindow must match the window given to the Redeemer.
func WithTimerWindow(d time.Duration) SessionOption {
	return func(m *SessionManager) { m.window = d }
}

// WithTickInterval sets how often the countdown ticks. The displayed
// counter stays consistent with the wall clock whatever the interval.
func WithTickInterval(d time.Duration) SessionOption {
	return func(m *SessionManager) { m.interval = d }
}

// WithTickHandler and WithExpiryHandler register presentation callbacks.
// They run on the timer goroutine and must not call back into the manager.
func WithTickHandler(fn func(remaining int64)) SessionOption {
	return func(m *SessionManager) { m.onTick = fn }
}

func WithExpiryHandler(fn func(username string)) SessionOption {
	return func(m *SessionManager) { m.onExpire = fn }
}

// NewSessionManager wires the session services together. auth checks
// credentials, store supplies records, markers persists the identity for
// RestoreSession and redeemer handles key submissions. Without options the
// manager uses the system clock, the 24h window and a one-second tick.
func NewSessionManager(auth Authenticator, store ProgressStore, markers *MarkerStore, redeemer *Redeemer, log logging.Logger, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		auth:     auth,
		store:    store,
		markers:  markers,
		redeemer: redeemer,
		log:      log.With("component", "session"),
		clock:    countdown.SystemClock{},
		window:   countdown.DefaultWindow,
		interval: time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Login checks credentials, loads or creates the user's record, persists
// the identity marker and starts the countdown.
func (m *SessionManager) Login(ctx context.Context, username, externalID string, secret []byte) (models.UserIdentity, error) {
	id, err := m.auth.Authenticate(ctx, username, externalID, secret)
	if err != nil {
		m.log.Info(ctx, "login rejected", "username", strings.TrimSpace(username))
		return models.UserIdentity{}, fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.endLocked()
	m.bindLocked(ctx, id)

	if err := m.markers.Save(ctx, id); err != nil {
		m.log.Warn(ctx, "identity marker not saved, session will not survive restart", "error", err)
	}

	m.log.Info(ctx, "logged in", "username", id.Username)
	return id, nil
}

// Logout clears the identity marker and stops the timer. Progress is kept.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.markers.Clear(ctx); err != nil {
		m.log.Warn(ctx, "identity marker not cleared", "error", err)
	}
	if m.sess != nil {
		m.log.Info(ctx, "logged out", "username", m.sess.Identity.Username)
	}
	m.endLocked()
	return nil
}

// RestoreSession re-binds the identity stored in the marker without
// re-checking credentials. A stricter policy can replace this method alone.
// An unreadable marker is discarded.
func (m *SessionManager) RestoreSession(ctx context.Context) (models.UserIdentity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		return m.sess.Identity, true
	}

	id, ok, err := m.markers.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "identity marker unusable", "error", err)
		if isCorrupted(err) {
			_ = m.markers.Clear(ctx)
		}
		return models.UserIdentity{}, false
	}
	if !ok {
		return models.UserIdentity{}, false
	}

	m.bindLocked(ctx, id)
	m.log.Info(ctx, "session restored", "username", id.Username)
	return id, true
}

// Close stops the timer but keeps the marker, so the next start restores.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked()
}

// Current returns the identity of the active session, if any.
func (m *SessionManager) Current() (models.UserIdentity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return models.UserIdentity{}, false
	}
	return m.sess.Identity, true
}

// SubmitKey redeems rawKey against the active record at the current time.
func (m *SessionManager) SubmitKey(ctx context.Context, rawKey string) (RedemptionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return RedemptionResult{}, common.ErrNotLoggedIn
	}
	return m.redeemer.Submit(ctx, m.sess.Record, rawKey, m.clock.Now())
}

// UpdateDisplayName trims name and stores it on the active record.
// An empty name is rejected with common.ErrInvalidDisplayName.
func (m *SessionManager) UpdateDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return common.ErrNotLoggedIn
	}
	if name == "" {
		return common.ErrInvalidDisplayName
	}
	m.sess.Record.DisplayName = name
	_ = m.store.Save(ctx)
	return nil
}

// UpdateAvatar stores an opaque image reference; an empty ref removes it.
func (m *SessionManager) UpdateAvatar(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return common.ErrNotLoggedIn
	}
	m.sess.Record.AvatarRef = ref
	_ = m.store.Save(ctx)
	return nil
}

// Snapshot returns a detached copy of the active record with its derived
// stats and the timer's current reading.
func (m *SessionManager) Snapshot() (SessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return SessionSnapshot{}, common.ErrNotLoggedIn
	}
	rec := m.sess.Record
	return SessionSnapshot{
		Identity:   m.sess.Identity,
		Record:     rec.Clone(),
		Stats:      ledger.Snapshot(rec),
		Remaining:  m.sess.Timer.Remaining(),
		TimerState: m.sess.Timer.State(),
	}, nil
}

// History lists the active user's journaled redemptions.
func (m *SessionManager) History(ctx context.Context) ([]journal.Entry, error) {
	m.mu.Lock()
	recordID := ""
	if m.sess != nil {
		recordID = m.sess.Record.ID
	}
	m.mu.Unlock()

	if recordID == "" {
		return nil, common.ErrNotLoggedIn
	}
	return m.redeemer.History(ctx, recordID)
}

func (m *SessionManager) bindLocked(ctx context.Context, id models.UserIdentity) {
	rec, created := m.store.GetOrCreate(ctx, id.Username)

	username := id.Username
	timer := countdown.New(rec.TimerStartTimestamp,
		countdown.WithWindow(m.window),
		countdown.WithInterval(m.interval),
		countdown.WithClock(m.clock),
		countdown.OnTick(m.onTick),
		countdown.OnExpire(func() {
			m.log.Info(context.Background(), "redemption window expired", "username", username)
			if m.onExpire != nil {
				m.onExpire(username)
			}
		}),
	)
	m.sess = &SessionContext{Identity: id, Record: rec, Timer: timer}

	state := timer.Start(context.WithoutCancel(ctx))
	m.log.Debug(ctx, "session bound", "username", username, "new_record", created, "timer", state.String())
}

func (m *SessionManager) endLocked() {
	if m.sess == nil {
		return
	}
	m.sess.Timer.Stop()
	m.sess = nil
}
