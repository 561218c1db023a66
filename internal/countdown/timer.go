// Package countdown implements the redemption window timer.
//
// Remaining time is always derived from an absolute start timestamp, never
// carried over from a previous in-memory counter, so a restarted process
// resumes exactly where the wall clock says it should. Between restarts a
// one-second tick decrements the counter for display; reaching zero moves
// the timer to Expired, which is terminal.
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the redemption window length.
const DefaultWindow = 24 * time.Hour

type State int

const (
	// Stopped: not started yet, or stopped by logout.
	Stopped State = iota
	Running
	Expired
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Expired:
		return "EXPIRED"
	default:
		return "STOPPED"
	}
}

// ComputeRemaining returns max(0, window - floor((now-start)/1s)) in whole
// seconds. A now earlier than start is treated as zero elapsed time.
func ComputeRemaining(start, now time.Time, window time.Duration) int64 {
	windowSec := int64(window / time.Second)
	elapsedMs := now.Sub(start).Milliseconds()
	if elapsedMs < 0 {
		return windowSec
	}
	rem := windowSec - elapsedMs/1000
	if rem < 0 {
		return 0
	}
	return rem
}

// Format renders seconds as HH:MM:SS, or "TIME EXPIRED" at zero.
func Format(remaining int64) string {
	if remaining <= 0 {
		return "TIME EXPIRED"
	}
	return fmt.Sprintf("%02d:%02d:%02d", remaining/3600, remaining%3600/60, remaining%60)
}

// Timer counts down the redemption window of one record. It is anchored on
// the record's start timestamp: every Start recomputes the remaining time
// from the clock, and ticks only move the displayed counter between starts.
// A Timer is safe for concurrent use.
type Timer struct {
	start    time.Time
	window   time.Duration
	interval time.Duration
	clock    Clock
	onTick   func(remaining int64)
	onExpire func()

	mu        sync.Mutex
	remaining int64
	state     State
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

func WithWindow(d time.Duration) Option   { return func(t *Timer) { t.window = d } }
func WithInterval(d time.Duration) Option { return func(t *Timer) { t.interval = d } }
func WithClock(c Clock) Option            { return func(t *Timer) { t.clock = c } }

// OnTick registers a callback run after every decrement, outside the lock.
// Callbacks run on the tick goroutine and must not call Stop.
func OnTick(fn func(remaining int64)) Option { return func(t *Timer) { t.onTick = fn } }

// OnExpire registers a callback run once, when the timer becomes Expired.
func OnExpire(fn func()) Option { return func(t *Timer) { t.onExpire = fn } }

// New returns a stopped timer for a window beginning at start. The window
// defaults to DefaultWindow and ticks come every second from SystemClock.
func New(start time.Time, opts ...Option) *Timer {
	t := &Timer{
		start:    start,
		window:   DefaultWindow,
		interval: time.Second,
		clock:    SystemClock{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Timer) ComputeRemaining(now time.Time) int64 {
	return ComputeRemaining(t.start, now, t.window)
}

// Start recomputes the remaining time from the wall clock. With time left it
// schedules the periodic tick and returns Running; otherwise it reports
// Expired immediately. Starting a running or expired timer is a no-op.
func (t *Timer) Start(ctx context.Context) State {
	t.mu.Lock()
	if t.state != Stopped {
		s := t.state
		t.mu.Unlock()
		return s
	}

	t.remaining = t.ComputeRemaining(t.clock.Now())
	if t.remaining == 0 {
		t.state = Expired
		cb := t.onExpire
		t.mu.Unlock()
		if cb != nil {
			cb()
		}
		return Expired
	}

	t.state = Running
	ticker := t.clock.NewTicker(t.interval)
	stop, done := make(chan struct{}), make(chan struct{})
	t.stop, t.done = stop, done
	t.mu.Unlock()

	go t.run(ctx, ticker, stop, done)
	return Running
}

func (t *Timer) run(ctx context.Context, ticker Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			t.Tick()
		case <-stop:
			return
		case <-ctx.Done():
			t.mu.Lock()
			if t.done == done {
				t.stop, t.done = nil, nil
				if t.state == Running {
					t.state = Stopped
				}
			}
			t.mu.Unlock()
			return
		}
	}
}

// Tick decrements the counter by one second, never showing more time than
// the wall clock allows and never reaching zero before it does, so Expired
// always agrees with ComputeRemaining. At zero the timer becomes Expired and
// its schedule is cancelled; further ticks do nothing.
func (t *Timer) Tick() State {
	t.mu.Lock()
	if t.state != Running {
		s := t.state
		t.mu.Unlock()
		return s
	}

	wall := t.ComputeRemaining(t.clock.Now())
	t.remaining--
	if wall < t.remaining {
		// ticks came late; catch up with the wall clock
		t.remaining = wall
	}
	if t.remaining <= 0 && wall > 0 {
		// ticks came early; expiry waits for the wall clock
		t.remaining = 1
	}
	if t.remaining <= 0 {
		t.remaining = 0
		t.state = Expired
		if t.stop != nil {
			close(t.stop)
			t.stop, t.done = nil, nil
		}
	}
	rem, state := t.remaining, t.state
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(rem)
	}
	if state == Expired && onExpire != nil {
		onExpire()
	}
	return state
}

// Stop cancels the tick schedule and waits for it to exit. An expired timer
// stays Expired.
func (t *Timer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	if t.state == Running {
		t.state = Stopped
	}
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (t *Timer) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
