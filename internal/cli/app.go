package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/bountyhunter/internal/config"
	"github.com/dmitrijs2005/bountyhunter/internal/filex"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
	"github.com/dmitrijs2005/bountyhunter/internal/progress"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/metadata"
	"github.com/dmitrijs2005/bountyhunter/internal/services"
	"github.com/dmitrijs2005/bountyhunter/internal/storage"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	storage *storage.Storage
	store   *progress.Store
	session *services.SessionManager
	reader  *bufio.Reader
	out     io.Writer
}

// lockedWriter serializes writes from the REPL and the timer goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewApp opens storage at c.DatabasePath, loads the progress mapping and
// builds the session services. If the database cannot be opened the app
// runs on an in-memory backend and nothing survives a restart.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config: c,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    &lockedWriter{w: os.Stdout},
	}

	var (
		kv        services.KV
		redeemOpt = []services.RedeemerOption{
			services.WithWindow(c.Window),
			services.WithRewardBaseURL(c.RewardBaseURL),
		}
	)

	st, err := openStorage(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database, progress will not be kept", "path", c.DatabasePath, "error", err)
		kv = metadata.NewMemoryRepository()
	} else {
		a.storage = st
		kv = st.Metadata
		redeemOpt = append(redeemOpt, services.WithJournal(st.Journal))
	}

	codec := markerCodec(ctx, c, kv, log)

	a.store = progress.NewStore(kv, log)
	a.store.Load(ctx)
	log.Info(ctx, "progress ready", "users", a.store.Len(), "degraded", a.store.Degraded())

	a.session = services.NewSessionManager(
		services.NewFixedCredentials(c.CredentialID, c.CredentialSecret),
		a.store,
		services.NewMarkerStore(kv, codec),
		services.NewRedeemer(a.store, log, redeemOpt...),
		log,
		services.WithTimerWindow(c.Window),
		services.WithTickInterval(c.TickInterval),
		services.WithExpiryHandler(a.onExpire),
	)

	return a, nil
}

func openStorage(ctx context.Context, path string) (*storage.Storage, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	return storage.Open(ctx, path)
}

// markerCodec picks the signed marker when enabled. If the signing key
// cannot be read or stored the marker falls back to plain JSON.
func markerCodec(ctx context.Context, c *config.Config, kv services.KV, log logging.Logger) services.MarkerCodec {
	if !c.SignMarker {
		return services.JSONMarker{}
	}
	key, err := services.LoadOrCreateSigningKey(ctx, kv)
	if err != nil {
		log.Warn(ctx, "marker signing key unavailable, using unsigned marker", "error", err)
		return services.JSONMarker{}
	}
	return services.NewJWTMarker(key)
}

// onExpire runs on the timer goroutine.
func (a *App) onExpire(username string) {
	fmt.Fprintf(a.out, "\n%s: TIME EXPIRED. Key submission is no longer available.\n", username)
}

// Run restores the previous session if possible and serves the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to Bounty Hunter (type 'help' for commands)")

	if id, ok := a.session.RestoreSession(ctx); ok {
		fmt.Fprintf(a.out, "Welcome back, %s.\n", id.Username)
		_ = a.Status(ctx)
	}
	if a.storage == nil || a.store.Degraded() {
		fmt.Fprintln(a.out, "Warning: progress storage is unavailable, changes will not be kept.")
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close stops the session timer and closes the database. The identity
// marker is kept so the next run restores the session.
func (a *App) Close() {
	a.session.Close()
	a.closeStorage()
}

func (a *App) closeStorage() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "error", err)
	}
	a.storage = nil
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.Current()
	return ok
}

func (a *App) getStatus() string {
	id, ok := a.session.Current()
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", id.Username)
}
