package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/config"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/metadata"
	"github.com/dmitrijs2005/bountyhunter/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "bounty.db")
	cfg.TickInterval = time.Hour
	return cfg
}

func stubSecret(t *testing.T, secret string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(secret), nil }
	t.Cleanup(func() { readPassword = old })
}

func newTestApp(t *testing.T, cfg *config.Config, input string) (*App, *bytes.Buffer) {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	var out bytes.Buffer
	a.out = &out
	a.reader = bufio.NewReader(strings.NewReader(input))
	return a, &out
}

func TestApp_LoginSubmitAndSettings(t *testing.T) {
	ctx := context.Background()
	stubSecret(t, "TheNewgen")

	a, out := newTestApp(t, testConfig(t), "alice\nTheNewgen2.0.1\n")
	t.Cleanup(a.Close)

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(alice)", a.getStatus())
	assert.Contains(t, out.String(), "Logged in as alice.")
	assert.Contains(t, out.String(), "alice (Level 1)")
	assert.Regexp(t, `Time remaining:\s+(24:00:00|23:59:5\d)`, out.String())

	out.Reset()
	require.NoError(t, a.Submit(ctx, "  KEY-12345 "))
	assert.Contains(t, out.String(), "You've earned 100 points. Reward link: https://reward-portal.com/claim/KEY-12345")

	err := a.Submit(ctx, "KEY-67890")
	require.ErrorIs(t, err, common.ErrAlreadyRedeemed)

	require.NoError(t, a.Name(ctx, "  Bounty Queen "))
	require.ErrorIs(t, a.Name(ctx, "   "), common.ErrInvalidDisplayName)

	img := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o600))
	require.NoError(t, a.Avatar(ctx, img))

	snap, err := a.session.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Bounty Queen", snap.Record.DisplayName)
	assert.True(t, strings.HasPrefix(snap.Record.AvatarRef, "data:image/png;base64,"))
	assert.Equal(t, int64(100), snap.Record.LifetimePoints)

	out.Reset()
	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Bounty Queen (Level 2)")
	assert.Contains(t, out.String(), "Average per bounty: 100")
	assert.Contains(t, out.String(), "Reward:             unlocked")

	out.Reset()
	require.NoError(t, a.History(ctx))
	assert.Contains(t, out.String(), "KEY-12345")
	assert.Contains(t, out.String(), "+100")

	require.NoError(t, a.Avatar(ctx, "-"))
	snap, err = a.session.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Record.AvatarRef)

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	require.ErrorIs(t, a.Logout(ctx), common.ErrNotLoggedIn)
	require.ErrorIs(t, a.Status(ctx), common.ErrNotLoggedIn)
}

func TestApp_LoginRejected(t *testing.T) {
	stubSecret(t, "wrong")

	a, _ := newTestApp(t, testConfig(t), "alice\nTheNewgen2.0.1\n")
	t.Cleanup(a.Close)

	err := a.Login(context.Background())
	require.ErrorIs(t, err, common.ErrAuthFailure)
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.getStatus())
}

func TestApp_AvatarRejectsNonImages(t *testing.T) {
	ctx := context.Background()
	stubSecret(t, "TheNewgen")

	a, _ := newTestApp(t, testConfig(t), "alice\nTheNewgen2.0.1\n")
	t.Cleanup(a.Close)

	require.ErrorIs(t, a.Avatar(ctx, "whatever.png"), common.ErrNotLoggedIn)
	require.NoError(t, a.Login(ctx))

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("just text"), 0o600))
	require.ErrorContains(t, a.Avatar(ctx, txt), "is not an image")

	require.ErrorContains(t, a.Avatar(ctx, filepath.Join(t.TempDir(), "missing.png")), "stat")
}

func TestApp_ExpiredWindow(t *testing.T) {
	ctx := context.Background()
	stubSecret(t, "TheNewgen")

	cfg := testConfig(t)
	cfg.Window = 500 * time.Millisecond

	a, out := newTestApp(t, cfg, "bob\nTheNewgen2.0.1\n")
	t.Cleanup(a.Close)

	require.NoError(t, a.Login(ctx))
	assert.Contains(t, out.String(), "bob: TIME EXPIRED")
	assert.Contains(t, out.String(), "Time remaining:     TIME EXPIRED")

	require.ErrorIs(t, a.Submit(ctx, "KEY-12345"), common.ErrExpired)
}

func TestApp_RunRestoresSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	stubSecret(t, "TheNewgen")
	cfg := testConfig(t)

	first, _ := newTestApp(t, cfg, "alice\nTheNewgen2.0.1\n")
	require.NoError(t, first.Login(ctx))
	require.NoError(t, first.Submit(ctx, "KEY-12345"))
	first.Close()

	second, out := newTestApp(t, cfg, "status\nexit\n")

	second.Run(ctx)

	assert.Contains(t, out.String(), "Welcome back, alice.")
	assert.Contains(t, out.String(), "Current points:     100")
	assert.NotContains(t, out.String(), "Warning")
	assert.Contains(t, out.String(), "bounty (alice)> ")
	assert.True(t, strings.HasSuffix(out.String(), "Bye!\n"))
}

func TestApp_RunWithoutMarker(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SignMarker = false

	a, out := newTestApp(t, cfg, "exit\n")

	a.Run(ctx)

	assert.Contains(t, out.String(), "Welcome to Bounty Hunter")
	assert.NotContains(t, out.String(), "Welcome back")
}

func TestNewApp_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	stubSecret(t, "TheNewgen")

	blocker := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := testConfig(t)
	cfg.DatabasePath = filepath.Join(blocker, "bounty.db")

	a, out := newTestApp(t, cfg, "alice\nTheNewgen2.0.1\n")
	assert.Nil(t, a.storage)

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Submit(ctx, "KEY-12345"))

	out.Reset()
	require.NoError(t, a.History(ctx))
	assert.Contains(t, out.String(), "No redemptions yet.")

	a.reader = bufio.NewReader(strings.NewReader("exit\n"))

	a.Run(ctx)
	assert.Contains(t, out.String(), "Warning: progress storage is unavailable")
}

func TestMarkerCodec_FallsBackToJSON(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	broken := brokenKV{err: errors.New("database is locked")}
	codec := markerCodec(ctx, cfg, broken, logging.Discard())
	assert.Equal(t, services.JSONMarker{}, codec)

	cfg.SignMarker = false
	assert.Equal(t, services.JSONMarker{}, markerCodec(ctx, cfg, metadata.NewMemoryRepository(), logging.Discard()))

	cfg.SignMarker = true
	_, signed := markerCodec(ctx, cfg, metadata.NewMemoryRepository(), logging.Discard()).(*services.JWTMarker)
	assert.True(t, signed)
}

type brokenKV struct{ err error }

func (b brokenKV) Get(context.Context, string) ([]byte, error) { return nil, b.err }
func (b brokenKV) Set(context.Context, string, []byte) error   { return b.err }
func (b brokenKV) Delete(context.Context, string) error        { return b.err }
