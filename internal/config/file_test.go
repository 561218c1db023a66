package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_JSON(t *testing.T) {
	path := writeTemp(t, "cfg.json", `{
		"database_path": "data/b.db",
		"window": "1h",
		"tick_interval": 500000000,
		"sign_marker": false
	}`)
	setArgs(t, "-config", path)

	cfg := defaults()
	parseFile(&cfg)

	want := defaults()
	want.DatabasePath = "data/b.db"
	want.Window = time.Hour
	want.TickInterval = 500 * time.Millisecond
	want.SignMarker = false
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseFile_YAML(t *testing.T) {
	path := writeTemp(t, "cfg.yml", `
credential_id: abc123
credential_secret: s3cret
reward_base_url: https://example.test/r/
tick_interval: 250ms
`)
	setArgs(t, "-c", path)

	cfg := defaults()
	parseFile(&cfg)

	want := defaults()
	want.CredentialID = "abc123"
	want.CredentialSecret = "s3cret"
	want.RewardBaseURL = "https://example.test/r/"
	want.TickInterval = 250 * time.Millisecond
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseFile_NoFlagNoChange(t *testing.T) {
	setArgs(t, "-d", "x.db")

	cfg := defaults()
	parseFile(&cfg)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func Test_parseFile_Panics(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		setArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		cfg := defaults()
		require.Panics(t, func() { parseFile(&cfg) })
	})

	t.Run("invalid json", func(t *testing.T) {
		setArgs(t, "-c", writeTemp(t, "bad.json", `{ not json`))
		cfg := defaults()
		require.Panics(t, func() { parseFile(&cfg) })
	})

	t.Run("invalid yaml duration", func(t *testing.T) {
		setArgs(t, "-c", writeTemp(t, "bad.yaml", "window: soon\n"))
		cfg := defaults()
		require.Panics(t, func() { parseFile(&cfg) })
	})
}
