package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("BOUNTY_DATABASE_PATH", "/var/lib/bounty.db")
	t.Setenv("BOUNTY_TICK_INTERVAL", "2s")
	t.Setenv("BOUNTY_SIGN_MARKER", "false")

	cfg := defaults()
	parseEnv(&cfg)

	want := defaults()
	want.DatabasePath = "/var/lib/bounty.db"
	want.TickInterval = 2 * time.Second
	want.SignMarker = false
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseEnv_UnprefixedIgnored(t *testing.T) {
	t.Setenv("DATABASE_PATH", "ignored.db")

	cfg := defaults()
	parseEnv(&cfg)
	assert.Equal(t, "bounty.db", cfg.DatabasePath)
}

func Test_parseEnv_BadValuePanics(t *testing.T) {
	t.Setenv("BOUNTY_WINDOW", "forever")

	cfg := defaults()
	require.Panics(t, func() { parseEnv(&cfg) })
}
