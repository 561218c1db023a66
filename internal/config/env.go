package config

import "github.com/caarlos0/env/v11"

// EnvPrefix is prepended to every variable name in Config's env tags.
const EnvPrefix = "BOUNTY_"

// parseEnv overlays cfg with BOUNTY_* variables. Unset variables leave the
// field untouched; malformed values panic.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
