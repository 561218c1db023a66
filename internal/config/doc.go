// Package config loads runtime configuration for the bounty tracker CLI.
//
// Sources, lowest precedence first:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A JSON or YAML file named by -c or -config.
//  3. BOUNTY_* environment variables, e.g. BOUNTY_DATABASE_PATH or
//     BOUNTY_WINDOW=1h.
//  4. Command-line flags -d (database path) and -l (log level).
//
// File example:
//
//	database_path: data/bounty.db
//	window: 24h
//	tick_interval: 1s
//	sign_marker: true
package config
