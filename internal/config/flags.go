package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/bountyhunter/internal/flagx"
)

// parseFlags reads the flags owned by this package:
//
//	-d string   path to the SQLite database
//	-l string   log level (debug, info, warn, error)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"d", "l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the database file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
