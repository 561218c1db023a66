package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/bountyhunter/internal/buildinfo"
	"github.com/dmitrijs2005/bountyhunter/internal/cli"
	"github.com/dmitrijs2005/bountyhunter/internal/config"
	"github.com/dmitrijs2005/bountyhunter/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
