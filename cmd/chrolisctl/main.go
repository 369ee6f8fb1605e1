package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/chrolisd/cmd/chrolisctl/commands"
	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load(config.ClientConfigFilename, "")
	if err != nil {
		utils.SetupErrorLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := commands.NewRootCommand(logger, commands.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	}, commands.DaemonAddr(cfg.API.ListenAddress))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
