package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/server"
	"github.com/jmylchreest/chrolisd/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("chrolisd", pflag.ContinueOnError)
	fs.String("config", "", "Path to config file")
	fs.String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	fs.String("log-format", config.LogFormatText, "Log format (text, json)")
	fs.String("driver", config.DriverSimulator, "Instrument driver")
	fs.String("serial", "", "Instrument serial number (empty picks the first attached)")
	fs.Int("poll-interval", int(config.DefaultPollInterval.Milliseconds()), "Hub status polling interval in milliseconds")
	fs.String("listen", config.DefaultAPIListenAddress, "HTTP API listen address (empty disables the API)")
	fs.Bool("advertise", false, "Advertise the API over DNS-SD")
	fs.Bool("mqtt", false, "Enable the MQTT bridge")
	fs.String("mqtt-broker", config.DefaultMQTTBroker, "MQTT broker URL")
	fs.Bool("version", false, "Print version and exit")
	return fs
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		utils.SetupErrorLogger().Error("chrolisd failed", "error", err)
		os.Exit(1)
	}
}

// run starts the daemon and blocks until ctx is cancelled.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "chrolisd %s (commit %s, built %s)\n", version, commit, buildDate)
		return nil
	}

	configPath, _ := fs.GetString("config")
	cfg, err := config.LoadWithFlags(config.DaemonConfigFilename, configPath, fs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.SetupLoggerTo(stderr, cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)
	logger.Info("Starting chrolisd",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	driver, err := server.NewDriver(cfg.Device)
	if err != nil {
		return err
	}
	srv, err := server.New(logger, cfg, driver, server.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		srv.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down...")
	srv.Stop()
	return nil
}
