package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/utils"
	"github.com/jmylchreest/chrolisd/pkg/client"
)

// BuildInfo identifies the client binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// DaemonAddr turns a listen address into one a client can dial: wildcard
// and empty hosts become loopback.
func DaemonAddr(listen string) string {
	if listen == "" {
		listen = config.DefaultAPIListenAddress
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// NewRootCommand creates the root command
func NewRootCommand(logger *slog.Logger, build BuildInfo, defaultAddr string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chrolisctl",
		Short:        "Control a CHROLIS LED source through chrolisd",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			lvl, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-format") {
				logger = utils.SetupLogger(lvl, format)
			}
			if logger != nil {
				ctx = context.WithValue(ctx, loggerContextKey{}, logger)
			}

			if _, ok := ctx.Value(ClientContextKey).(client.ClientInterface); !ok {
				addr, _ := cmd.Flags().GetString("addr")
				ctx = context.WithValue(ctx, ClientContextKey, client.NewHTTP(logger, addr))
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	cmd.PersistentFlags().String("addr", defaultAddr, "chrolisd API address (host:port or URL)")
	cmd.PersistentFlags().String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", config.LogFormatText, "Log format (text, json)")

	cmd.AddCommand(
		newVersionCommand(build),
		NewDeviceCommand(),
		NewPropertyCommand(),
		NewLEDCommand(),
		NewShutterCommand(),
		newStatusCommand(),
		newLogLevelCommand(),
		newWatchCommand(),
		newDiscoverCommand(),
	)
	return cmd
}

// newVersionCommand creates the version command
func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client:\n")
			fmt.Fprintf(out, "  Version:    %s\n", build.Version)
			fmt.Fprintf(out, "  Commit:     %s\n", build.Commit)
			fmt.Fprintf(out, "  Build Date: %s\n", build.BuildDate)

			c, err := getClient(cmd)
			if err != nil {
				return
			}
			v, err := c.GetVersion()
			if err != nil {
				fmt.Fprintf(out, "\nDaemon: not reachable\n")
				return
			}
			fmt.Fprintf(out, "\nDaemon:\n")
			fmt.Fprintf(out, "  Version:    %s\n", v.Version)
			fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
			fmt.Fprintf(out, "  Build Date: %s\n", v.BuildDate)
		},
	}
}
