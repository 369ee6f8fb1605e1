package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// Define a custom type for context keys to avoid collisions
type loggerContextKey struct{}

// getLoggerFromCmd returns the slog.Logger from the command context
func getLoggerFromCmd(cmd *cobra.Command) *slog.Logger {
	if ctx := cmd.Context(); ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}
