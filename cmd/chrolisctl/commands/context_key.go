package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/pkg/client"
)

// ClientContextKey is used for storing the client in context for commands.
// The root command installs an HTTP client under it unless one is already
// present, which is how tests substitute a mock.
var ClientContextKey = &struct{}{}

// getClient returns the client stored in the command context.
func getClient(cmd *cobra.Command) (client.ClientInterface, error) {
	c, ok := cmd.Context().Value(ClientContextKey).(client.ClientInterface)
	if !ok || c == nil {
		return nil, fmt.Errorf("no daemon client configured")
	}
	return c, nil
}
