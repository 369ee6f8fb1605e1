package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/discovery"
)

// browse is swapped in tests.
var browse = discovery.Browse

func newDiscoverCommand() *cobra.Command {
	var (
		parseable bool
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find chrolisd daemons advertised on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			daemons, err := browse(cmd.Context(), getLoggerFromCmd(cmd), timeout)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if parseable {
				for _, d := range daemons {
					fmt.Fprintf(out, "instance=%q url=%q host=%q version=%q serial=%q\n",
						d.Instance, d.URL(), d.Host, d.Version, d.Serial)
				}
				return nil
			}
			if len(daemons) == 0 {
				fmt.Fprintln(out, "No daemons found")
				return nil
			}
			data := pterm.TableData{{"Instance", "URL", "Host", "Port", "Version", "Serial"}}
			for _, d := range daemons {
				data = append(data, []string{d.Instance, d.URL(), d.Host, strconv.Itoa(d.Port), d.Version, d.Serial})
			}
			return renderTable(out, data)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultDiscoveryTimeout, "How long to wait for answers")
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
