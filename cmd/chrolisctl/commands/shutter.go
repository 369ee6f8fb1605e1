package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/pkg/chrolis"
)

// NewShutterCommand creates the shutter command
func NewShutterCommand() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "shutter",
		Short: "Open, close or query the shutter",
	}
	cmd.PersistentFlags().StringVar(&device, "device", chrolis.ShutterDeviceName, "Shutter device name")

	set := func(open bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			if err := c.SetShutter(device, open); err != nil {
				return fmt.Errorf("failed to set shutter: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", device, shutterWord(open))
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "open", Short: "Open the shutter", Args: cobra.NoArgs, RunE: set(true)},
		&cobra.Command{Use: "close", Short: "Close the shutter", Args: cobra.NoArgs, RunE: set(false)},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the shutter is open",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := getClient(cmd)
				if err != nil {
					return err
				}
				open, err := c.GetShutter(device)
				if err != nil {
					return fmt.Errorf("failed to get shutter: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", device, shutterWord(open))
				return nil
			},
		},
	)
	return cmd
}

func shutterWord(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
