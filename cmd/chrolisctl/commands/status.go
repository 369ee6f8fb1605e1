package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the instrument hub status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			s, err := c.GetStatus()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if parseable {
				fmt.Fprintln(cmd.OutOrStdout(), StatusParseable(s))
				return nil
			}
			return renderTable(cmd.OutOrStdout(), StatusTableData(s))
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newLogLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log-level [debug|info|warn|error]",
		Short: "Show or change the daemon's log level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			var level string
			if len(args) == 0 {
				level, err = c.GetLogLevel()
			} else {
				level, err = c.SetLogLevel(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to access log level: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), level)
			return nil
		},
	}
}
