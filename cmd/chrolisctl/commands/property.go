package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPropertyCommand creates the property command
func NewPropertyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Read and write device properties",
	}
	cmd.AddCommand(newPropertyGetCommand(), newPropertySetCommand())
	return cmd
}

func newPropertyGetCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "get <device> <property>",
		Short: "Read a property through the device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			value, err := c.GetProperty(args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get property: %w", err)
			}
			printValue(cmd, parseable, args[0], args[1], value)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newPropertySetCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "set <device> <property> <value>",
		Short: "Write a property",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			getLoggerFromCmd(cmd).Debug("setting property", "device", args[0], "property", args[1], "value", args[2])
			value, err := c.SetProperty(args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to set property: %w", err)
			}
			printValue(cmd, parseable, args[0], args[1], value)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func printValue(cmd *cobra.Command, parseable bool, device, property, value string) {
	if parseable {
		fmt.Fprintln(cmd.OutOrStdout(), PropertyParseable(device, property, value))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
}
