package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewDeviceCommand creates the device command
func NewDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "device",
		Aliases: []string{"devices", "dev"},
		Short:   "Inspect loaded devices",
	}
	cmd.AddCommand(newDeviceListCommand(), newDeviceGetCommand())
	return cmd
}

func newDeviceListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			devices, err := c.GetDevices()
			if err != nil {
				return fmt.Errorf("failed to get devices: %w", err)
			}

			out := cmd.OutOrStdout()
			if parseable {
				for _, d := range devices {
					fmt.Fprintf(out, "name=%q description=%q initialized=%t shutter=%t properties=%d\n",
						d.Name, d.Description, d.Initialized, d.Shutter, len(d.Properties))
				}
				return nil
			}
			if len(devices) == 0 {
				fmt.Fprintln(out, "No devices loaded")
				return nil
			}

			data := pterm.TableData{{"Name", "Description", "Initialized", "Properties"}}
			for _, d := range devices {
				data = append(data, []string{
					pterm.Bold.Sprint(d.Name), d.Description,
					fmt.Sprintf("%t", d.Initialized), fmt.Sprintf("%d", len(d.Properties)),
				})
			}
			return renderTable(out, data)
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newDeviceGetCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "get <device>",
		Short: "Show a device and its property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			d, err := c.GetDevice(args[0])
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			out := cmd.OutOrStdout()
			if parseable {
				for _, line := range DeviceParseable(d) {
					fmt.Fprintln(out, line)
				}
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", pterm.Bold.Sprint(d.Name), d.Description)
			return renderTable(out, DeviceTableData(d))
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
