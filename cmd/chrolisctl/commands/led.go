package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/pkg/chrolis"
	"github.com/jmylchreest/chrolisd/pkg/client"
)

// NewLEDCommand creates the led command
func NewLEDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "led",
		Aliases: []string{"leds"},
		Short:   "Control the six LED channels",
	}
	cmd.AddCommand(
		newLEDListCommand(),
		newLEDEnableCommand(),
		newLEDPowerCommand(),
		newLEDMaskCommand(),
	)
	return cmd
}

// ledChannel is one row of the led list output.
type ledChannel struct {
	Index      int
	Wavelength string
	Enabled    bool
	Power      string
}

// parseChannel converts a 1-based channel argument to a 0-based index.
func parseChannel(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > chrolis.NumLEDs {
		return 0, fmt.Errorf("invalid LED %q: expected 1-%d", arg, chrolis.NumLEDs)
	}
	return n - 1, nil
}

func ledChannels(c client.ClientInterface) ([]ledChannel, error) {
	state, err := c.GetDevice(chrolis.StateDeviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", chrolis.StateDeviceName, err)
	}

	var wavelengths []string
	if hub, err := c.GetDevice(chrolis.HubDeviceName); err == nil {
		if p, ok := hub.Property(chrolis.PropertyWavelengths); ok && p.Value != "" {
			wavelengths = strings.Split(p.Value, ", ")
		}
	}

	out := make([]ledChannel, chrolis.NumLEDs)
	for i := 0; i < chrolis.NumLEDs; i++ {
		ch := ledChannel{Index: i + 1, Wavelength: "?"}
		if i < len(wavelengths) {
			ch.Wavelength = wavelengths[i]
		}
		if p, ok := state.Property(chrolis.EnableStateProperty(i)); ok {
			ch.Enabled = p.Value == "1"
		}
		if p, ok := state.Property(chrolis.PowerProperty(i)); ok {
			ch.Power = p.Value
		}
		out[i] = ch
	}
	return out, nil
}

func newLEDListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every channel's wavelength, enable state and power",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			channels, err := ledChannels(c)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if parseable {
				for _, ch := range channels {
					fmt.Fprintf(out, "led=%d wavelength=%s enabled=%t power=%s\n", ch.Index, ch.Wavelength, ch.Enabled, ch.Power)
				}
				return nil
			}

			data := pterm.TableData{{"LED", "Wavelength (nm)", "Enabled", "Power (‰)"}}
			for _, ch := range channels {
				enabled := pterm.Gray("off")
				if ch.Enabled {
					enabled = pterm.Green("on")
				}
				data = append(data, []string{strconv.Itoa(ch.Index), ch.Wavelength, enabled, ch.Power})
			}
			return renderTable(out, data)
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newLEDEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <led 1-6> [on|off]",
		Short: "Switch a single channel on or off",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseChannel(args[0])
			if err != nil {
				return err
			}
			on := true
			if len(args) > 1 {
				if on, err = onOff(args[1]); err != nil {
					return err
				}
			}
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			value := "0"
			if on {
				value = "1"
			}
			settled, err := c.SetProperty(chrolis.StateDeviceName, chrolis.EnableStateProperty(idx), value)
			if err != nil {
				return fmt.Errorf("failed to switch LED %d: %w", idx+1, err)
			}
			state := "off"
			if settled == "1" {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "LED %d %s\n", idx+1, state)
			return nil
		},
	}
}

func newLEDPowerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "power <led 1-6> <0-1000>",
		Short: "Set a channel's brightness in per-mille of full power",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseChannel(args[0])
			if err != nil {
				return err
			}
			level, err := strconv.Atoi(args[1])
			if err != nil || level < int(chrolis.MinBrightness) || level > int(chrolis.MaxBrightness) {
				return fmt.Errorf("invalid power %q: expected %d-%d", args[1], chrolis.MinBrightness, chrolis.MaxBrightness)
			}
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			settled, err := c.SetProperty(chrolis.StateDeviceName, chrolis.PowerProperty(idx), strconv.Itoa(level))
			if err != nil {
				return fmt.Errorf("failed to set LED %d power: %w", idx+1, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "LED %d power %s\n", idx+1, settled)
			return nil
		},
	}
}

func newLEDMaskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mask [bits]",
		Short: "Read or write the enable mask of all channels",
		Long: "Without an argument prints the current enable mask. With one, writes it; " +
			"bit 0 is LED 1. Accepts decimal, 0b binary or 0x hex.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}

			var value string
			if len(args) == 0 {
				value, err = c.GetProperty(chrolis.StateDeviceName, chrolis.PropertyState)
			} else {
				mask, perr := strconv.ParseInt(args[0], 0, 64)
				if perr != nil || mask < 0 || mask >= 1<<chrolis.NumLEDs {
					return fmt.Errorf("invalid mask %q: expected 0-%d", args[0], 1<<chrolis.NumLEDs-1)
				}
				value, err = c.SetProperty(chrolis.StateDeviceName, chrolis.PropertyState, strconv.FormatInt(mask, 10))
			}
			if err != nil {
				return fmt.Errorf("failed to access LED mask: %w", err)
			}

			mask, err := strconv.Atoi(value)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (0b%06b)\n", mask, mask)
			return nil
		},
	}
}
