package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chrolisd/pkg/client"
)

func newWatchCommand() *cobra.Command {
	var (
		parseable bool
		filter    client.WatchFilter
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream device events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.Watch(cmd.Context(), filter, func(e client.Event) error {
				printEvent(out, e, parseable)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&filter.Devices, "device", nil, "Only show events for these devices")
	cmd.Flags().StringSliceVar(&filter.Types, "type", nil, "Only show these event types")
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func printEvent(w io.Writer, e client.Event, parseable bool) {
	ts := e.Timestamp.Format("15:04:05.000")
	pc, isChange := e.PropertyChange()
	switch {
	case parseable && isChange:
		fmt.Fprintf(w, "time=%q type=%q device=%q property=%q value=%q source=%q\n",
			e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.Type, pc.Device, pc.Property, pc.Value, pc.Source)
	case parseable:
		fmt.Fprintf(w, "time=%q type=%q data=%s\n", e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.Type, e.Data)
	case isChange:
		fmt.Fprintf(w, "%s %s %q = %s (%s)\n", ts, pc.Device, pc.Property, pc.Value, pc.Source)
	default:
		fmt.Fprintf(w, "%s %s %s\n", ts, e.Type, e.Data)
	}
}
