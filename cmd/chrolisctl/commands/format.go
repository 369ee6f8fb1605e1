package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jmylchreest/chrolisd/pkg/client"
)

// renderTable writes a table with a bold header row.
func renderTable(w io.Writer, data pterm.TableData) error {
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

// DeviceTableData returns the property table for a device.
func DeviceTableData(d client.Device) pterm.TableData {
	data := pterm.TableData{{"Property", "Value", "Type", "Limits"}}
	for _, p := range d.Properties {
		name := p.Name
		if p.ReadOnly {
			name += " (ro)"
		}
		data = append(data, []string{name, p.Value, p.Type, propertyLimits(p)})
	}
	return data
}

func propertyLimits(p client.Property) string {
	switch {
	case p.Min != nil && p.Max != nil:
		return fmt.Sprintf("%d..%d", *p.Min, *p.Max)
	case len(p.Allowed) > 0:
		return strings.Join(p.Allowed, "|")
	default:
		return ""
	}
}

// DeviceParseable returns one key=value line per property of a device.
func DeviceParseable(d client.Device) []string {
	lines := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		lines = append(lines, PropertyParseable(d.Name, p.Name, p.Value))
	}
	return lines
}

// PropertyParseable formats a single property value as key=value pairs.
func PropertyParseable(device, property, value string) string {
	return fmt.Sprintf("device=%q property=%q value=%q", device, property, value)
}

// StatusTableData returns the table for the hub status.
func StatusTableData(s client.HubStatus) pterm.TableData {
	flags := strings.Join(s.Flags, ", ")
	if flags == "" {
		flags = "none"
	}
	data := pterm.TableData{
		{"Field", "Value"},
		{"Device", s.Device},
		{"State", s.State},
		{"Connected", strconv.FormatBool(s.Connected)},
		{"Status Code", fmt.Sprintf("0x%04x", s.StatusCode)},
		{"Message", s.Message},
		{"Flags", flags},
	}
	if s.PollError != "" {
		data = append(data, []string{"Poll Error", s.PollError})
	}
	return data
}

// StatusParseable returns the hub status as key=value pairs.
func StatusParseable(s client.HubStatus) string {
	return fmt.Sprintf("device=%q state=%q connected=%t status_code=%d message=%q flags=%q poll_error=%q",
		s.Device, s.State, s.Connected, s.StatusCode, s.Message, strings.Join(s.Flags, ","), s.PollError)
}

// onOff parses a user supplied switch value.
func onOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "on", "true", "yes", "enable", "enabled":
		return true, nil
	case "0", "off", "false", "no", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q: use on or off", s)
}
