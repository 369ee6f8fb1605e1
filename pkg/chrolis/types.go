package chrolis

import (
	"strconv"
	"strings"
)

// NumLEDs is the number of light-source channels in the instrument.
const NumLEDs = 6

// Brightness bounds of a single LED, in per-mille of full power.
const (
	MinBrightness uint16 = 0
	MaxBrightness uint16 = 1000
)

// Device names as registered with the host.
const (
	HubDeviceName     = "CHROLIS_Hub"
	ShutterDeviceName = "CHROLIS_Shutter"
	StateDeviceName   = "CHROLIS_LED_Control"
)

// Property names published by the hub.
const (
	PropertySerialNumber       = "Serial Number"
	PropertyDeviceSerialNumber = "Device Serial Number"
	PropertyManufacturerName   = "Manufacturer Name"
	PropertyWavelengths        = "Available Wavelengths"
	PropertyDeviceStatus       = "Device Status"
)

// Property names published by the peripherals.
const (
	PropertyState       = "State"
	PropertyShutterOpen = "Shutter Open"
)

// EnableStateProperty returns the name of the enable property for a channel (0-based).
func EnableStateProperty(idx int) string {
	return "LED Enable State " + strconv.Itoa(idx+1)
}

// PowerProperty returns the name of the brightness property for a channel (0-based).
func PowerProperty(idx int) string {
	return "LED " + strconv.Itoa(idx+1) + " Power"
}

// EnableVector holds the enable state of every channel, indexed by channel.
type EnableVector [NumLEDs]bool

// BrightnessVector holds the brightness setpoint of every channel.
type BrightnessVector [NumLEDs]uint16

// Wavelengths holds the nominal wavelength of every channel in nanometres.
type Wavelengths [NumLEDs]uint16

// String joins the wavelengths with ", ".
func (w Wavelengths) String() string {
	parts := make([]string, len(w))
	for i, nm := range w {
		parts[i] = strconv.Itoa(int(nm))
	}
	return strings.Join(parts, ", ")
}

// StateFunc receives hub notifications: id 0 carries the encoded enable
// mask, ids 1..NumLEDs carry a single channel's state as 0 or 1.
type StateFunc func(id int, value int)

func noopState(int, int) {}

func validChannel(idx int) bool {
	return idx >= 0 && idx < NumLEDs
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
