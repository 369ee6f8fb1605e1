package chrolis

import (
	"log/slog"

	"github.com/jmylchreest/chrolisd/pkg/device"
)

// Host is what the CHROLIS devices need from the framework that loads them.
type Host interface {
	device.Locator
	Notifier(name string) device.Notifier
}

// Devices is the hub and its two peripherals, in load order.
type Devices struct {
	Hub     *Hub
	Shutter *Shutter
	State   *StateDevice
}

// NewDevices builds the three CHROLIS devices on driver. The peripherals
// find the hub through h by name, so it must be registered as HubDeviceName.
func NewDevices(logger *slog.Logger, driver Driver, h Host, opts HubOptions) Devices {
	resolve := ResolveHub(h, HubDeviceName)
	return Devices{
		Hub:     NewHub(logger, driver, h.Notifier(HubDeviceName), opts),
		Shutter: NewShutter(logger, resolve, h.Notifier(ShutterDeviceName)),
		State:   NewStateDevice(logger, resolve, h.Notifier(StateDeviceName)),
	}
}

// All returns the devices in the order they must be initialised.
func (d Devices) All() []device.Device {
	return []device.Device{d.Hub, d.Shutter, d.State}
}
