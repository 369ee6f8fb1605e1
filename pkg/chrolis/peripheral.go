package chrolis

import (
	"strconv"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/device"
)

// HubFunc returns the peripheral's current hub, or nil when none is loaded.
// Peripherals call it at the top of every operation and never keep the
// result, since the host may replace the hub at any time.
type HubFunc func() *Hub

// ResolveHub returns a HubFunc that looks the hub up by name in loc.
func ResolveHub(loc device.Locator, name string) HubFunc {
	return func() *Hub {
		d, ok := loc.Device(name)
		if !ok {
			return nil
		}
		h, _ := d.(*Hub)
		return h
	}
}

// StaticHub returns a HubFunc that always yields h.
func StaticHub(h *Hub) HubFunc {
	return func() *Hub { return h }
}

func (fn HubFunc) resolve() *Hub {
	if fn == nil {
		return nil
	}
	return fn()
}

// connected resolves the hub and checks its link. The hub is returned
// alongside ErrDeviceUnavailable so callers can still reach it.
func (fn HubFunc) connected() (*Hub, error) {
	h := fn.resolve()
	if h == nil {
		return nil, errors.HubUnavailablef("no %s loaded", HubDeviceName)
	}
	if !h.Connected() {
		return h, errors.DeviceUnavailablef("%s is not connected", HubDeviceName)
	}
	return h, nil
}

func parseInt(property, value string) (int64, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.InvalidInputf("property %q expects an integer, got %q", property, value)
	}
	return v, nil
}

func formatBool(b bool) string {
	return strconv.Itoa(boolToInt(b))
}
