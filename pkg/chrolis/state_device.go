package chrolis

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/device"
)

// StateDevice exposes the enable state and brightness of every channel.
//
// The cached vectors are only touched from host property calls, which the
// host serialises; the hub callback only republishes values it is given.
type StateDevice struct {
	hub    HubFunc
	notify device.Notifier
	logger *slog.Logger

	states     EnableVector
	brightness BrightnessVector
}

// NewStateDevice creates the LED state peripheral.
func NewStateDevice(logger *slog.Logger, hub HubFunc, notify device.Notifier) *StateDevice {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = device.NotifierFunc(func(string, string) {})
	}
	return &StateDevice{hub: hub, notify: notify, logger: logger}
}

func (d *StateDevice) Name() string        { return StateDeviceName }
func (d *StateDevice) Description() string { return "Thorlabs CHROLIS LED Control" }

// Initialize loads the caches from hardware when connected and installs the
// hub state callback.
func (d *StateDevice) Initialize(ctx context.Context) error {
	h := d.hub.resolve()
	if h == nil {
		return errors.LogErrorAndReturn(d.logger,
			errors.HubUnavailablef("no %s loaded", HubDeviceName), "state: initialize")
	}
	if h.Connected() {
		if states, err := h.Driver().EnableStates(); err != nil {
			d.logger.Warn("state: could not read enable states", "error", err)
		} else {
			d.states = states
		}
		if levels, err := h.Driver().Brightnesses(); err != nil {
			d.logger.Warn("state: could not read brightness", "error", err)
		} else {
			d.brightness = levels
		}
	}
	h.SetStateCallback(d.onHubState)
	return nil
}

// Shutdown re-arms the hub's no-op state callback.
func (d *StateDevice) Shutdown() error {
	if h := d.hub.resolve(); h != nil {
		h.SetStateCallback(nil)
	}
	return nil
}

// Cached returns the cached vectors without touching hardware.
func (d *StateDevice) Cached() (EnableVector, BrightnessVector) {
	return d.states, d.brightness
}

func (d *StateDevice) onHubState(id, value int) {
	switch {
	case id == 0:
		d.notify.Notify(PropertyState, strconv.Itoa(value))
	case id >= 1 && id <= NumLEDs:
		d.notify.Notify(EnableStateProperty(id-1), strconv.Itoa(value))
	}
}

func (d *StateDevice) publishState() {
	d.notify.Notify(PropertyState, strconv.Itoa(int(EncodeStates(d.states))))
}

func (d *StateDevice) publishEnable(idx int) {
	d.notify.Notify(EnableStateProperty(idx), formatBool(d.states[idx]))
}

func (d *StateDevice) publishBrightness(idx int) {
	d.notify.Notify(PowerProperty(idx), strconv.Itoa(int(d.brightness[idx])))
}

// ReadState refreshes the enable cache and returns it encoded. A failed
// refresh serves the cache.
func (d *StateDevice) ReadState() (int64, error) {
	h, err := d.hub.connected()
	if h == nil {
		d.publishState()
		return 0, err
	}
	if err == nil {
		if states, rerr := h.Driver().EnableStates(); rerr != nil {
			d.logger.Debug("state: refresh failed, serving cache", "error", rerr)
		} else {
			d.states = states
		}
	}
	return int64(EncodeStates(d.states)), nil
}

// WriteState applies an encoded enable mask.
func (d *StateDevice) WriteState(value int64) error {
	if value < 0 || value >= stateMaskLimit {
		d.publishState()
		return errors.OutOfRangef("state %d must be in [0,%d)", value, stateMaskLimit)
	}
	h, err := d.hub.connected()
	if err != nil {
		d.publishState()
		return err
	}

	states := DecodeStates(uint8(value))
	if err := h.Driver().SetEnableStates(states); err != nil {
		if !errors.IsDeviceUnavailable(err) {
			if cur, rerr := h.Driver().EnableStates(); rerr != nil {
				d.logger.Warn("state: refresh after failed write", "error", rerr)
			} else {
				d.states = cur
			}
		}
		d.publishState()
		return err
	}

	d.states = states
	d.notify.Notify(PropertyState, strconv.FormatInt(value, 10))
	return nil
}

// ReadEnable refreshes and returns one channel's enable state.
func (d *StateDevice) ReadEnable(idx int) (bool, error) {
	if !validChannel(idx) {
		return false, errors.OutOfRangef("channel %d", idx+1)
	}
	h, err := d.hub.connected()
	if h == nil {
		d.publishEnable(idx)
		return false, err
	}
	if err == nil {
		if on, rerr := h.Driver().EnableState(idx); rerr != nil {
			d.logger.Debug("state: refresh failed, serving cache", "channel", idx+1, "error", rerr)
		} else {
			d.states[idx] = on
		}
	}
	return d.states[idx], nil
}

// WriteEnable switches one channel on or off.
func (d *StateDevice) WriteEnable(idx int, on bool) error {
	if !validChannel(idx) {
		return errors.OutOfRangef("channel %d", idx+1)
	}
	h, err := d.hub.connected()
	if err != nil {
		d.publishEnable(idx)
		return err
	}

	if err := h.Driver().SetEnableState(idx, on); err != nil {
		if !errors.IsDeviceUnavailable(err) {
			if cur, rerr := h.Driver().EnableState(idx); rerr != nil {
				d.logger.Warn("state: refresh after failed write", "channel", idx+1, "error", rerr)
			} else {
				d.states[idx] = cur
			}
		}
		d.publishEnable(idx)
		return err
	}

	d.states[idx] = on
	d.notify.Notify(EnableStateProperty(idx), formatBool(on))
	return nil
}

// ReadBrightness refreshes and returns one channel's brightness.
func (d *StateDevice) ReadBrightness(idx int) (uint16, error) {
	if !validChannel(idx) {
		return 0, errors.OutOfRangef("channel %d", idx+1)
	}
	h, err := d.hub.connected()
	if h == nil {
		d.publishBrightness(idx)
		return 0, err
	}
	if err == nil {
		if level, rerr := h.Driver().Brightness(idx); rerr != nil {
			d.logger.Debug("state: refresh failed, serving cache", "channel", idx+1, "error", rerr)
		} else {
			d.brightness[idx] = level
		}
	}
	return d.brightness[idx], nil
}

// WriteBrightness sets one channel's brightness. Bounds are enforced by the
// property limits.
func (d *StateDevice) WriteBrightness(idx int, level uint16) error {
	if !validChannel(idx) {
		return errors.OutOfRangef("channel %d", idx+1)
	}
	h, err := d.hub.connected()
	if err != nil {
		d.publishBrightness(idx)
		return err
	}

	if err := h.Driver().SetBrightness(idx, level); err != nil {
		if !errors.IsDeviceUnavailable(err) {
			if cur, rerr := h.Driver().Brightness(idx); rerr != nil {
				d.logger.Warn("state: refresh after failed write", "channel", idx+1, "error", rerr)
			} else {
				d.brightness[idx] = cur
			}
		}
		d.publishBrightness(idx)
		return err
	}

	d.brightness[idx] = level
	d.notify.Notify(PowerProperty(idx), strconv.Itoa(int(level)))
	return nil
}

// Properties returns the aggregate state property followed by the enable
// and power property of every channel.
func (d *StateDevice) Properties() []device.Property {
	props := make([]device.Property, 0, 1+2*NumLEDs)
	props = append(props, device.Property{
		Name:    PropertyState,
		Type:    device.Integer,
		Initial: strconv.Itoa(int(EncodeStates(d.states))),
		Read: func() (string, error) {
			v, err := d.ReadState()
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(v, 10), nil
		},
		Write: func(value string) error {
			v, err := parseInt(PropertyState, value)
			if err != nil {
				return err
			}
			return d.WriteState(v)
		},
	})

	for i := 0; i < NumLEDs; i++ {
		idx := i
		props = append(props, device.Property{
			Name:    EnableStateProperty(idx),
			Type:    device.Integer,
			Initial: formatBool(d.states[idx]),
			Limits:  &device.Limits{Min: 0, Max: 1},
			Read: func() (string, error) {
				on, err := d.ReadEnable(idx)
				if err != nil {
					return "", err
				}
				return formatBool(on), nil
			},
			Write: func(value string) error {
				v, err := parseInt(EnableStateProperty(idx), value)
				if err != nil {
					return err
				}
				return d.WriteEnable(idx, v != 0)
			},
		})
	}

	for i := 0; i < NumLEDs; i++ {
		idx := i
		props = append(props, device.Property{
			Name:    PowerProperty(idx),
			Type:    device.Integer,
			Initial: strconv.Itoa(int(d.brightness[idx])),
			Limits:  &device.Limits{Min: int64(MinBrightness), Max: int64(MaxBrightness)},
			Read: func() (string, error) {
				level, err := d.ReadBrightness(idx)
				if err != nil {
					return "", err
				}
				return strconv.Itoa(int(level)), nil
			},
			Write: func(value string) error {
				v, err := parseInt(PowerProperty(idx), value)
				if err != nil {
					return err
				}
				if v < int64(MinBrightness) || v > int64(MaxBrightness) {
					d.publishBrightness(idx)
					return errors.OutOfRangef("brightness %d must be in [%d,%d]", v, MinBrightness, MaxBrightness)
				}
				return d.WriteBrightness(idx, uint16(v))
			},
		})
	}
	return props
}

var _ device.Device = (*StateDevice)(nil)
