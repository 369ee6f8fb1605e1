package chrolis

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/device"
)

// Shutter gates the light output of the whole instrument.
type Shutter struct {
	hub    HubFunc
	notify device.Notifier
	logger *slog.Logger

	// last position seen or set, shown when the instrument cannot be read
	last atomic.Bool
}

// NewShutter creates the shutter peripheral.
func NewShutter(logger *slog.Logger, hub HubFunc, notify device.Notifier) *Shutter {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = device.NotifierFunc(func(string, string) {})
	}
	return &Shutter{hub: hub, notify: notify, logger: logger}
}

func (s *Shutter) Name() string        { return ShutterDeviceName }
func (s *Shutter) Description() string { return "Thorlabs CHROLIS Shutter" }

// Initialize closes the shutter when the hub is connected. A failure to
// close is logged and does not fail initialization.
func (s *Shutter) Initialize(ctx context.Context) error {
	h := s.hub.resolve()
	if h == nil {
		return errors.LogErrorAndReturn(s.logger,
			errors.HubUnavailablef("no %s loaded", HubDeviceName), "shutter: initialize")
	}
	if h.Connected() {
		if err := h.Driver().SetShutterOpen(false); err != nil {
			s.logger.Warn("shutter: could not close shutter on init", "error", err)
		} else {
			s.last.Store(false)
		}
	}
	h.SetShutterCallback(nil)
	return nil
}

// Shutdown re-arms the hub's no-op shutter callback.
func (s *Shutter) Shutdown() error {
	if h := s.hub.resolve(); h != nil {
		h.SetShutterCallback(nil)
	}
	return nil
}

// SetOpen opens or closes the shutter.
func (s *Shutter) SetOpen(open bool) error {
	h, err := s.hub.connected()
	if err != nil {
		return err
	}
	if err := h.Driver().SetShutterOpen(open); err != nil {
		return err
	}
	s.last.Store(open)
	s.logger.Debug("shutter: set", "open", open)
	return nil
}

// Open returns the live shutter state.
func (s *Shutter) Open() (bool, error) {
	h, err := s.hub.connected()
	if err != nil {
		return false, err
	}
	open, err := h.Driver().ShutterOpen()
	if err != nil {
		return false, err
	}
	s.last.Store(open)
	return open, nil
}

// LastOpen returns the last shutter position seen or set.
func (s *Shutter) LastOpen() bool {
	return s.last.Load()
}

// republish shows the live position when it can be read, the last known
// one otherwise.
func (s *Shutter) republish() {
	open, err := s.Open()
	if err != nil {
		open = s.LastOpen()
	}
	s.notify.Notify(PropertyShutterOpen, formatBool(open))
}

func (s *Shutter) Properties() []device.Property {
	return []device.Property{
		{
			Name:    PropertyShutterOpen,
			Type:    device.Integer,
			Initial: "0",
			Limits:  &device.Limits{Min: 0, Max: 1},
			Read: func() (string, error) {
				open, err := s.Open()
				if err != nil {
					s.notify.Notify(PropertyShutterOpen, formatBool(s.LastOpen()))
					return "", err
				}
				return formatBool(open), nil
			},
			Write: func(value string) error {
				v, err := parseInt(PropertyShutterOpen, value)
				if err != nil {
					s.republish()
					return err
				}
				if err := s.SetOpen(v != 0); err != nil {
					s.republish()
					return err
				}
				return nil
			},
		},
	}
}

var _ device.Shutter = (*Shutter)(nil)
