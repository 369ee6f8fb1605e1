package chrolis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/device"
)

// DefaultPollInterval is the delay between two status samples.
const DefaultPollInterval = 500 * time.Millisecond

// HubState is the lifecycle state of the polling loop.
type HubState int32

const (
	HubIdle HubState = iota
	HubPolling
	HubStopping
)

func (s HubState) String() string {
	switch s {
	case HubPolling:
		return "polling"
	case HubStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// HubOptions configures a Hub.
type HubOptions struct {
	// SerialNumber selects the instrument. Empty picks the first available.
	SerialNumber string

	// PollInterval defaults to DefaultPollInterval when zero or negative.
	PollInterval time.Duration
}

// Hub owns the instrument connection and the status polling goroutine, and
// fans hardware-driven changes out to the registered peripheral callbacks.
type Hub struct {
	driver Driver
	notify device.Notifier
	logger *slog.Logger
	opts   HubOptions

	// running is the loop's run flag: written by Shutdown, read by the loop.
	running    atomic.Bool
	state      atomic.Int32
	statusCode atomic.Uint32
	message    atomic.Pointer[string]

	stateCallback   atomic.Pointer[StateFunc]
	shutterCallback atomic.Pointer[StateFunc]

	errMu   sync.Mutex
	pollErr error

	// mu serialises Initialize and Shutdown.
	mu           sync.Mutex
	initialized  bool
	stop         chan struct{}
	wg           sync.WaitGroup
	serial       string
	deviceSerial string
	manufacturer string
	wavelengths  Wavelengths
}

// NewHub creates a hub around the given driver. Notifications for the
// hub's own properties go to notify.
func NewHub(logger *slog.Logger, driver Driver, notify device.Notifier, opts HubOptions) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = device.NotifierFunc(func(string, string) {})
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	h := &Hub{
		driver: driver,
		notify: notify,
		logger: logger,
		opts:   opts,
	}
	msg := StatusNoError
	h.message.Store(&msg)
	return h
}

// Name returns the host device name
func (h *Hub) Name() string { return HubDeviceName }

// Description returns the host device description
func (h *Hub) Description() string { return "Thorlabs CHROLIS Hub" }

// Driver returns the instrument driver owned by the hub.
func (h *Hub) Driver() Driver { return h.driver }

// Connected reports whether the instrument link is established.
func (h *Hub) Connected() bool { return h.driver.IsConnected() }

// State returns the current lifecycle state.
func (h *Hub) State() HubState { return HubState(h.state.Load()) }

// StatusCode returns the most recently sampled status bits.
func (h *Hub) StatusCode() StatusBits { return StatusBits(h.statusCode.Load()) }

// StatusMessage returns the most recently published status message.
func (h *Hub) StatusMessage() string { return *h.message.Load() }

// PollErr returns the error that stopped the polling loop, if any.
func (h *Hub) PollErr() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.pollErr
}

// SetStateCallback installs the channel-state handler, replacing any
// previous one. nil installs a no-op.
func (h *Hub) SetStateCallback(fn StateFunc) {
	if fn == nil {
		fn = noopState
	}
	h.stateCallback.Store(&fn)
}

// SetShutterCallback installs the shutter handler, replacing any previous
// one. nil installs a no-op.
func (h *Hub) SetShutterCallback(fn StateFunc) {
	if fn == nil {
		fn = noopState
	}
	h.shutterCallback.Store(&fn)
}

func (h *Hub) stateHandler() StateFunc {
	if fn := h.stateCallback.Load(); fn != nil {
		return *fn
	}
	return noopState
}

// Initialize connects to the instrument, reads its identity and starts the
// polling goroutine.
func (h *Hub) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return errors.Internalf("hub already initialized")
	}

	serial := h.opts.SerialNumber
	if serial == "" {
		serials, err := h.driver.AvailableSerialNumbers()
		if err != nil {
			return errors.LogErrorAndReturn(h.logger, err, "hub: failed to list instruments")
		}
		if len(serials) == 0 {
			return errors.LogErrorAndReturn(h.logger,
				errors.DeviceUnavailablef("no available devices were found on the system"),
				"hub: no instrument attached")
		}
		serial = serials[0]
	}

	if err := h.driver.Connect(ctx, serial); err != nil {
		return errors.LogErrorAndReturn(h.logger, err, "hub: error in CHROLIS initialization", "serial", serial)
	}

	if err := h.readIdentity(); err != nil {
		if derr := h.driver.Disconnect(); derr != nil {
			h.logger.Warn("hub: disconnect after failed initialization", "error", derr)
		}
		return errors.LogErrorAndReturn(h.logger, err, "hub: unable to read instrument identity", "serial", serial)
	}
	h.serial = serial

	h.statusCode.Store(0)
	msg := StatusNoError
	h.message.Store(&msg)
	h.errMu.Lock()
	h.pollErr = nil
	h.errMu.Unlock()

	h.stop = make(chan struct{})
	h.running.Store(true)
	h.state.Store(int32(HubPolling))
	h.initialized = true

	h.wg.Add(1)
	go h.poll(h.stop)

	h.logger.Info("hub: initialized",
		slog.String("serial", h.deviceSerial),
		slog.String("manufacturer", h.manufacturer),
		slog.String("wavelengths", h.wavelengths.String()),
		slog.Duration("poll_interval", h.opts.PollInterval),
	)
	return nil
}

// readIdentity reads the instrument's identity. Serial number and
// manufacturer are informational and left empty when unreadable; the
// wavelengths are required.
func (h *Hub) readIdentity() error {
	sn, err := h.driver.SerialNumber()
	if err != nil {
		h.logger.Warn("hub: could not read serial number", "error", err)
		sn = ""
	}
	manufacturer, err := h.driver.ManufacturerName()
	if err != nil {
		h.logger.Warn("hub: could not read manufacturer name", "error", err)
		manufacturer = ""
	}
	wl, err := h.driver.Wavelengths()
	if err != nil {
		return errors.WrapErrorf(err, "read wavelengths")
	}
	h.deviceSerial = sn
	h.manufacturer = manufacturer
	h.wavelengths = wl
	return nil
}

// Shutdown stops the polling goroutine, waits for it to exit and releases
// the instrument connection. No notification is emitted after it returns.
func (h *Hub) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running.Swap(false) {
		h.state.Store(int32(HubStopping))
	}
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	h.wg.Wait()
	h.state.Store(int32(HubIdle))
	h.initialized = false

	if h.driver.IsConnected() {
		if err := h.driver.Disconnect(); err != nil {
			return errors.LogErrorAndReturn(h.logger, err, "hub: error shutting down device")
		}
	}
	h.logger.Info("hub: shut down")
	return nil
}

func (h *Hub) poll(stop <-chan struct{}) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	h.logger.Debug("hub: polling started", "interval", h.opts.PollInterval)
	for h.running.Load() {
		if h.driver.IsConnected() {
			if err := h.tick(); err != nil {
				h.running.Store(false)
				h.state.CompareAndSwap(int32(HubPolling), int32(HubIdle))
				h.errMu.Lock()
				h.pollErr = fmt.Errorf("%w: %w", errors.ErrPollFatal, err)
				h.errMu.Unlock()
				h.logger.Error("hub: error getting status, polling stopped", "error", err)
				return
			}
		}
		select {
		case <-stop:
		case <-ticker.C:
		}
	}
	h.logger.Debug("hub: polling stopped")
}

// tick samples the status once. The published message describes the
// status observed on the previous tick; a status change away from a
// nonzero snapshot re-reads the enable states and fans them out.
func (h *Hub) tick() error {
	bits, err := h.driver.Status()
	if err != nil {
		return err
	}

	prev := StatusBits(h.statusCode.Swap(uint32(bits)))
	changed := prev != bits
	message := Interpret(prev)

	if changed {
		h.logger.Debug("hub: status changed", "previous", uint32(prev), "current", uint32(bits))
		if prev != 0 {
			h.publishEnableStates()
		}
	}

	h.message.Store(&message)
	h.notify.Notify(PropertyDeviceStatus, message)
	return nil
}

func (h *Hub) publishEnableStates() {
	states, err := h.driver.EnableStates()
	if err != nil {
		h.logger.Warn("hub: error getting info from chrolis", "error", err)
		return
	}
	cb := h.stateHandler()
	cb(0, int(EncodeStates(states)))
	for i, on := range states {
		cb(i+1, boolToInt(on))
	}
}

// Properties returns the hub's read-only properties.
func (h *Hub) Properties() []device.Property {
	h.mu.Lock()
	defer h.mu.Unlock()

	return []device.Property{
		{Name: PropertySerialNumber, Type: device.String, ReadOnly: true, Initial: h.serial},
		{Name: PropertyDeviceSerialNumber, Type: device.String, ReadOnly: true, Initial: h.deviceSerial},
		{Name: PropertyManufacturerName, Type: device.String, ReadOnly: true, Initial: h.manufacturer},
		{Name: PropertyWavelengths, Type: device.String, ReadOnly: true, Initial: h.wavelengths.String()},
		{
			Name:     PropertyDeviceStatus,
			Type:     device.String,
			ReadOnly: true,
			Initial:  h.StatusMessage(),
			Read: func() (string, error) {
				return h.StatusMessage(), nil
			},
		},
	}
}

var _ device.Device = (*Hub)(nil)
