// Package host runs loaded devices: it keeps their property values, routes
// get/set requests to the device handlers and forwards device
// notifications onto the event bus.
package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/internal/events"
	"github.com/jmylchreest/chrolisd/pkg/device"
)

// PropertyInfo is a snapshot of one property.
type PropertyInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	ReadOnly bool     `json:"read_only"`
	Value    string   `json:"value"`
	Min      *int64   `json:"min,omitempty"`
	Max      *int64   `json:"max,omitempty"`
	Allowed  []string `json:"allowed,omitempty"`
}

// DeviceInfo is a snapshot of one device and its stored property values.
type DeviceInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Initialized bool           `json:"initialized"`
	Shutter     bool           `json:"shutter"`
	Properties  []PropertyInfo `json:"properties"`
}

// MarshalJSON ensures that Properties is always marshaled as [] instead of null
func (d DeviceInfo) MarshalJSON() ([]byte, error) {
	type Alias DeviceInfo
	tmp := Alias(d)
	if tmp.Properties == nil {
		tmp.Properties = []PropertyInfo{}
	}
	return json.Marshal(tmp)
}

type entry struct {
	dev         device.Device
	props       []device.Property
	index       map[string]int
	values      map[string]string
	initialized bool
}

func (e *entry) load(props []device.Property) {
	e.props = props
	e.index = make(map[string]int, len(props))
	e.values = make(map[string]string, len(props))
	for i, p := range props {
		e.index[p.Name] = i
		e.values[p.Name] = p.Initial
	}
}

func (e *entry) property(name string) (device.Property, bool) {
	i, ok := e.index[name]
	if !ok {
		return device.Property{}, false
	}
	return e.props[i], true
}

// Host owns the registered devices.
//
// Property handlers and shutter calls run one at a time under callMu.
// Notifications may come from any goroutine and only take mu, so a device
// may notify from inside its own handler.
type Host struct {
	logger *slog.Logger
	bus    *events.Bus

	callMu sync.Mutex

	mu      sync.RWMutex
	order   []string
	devices map[string]*entry
}

// New creates an empty host. bus may be nil.
func New(logger *slog.Logger, bus *events.Bus) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		logger:  logger,
		bus:     bus,
		devices: make(map[string]*entry),
	}
}

func (h *Host) publish(t events.EventType, data any) {
	if h.bus != nil {
		h.bus.Publish(events.NewEvent(t, data))
	}
}

// Register adds a device. Its properties are loaded now and reloaded after
// a successful Initialize.
func (h *Host) Register(dev device.Device) error {
	name := dev.Name()
	h.mu.Lock()
	if _, exists := h.devices[name]; exists {
		h.mu.Unlock()
		return errors.InvalidInputf("device %q already registered", name)
	}
	e := &entry{dev: dev}
	e.load(dev.Properties())
	h.devices[name] = e
	h.order = append(h.order, name)
	h.mu.Unlock()

	h.logger.Info("host: registered device", slog.String("device", name))
	h.publish(events.DeviceRegistered, events.DeviceLifecycle{Device: name})
	return nil
}

// Unregister shuts the device down if needed and removes it.
func (h *Host) Unregister(name string) error {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	h.mu.RLock()
	e, ok := h.devices[name]
	h.mu.RUnlock()
	if !ok {
		return errors.NotFoundf("device %q", name)
	}

	var err error
	if e.initialized {
		err = e.dev.Shutdown()
	}

	h.mu.Lock()
	delete(h.devices, name)
	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	h.logger.Info("host: removed device", slog.String("device", name))
	h.publish(events.DeviceRemoved, events.DeviceLifecycle{Device: name})
	return err
}

// Device implements device.Locator.
func (h *Host) Device(name string) (device.Device, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.devices[name]
	if !ok {
		return nil, false
	}
	return e.dev, true
}

// Notifier returns the notifier for the named device.
func (h *Host) Notifier(name string) device.Notifier {
	return device.NotifierFunc(func(property, value string) {
		h.notify(name, property, value)
	})
}

func (h *Host) notify(name, property, value string) {
	h.mu.Lock()
	e, ok := h.devices[name]
	if ok {
		if _, known := e.index[property]; known {
			e.values[property] = value
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if !ok {
		h.logger.Debug("host: dropping notification for unknown property",
			slog.String("device", name), slog.String("property", property))
		return
	}
	h.publish(events.PropertyChanged, events.PropertyChange{
		Device:   name,
		Property: property,
		Value:    value,
		Source:   events.SourceNotify,
	})
}

func (h *Host) store(name, property, value, source string) {
	h.mu.Lock()
	e, ok := h.devices[name]
	changed := false
	if ok {
		changed = e.values[property] != value
		e.values[property] = value
	}
	h.mu.Unlock()

	if changed {
		h.publish(events.PropertyChanged, events.PropertyChange{
			Device:   name,
			Property: property,
			Value:    value,
			Source:   source,
		})
	}
}

// InitializeAll initializes every registered device in registration order.
// A failing device does not stop the others; the failures are joined.
func (h *Host) InitializeAll(ctx context.Context) error {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	var errs []error
	for _, e := range h.snapshot() {
		if e.initialized {
			continue
		}
		name := e.dev.Name()
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.dev.Initialize(ctx); err != nil {
			h.logger.Error("host: device initialization failed", slog.String("device", name), "error", err)
			h.publish(events.DeviceInitFailed, events.DeviceLifecycle{Device: name, Error: err.Error()})
			errs = append(errs, errors.WrapErrorf(err, "initialize %s", name))
			continue
		}

		props := e.dev.Properties()
		h.mu.Lock()
		e.load(props)
		e.initialized = true
		h.mu.Unlock()

		h.logger.Info("host: device initialized", slog.String("device", name))
		h.publish(events.DeviceInitialized, events.DeviceLifecycle{Device: name})
	}
	return errors.Join(errs...)
}

// ShutdownAll shuts initialized devices down in reverse registration order.
func (h *Host) ShutdownAll() error {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	entries := h.snapshot()
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.initialized {
			continue
		}
		name := e.dev.Name()
		if err := e.dev.Shutdown(); err != nil {
			h.logger.Error("host: device shutdown failed", slog.String("device", name), "error", err)
			errs = append(errs, errors.WrapErrorf(err, "shutdown %s", name))
		}
		h.mu.Lock()
		e.initialized = false
		h.mu.Unlock()
		h.publish(events.DeviceShutdown, events.DeviceLifecycle{Device: name})
	}
	return errors.Join(errs...)
}

func (h *Host) snapshot() []*entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*entry, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.devices[name])
	}
	return out
}

func (h *Host) lookup(name, property string) (*entry, device.Property, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.devices[name]
	if !ok {
		return nil, device.Property{}, errors.NotFoundf("device %q", name)
	}
	p, ok := e.property(property)
	if !ok {
		return nil, device.Property{}, errors.NotFoundf("property %q of device %q", property, name)
	}
	return e, p, nil
}

// Get returns a property value, refreshing it through the device's read
// handler first when it has one.
func (h *Host) Get(name, property string) (string, error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	e, p, err := h.lookup(name, property)
	if err != nil {
		return "", err
	}
	if p.Read != nil {
		v, err := p.Read()
		if err != nil {
			return "", err
		}
		h.store(name, property, v, events.SourceRead)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return e.values[property], nil
}

// Value returns the stored value without calling the device.
func (h *Host) Value(name, property string) (string, error) {
	e, _, err := h.lookup(name, property)
	if err != nil {
		return "", err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return e.values[property], nil
}

// Set validates value and hands it to the device's write handler. The value
// is stored only once the handler accepts it; on failure the handler
// republishes the value it wants shown.
func (h *Host) Set(name, property, value string) error {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	_, p, err := h.lookup(name, property)
	if err != nil {
		return err
	}
	if p.ReadOnly {
		return errors.InvalidInputf("property %q of device %q is read-only", property, name)
	}
	if err := p.Validate(value); err != nil {
		return err
	}

	if p.Write != nil {
		if err := p.Write(value); err != nil {
			h.logger.Warn("host: property write failed",
				slog.String("device", name), slog.String("property", property), "error", err)
			return err
		}
	}
	h.store(name, property, value, events.SourceSet)
	h.logger.Debug("host: property set",
		slog.String("device", name), slog.String("property", property), slog.String("value", value))
	return nil
}

func (h *Host) shutter(name string) (device.Shutter, error) {
	dev, ok := h.Device(name)
	if !ok {
		return nil, errors.NotFoundf("device %q", name)
	}
	s, ok := dev.(device.Shutter)
	if !ok {
		return nil, errors.InvalidInputf("device %q is not a shutter", name)
	}
	return s, nil
}

// SetShutter opens or closes the named shutter device.
func (h *Host) SetShutter(name string, open bool) error {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	s, err := h.shutter(name)
	if err != nil {
		return err
	}
	return s.SetOpen(open)
}

// Shutter reports whether the named shutter device is open.
func (h *Host) Shutter(name string) (bool, error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	s, err := h.shutter(name)
	if err != nil {
		return false, err
	}
	return s.Open()
}

// Devices returns a snapshot of every device in registration order.
func (h *Host) Devices() []DeviceInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]DeviceInfo, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, describe(h.devices[name]))
	}
	return out
}

// Describe returns one device with its properties refreshed through their
// read handlers. Read failures leave the stored value in place.
func (h *Host) Describe(name string) (DeviceInfo, error) {
	h.callMu.Lock()
	h.mu.RLock()
	e, ok := h.devices[name]
	h.mu.RUnlock()
	if !ok {
		h.callMu.Unlock()
		return DeviceInfo{}, errors.NotFoundf("device %q", name)
	}
	for _, p := range e.props {
		if p.Read == nil {
			continue
		}
		v, err := p.Read()
		if err != nil {
			h.logger.Debug("host: read failed", slog.String("device", name),
				slog.String("property", p.Name), "error", err)
			continue
		}
		h.store(name, p.Name, v, events.SourceRead)
	}
	h.callMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	return describe(e), nil
}

func describe(e *entry) DeviceInfo {
	info := DeviceInfo{
		Name:        e.dev.Name(),
		Description: e.dev.Description(),
		Initialized: e.initialized,
		Properties:  make([]PropertyInfo, 0, len(e.props)),
	}
	_, info.Shutter = e.dev.(device.Shutter)
	for _, p := range e.props {
		pi := PropertyInfo{
			Name:     p.Name,
			Type:     p.Type.String(),
			ReadOnly: p.ReadOnly,
			Value:    e.values[p.Name],
			Allowed:  p.Allowed,
		}
		if p.Limits != nil {
			lo, hi := p.Limits.Min, p.Limits.Max
			pi.Min, pi.Max = &lo, &hi
		}
		info.Properties = append(info.Properties, pi)
	}
	return info
}
