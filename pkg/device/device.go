// Package device defines the contract between the host framework and the
// devices it loads. A device publishes named properties; the host calls a
// property's Read before serving a value and its Write after storing a new
// one, and devices report asynchronous changes through a Notifier.
package device

import (
	"context"
	"slices"
	"strconv"

	"github.com/jmylchreest/chrolisd/internal/errors"
)

// PropertyType is the value type of a property.
type PropertyType int

const (
	String PropertyType = iota
	Integer
)

func (t PropertyType) String() string {
	switch t {
	case Integer:
		return "integer"
	default:
		return "string"
	}
}

// Limits bounds an integer property. Enforced by the host before Write.
type Limits struct {
	Min int64
	Max int64
}

// Contains reports whether v lies within the limits
func (l Limits) Contains(v int64) bool {
	return v >= l.Min && v <= l.Max
}

// Property describes one addressable device property.
type Property struct {
	Name     string
	Type     PropertyType
	ReadOnly bool
	Initial  string

	// Limits applies to Integer properties only
	Limits *Limits

	// Allowed restricts the property to a fixed set of values when non-empty
	Allowed []string

	// Read refreshes the value before the host serves it. nil means the
	// stored value is served as-is.
	Read func() (string, error)

	// Write applies a value the host has already stored and validated.
	Write func(value string) error
}

// Validate checks value against the property's type, limits and allowed
// set. Limit violations wrap errors.ErrOutOfRange, everything else
// errors.ErrInvalidInput.
func (p Property) Validate(value string) error {
	if p.Type == Integer {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.InvalidInputf("property %q expects an integer, got %q", p.Name, value)
		}
		if p.Limits != nil && !p.Limits.Contains(v) {
			return errors.OutOfRangef("property %q must be between %d and %d, got %d",
				p.Name, p.Limits.Min, p.Limits.Max, v)
		}
	}
	if len(p.Allowed) > 0 && !slices.Contains(p.Allowed, value) {
		return errors.InvalidInputf("property %q does not allow value %q", p.Name, value)
	}
	return nil
}

// Notifier receives property-change notifications from a device.
type Notifier interface {
	Notify(property, value string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(property, value string)

// Notify calls f(property, value)
func (f NotifierFunc) Notify(property, value string) {
	f(property, value)
}

// Device is a unit the host can load, initialise and shut down.
type Device interface {
	Name() string
	Description() string
	Initialize(ctx context.Context) error
	Shutdown() error
	Properties() []Property
}

// Shutter is a device that gates light output.
type Shutter interface {
	Device
	SetOpen(open bool) error
	Open() (bool, error)
}

// Locator resolves a loaded device by name.
type Locator interface {
	Device(name string) (Device, bool)
}
