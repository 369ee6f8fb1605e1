// Package client talks to a running chrolisd over its HTTP and WebSocket
// API.
package client

import (
	"context"
	"encoding/json"
	"time"
)

// ClientInterface defines the methods for interacting with chrolisd.
// Used for testability and mocking in the CLI.
type ClientInterface interface {
	GetVersion() (Version, error)
	GetDevices() ([]Device, error)
	GetDevice(name string) (Device, error)
	GetProperty(device, property string) (string, error)
	SetProperty(device, property, value string) (string, error)
	GetShutter(device string) (bool, error)
	SetShutter(device string, open bool) error
	GetStatus() (HubStatus, error)
	GetLogLevel() (string, error)
	SetLogLevel(level string) (string, error)
	Watch(ctx context.Context, filter WatchFilter, fn func(Event) error) error
}

// Version is the daemon's build information.
type Version struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Property is one device property with its current value.
type Property struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	ReadOnly bool     `json:"read_only"`
	Value    string   `json:"value"`
	Min      *int64   `json:"min,omitempty"`
	Max      *int64   `json:"max,omitempty"`
	Allowed  []string `json:"allowed,omitempty"`
}

// Device is a loaded device.
type Device struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Initialized bool       `json:"initialized"`
	Shutter     bool       `json:"shutter"`
	Properties  []Property `json:"properties"`
}

// Property returns the named property.
func (d Device) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// HubStatus is the hub's polling and instrument status.
type HubStatus struct {
	Device     string   `json:"device"`
	State      string   `json:"state"`
	Connected  bool     `json:"connected"`
	StatusCode uint32   `json:"status_code"`
	Message    string   `json:"message"`
	Flags      []string `json:"flags"`
	PollError  string   `json:"poll_error,omitempty"`
}

// WatchFilter narrows the events streamed by Watch. Empty fields match
// everything.
type WatchFilter struct {
	Devices []string
	Types   []string
}

// Event is one event received from the daemon.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// PropertyChange is the payload of a property.changed event.
type PropertyChange struct {
	Device   string `json:"device"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Source   string `json:"source"`
}

// PropertyChange decodes the event payload as a property change.
func (e Event) PropertyChange() (PropertyChange, bool) {
	if e.Type != "property.changed" {
		return PropertyChange{}, false
	}
	var pc PropertyChange
	if err := json.Unmarshal(e.Data, &pc); err != nil {
		return PropertyChange{}, false
	}
	return pc, true
}
