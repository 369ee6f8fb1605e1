// Package handlers provides typed Huma request/response structs and handler
// implementations for the chrolisd HTTP API.
package handlers

import (
	"github.com/jmylchreest/chrolisd/internal/host"
)

// --- Device types ---

// PropertyResponse is the API representation of a device property.
type PropertyResponse struct {
	Name     string   `json:"name" doc:"Property name"`
	Type     string   `json:"type" doc:"Value type (string or integer)"`
	ReadOnly bool     `json:"read_only" doc:"Whether the property rejects writes"`
	Value    string   `json:"value" doc:"Current value"`
	Min      *int64   `json:"min,omitempty" doc:"Lower limit for integer properties"`
	Max      *int64   `json:"max,omitempty" doc:"Upper limit for integer properties"`
	Allowed  []string `json:"allowed,omitempty" doc:"Permitted values, when restricted"`
}

// DeviceResponse is the API representation of a loaded device.
type DeviceResponse struct {
	Name        string             `json:"name" doc:"Device name"`
	Description string             `json:"description" doc:"Human readable description"`
	Initialized bool               `json:"initialized" doc:"Whether the device initialised successfully"`
	Shutter     bool               `json:"shutter" doc:"Whether the device is a shutter"`
	Properties  []PropertyResponse `json:"properties" doc:"Device properties in declaration order"`
}

// PropertyFromHost converts a host.PropertyInfo to a PropertyResponse.
func PropertyFromHost(p host.PropertyInfo) PropertyResponse {
	return PropertyResponse{
		Name:     p.Name,
		Type:     p.Type,
		ReadOnly: p.ReadOnly,
		Value:    p.Value,
		Min:      p.Min,
		Max:      p.Max,
		Allowed:  p.Allowed,
	}
}

// DeviceFromHost converts a host.DeviceInfo to a DeviceResponse.
func DeviceFromHost(d host.DeviceInfo) DeviceResponse {
	props := make([]PropertyResponse, len(d.Properties))
	for i, p := range d.Properties {
		props[i] = PropertyFromHost(p)
	}
	return DeviceResponse{
		Name:        d.Name,
		Description: d.Description,
		Initialized: d.Initialized,
		Shutter:     d.Shutter,
		Properties:  props,
	}
}

// DevicesFromHost converts a slice of host.DeviceInfo to DeviceResponses.
func DevicesFromHost(devices []host.DeviceInfo) []DeviceResponse {
	result := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		result[i] = DeviceFromHost(d)
	}
	return result
}

// --- Common response types ---

// StatusResponse is a simple status response.
type StatusResponse struct {
	Status string `json:"status" doc:"Operation status"`
}
