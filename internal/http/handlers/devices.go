package handlers

import (
	"context"

	"github.com/jmylchreest/chrolisd/internal/host"
)

// DeviceHost is the subset of host.Host the device handlers need.
type DeviceHost interface {
	Devices() []host.DeviceInfo
	Describe(name string) (host.DeviceInfo, error)
	Get(name, property string) (string, error)
	Set(name, property, value string) error
	Shutter(name string) (bool, error)
	SetShutter(name string, open bool) error
}

var _ DeviceHost = (*host.Host)(nil)

// --- List Devices ---

// ListDevicesInput is the input for listing all devices.
type ListDevicesInput struct{}

// ListDevicesOutput is the output for listing all devices.
type ListDevicesOutput struct {
	Body []DeviceResponse
}

// --- Get Device ---

// GetDeviceInput is the input for getting a single device.
type GetDeviceInput struct {
	Device string `path:"device" doc:"Device name"`
}

// GetDeviceOutput is the output for getting a single device.
type GetDeviceOutput struct {
	Body DeviceResponse
}

// --- Properties ---

// PropertyValue is a single property value.
type PropertyValue struct {
	Device   string `json:"device" doc:"Device name"`
	Property string `json:"property" doc:"Property name"`
	Value    string `json:"value" doc:"Property value"`
}

// GetPropertyInput is the input for reading a property.
type GetPropertyInput struct {
	Device   string `path:"device" doc:"Device name"`
	Property string `path:"property" doc:"Property name"`
}

// GetPropertyOutput is the output for reading a property.
type GetPropertyOutput struct {
	Body PropertyValue
}

// SetPropertyInput is the input for writing a property.
type SetPropertyInput struct {
	Device   string `path:"device" doc:"Device name"`
	Property string `path:"property" doc:"Property name"`
	Body     struct {
		Value string `json:"value" doc:"New value, as text"`
	}
}

// SetPropertyOutput is the output for writing a property.
type SetPropertyOutput struct {
	Body PropertyValue
}

// --- Shutter ---

// ShutterState is the open/closed state of a shutter device.
type ShutterState struct {
	Device string `json:"device" doc:"Shutter device name"`
	Open   bool   `json:"open" doc:"Whether the shutter is open"`
}

// GetShutterInput is the input for reading a shutter.
type GetShutterInput struct {
	Device string `path:"device" doc:"Shutter device name"`
}

// GetShutterOutput is the output for reading a shutter.
type GetShutterOutput struct {
	Body ShutterState
}

// SetShutterInput is the input for opening or closing a shutter.
type SetShutterInput struct {
	Device string `path:"device" doc:"Shutter device name"`
	Body   struct {
		Open bool `json:"open" doc:"Open (true) or close (false) the shutter"`
	}
}

// SetShutterOutput is the output for opening or closing a shutter.
type SetShutterOutput struct {
	Body ShutterState
}

// DeviceHandler implements device-related HTTP handlers.
type DeviceHandler struct {
	Host DeviceHost
}

// ListDevices returns every loaded device with its stored property values.
func (h *DeviceHandler) ListDevices(_ context.Context, _ *ListDevicesInput) (*ListDevicesOutput, error) {
	return &ListDevicesOutput{Body: DevicesFromHost(h.Host.Devices())}, nil
}

// GetDevice returns one device with its properties refreshed from the device.
func (h *DeviceHandler) GetDevice(_ context.Context, input *GetDeviceInput) (*GetDeviceOutput, error) {
	info, err := h.Host.Describe(input.Device)
	if err != nil {
		return nil, apiError(err)
	}
	return &GetDeviceOutput{Body: DeviceFromHost(info)}, nil
}

// GetProperty reads a single property value.
func (h *DeviceHandler) GetProperty(_ context.Context, input *GetPropertyInput) (*GetPropertyOutput, error) {
	v, err := h.Host.Get(input.Device, input.Property)
	if err != nil {
		return nil, apiError(err)
	}
	return &GetPropertyOutput{Body: PropertyValue{
		Device:   input.Device,
		Property: input.Property,
		Value:    v,
	}}, nil
}

// SetProperty writes a single property value and returns the value the
// device settled on.
func (h *DeviceHandler) SetProperty(_ context.Context, input *SetPropertyInput) (*SetPropertyOutput, error) {
	if err := h.Host.Set(input.Device, input.Property, input.Body.Value); err != nil {
		return nil, apiError(err)
	}
	v, err := h.Host.Get(input.Device, input.Property)
	if err != nil {
		return nil, apiError(err)
	}
	return &SetPropertyOutput{Body: PropertyValue{
		Device:   input.Device,
		Property: input.Property,
		Value:    v,
	}}, nil
}

// GetShutter reports whether a shutter is open.
func (h *DeviceHandler) GetShutter(_ context.Context, input *GetShutterInput) (*GetShutterOutput, error) {
	open, err := h.Host.Shutter(input.Device)
	if err != nil {
		return nil, apiError(err)
	}
	return &GetShutterOutput{Body: ShutterState{Device: input.Device, Open: open}}, nil
}

// SetShutter opens or closes a shutter.
func (h *DeviceHandler) SetShutter(_ context.Context, input *SetShutterInput) (*SetShutterOutput, error) {
	if err := h.Host.SetShutter(input.Device, input.Body.Open); err != nil {
		return nil, apiError(err)
	}
	return &SetShutterOutput{Body: ShutterState{Device: input.Device, Open: input.Body.Open}}, nil
}

// Ensure DeviceHandler implements the interface at compile time.
var _ DeviceHandlers = (*DeviceHandler)(nil)

// DeviceHandlers defines the interface for device operations.
type DeviceHandlers interface {
	ListDevices(ctx context.Context, input *ListDevicesInput) (*ListDevicesOutput, error)
	GetDevice(ctx context.Context, input *GetDeviceInput) (*GetDeviceOutput, error)
	GetProperty(ctx context.Context, input *GetPropertyInput) (*GetPropertyOutput, error)
	SetProperty(ctx context.Context, input *SetPropertyInput) (*SetPropertyOutput, error)
	GetShutter(ctx context.Context, input *GetShutterInput) (*GetShutterOutput, error)
	SetShutter(ctx context.Context, input *SetShutterInput) (*SetShutterOutput, error)
}
