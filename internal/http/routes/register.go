package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/chrolisd/internal/http/mw"
)

// WebSocketPath is served as a raw Chi route by the server; it is not a
// Huma operation.
const WebSocketPath = "/api/v1/ws"

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or stub implementations
// for OpenAPI generation.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithDescription("Returns service health status."),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.HealthCheck)

	// --- Version ---
	mw.PublicGet(api, "/api/v1/version", h.VersionCheck,
		mw.WithTags("Version"),
		mw.WithSummary("Daemon version"),
		mw.WithDescription("Returns the running daemon's version, commit, and build date."),
		mw.WithOperationID("getVersion"))

	// --- Devices ---
	mw.PublicGet(api, "/api/v1/devices", h.Device.ListDevices,
		mw.WithTags("Devices"),
		mw.WithSummary("List all devices"),
		mw.WithDescription("Returns every loaded device with its stored property values, in load order."),
		mw.WithOperationID("listDevices"))

	mw.PublicGet(api, "/api/v1/devices/{device}", h.Device.GetDevice,
		mw.WithTags("Devices"),
		mw.WithSummary("Get a device"),
		mw.WithDescription("Returns one device. Properties with a read handler are refreshed from the instrument first."),
		mw.WithOperationID("getDevice"))

	mw.PublicGet(api, "/api/v1/devices/{device}/properties/{property}", h.Device.GetProperty,
		mw.WithTags("Devices"),
		mw.WithSummary("Read a property"),
		mw.WithOperationID("getProperty"))

	mw.PublicPut(api, "/api/v1/devices/{device}/properties/{property}", h.Device.SetProperty,
		mw.WithTags("Devices"),
		mw.WithSummary("Write a property"),
		mw.WithDescription("Validates the value against the property's type and limits, then applies it. Returns the value the device settled on."),
		mw.WithOperationID("setProperty"))

	// --- Shutter ---
	mw.PublicGet(api, "/api/v1/devices/{device}/shutter", h.Device.GetShutter,
		mw.WithTags("Shutter"),
		mw.WithSummary("Read shutter state"),
		mw.WithOperationID("getShutter"))

	mw.PublicPut(api, "/api/v1/devices/{device}/shutter", h.Device.SetShutter,
		mw.WithTags("Shutter"),
		mw.WithSummary("Open or close a shutter"),
		mw.WithOperationID("setShutter"))

	// --- Status ---
	mw.PublicGet(api, "/api/v1/status", h.Status.HubStatus,
		mw.WithTags("Status"),
		mw.WithSummary("Hub status"),
		mw.WithDescription("Returns the polling state, connection, raw status word and published status message of the instrument hub."),
		mw.WithOperationID("getStatus"))

	// --- Logging ---
	mw.PublicGet(api, "/api/v1/logging/level", h.Logging.GetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Get global log level"),
		mw.WithOperationID("getLogLevel"))

	mw.PublicPut(api, "/api/v1/logging/level", h.Logging.SetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Set global log level"),
		mw.WithDescription("Changes the global log level at runtime. Valid values: debug, info, warn, error."),
		mw.WithOperationID("setLogLevel"))
}
