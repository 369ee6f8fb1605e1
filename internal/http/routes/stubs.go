package routes

import (
	"context"

	"github.com/jmylchreest/chrolisd/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses; these are only used for OpenAPI generation
// where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: func(_ context.Context, _ *handlers.HealthInput) (*handlers.HealthOutput, error) {
			return nil, nil
		},
		VersionCheck: func(_ context.Context, _ *handlers.VersionInput) (*handlers.VersionOutput, error) {
			return nil, nil
		},
		Device:  &stubDeviceHandlers{},
		Status:  &stubStatusHandlers{},
		Logging: &stubLoggingHandlers{},
	}
}

// --- Device stubs ---

type stubDeviceHandlers struct{}

func (s *stubDeviceHandlers) ListDevices(_ context.Context, _ *handlers.ListDevicesInput) (*handlers.ListDevicesOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) GetDevice(_ context.Context, _ *handlers.GetDeviceInput) (*handlers.GetDeviceOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) GetProperty(_ context.Context, _ *handlers.GetPropertyInput) (*handlers.GetPropertyOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) SetProperty(_ context.Context, _ *handlers.SetPropertyInput) (*handlers.SetPropertyOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) GetShutter(_ context.Context, _ *handlers.GetShutterInput) (*handlers.GetShutterOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) SetShutter(_ context.Context, _ *handlers.SetShutterInput) (*handlers.SetShutterOutput, error) {
	return nil, nil
}

// --- Status stubs ---

type stubStatusHandlers struct{}

func (s *stubStatusHandlers) HubStatus(_ context.Context, _ *handlers.HubStatusInput) (*handlers.HubStatusOutput, error) {
	return nil, nil
}

// --- Logging stubs ---

type stubLoggingHandlers struct{}

func (s *stubLoggingHandlers) GetLevel(_ context.Context, _ *handlers.GetLevelInput) (*handlers.GetLevelOutput, error) {
	return nil, nil
}

func (s *stubLoggingHandlers) SetLevel(_ context.Context, _ *handlers.SetLevelInput) (*handlers.SetLevelOutput, error) {
	return nil, nil
}
