// Package routes provides shared route registration for the chrolisd HTTP API.
// Both the main server and the OpenAPI generator use the same route definitions,
// ensuring the OpenAPI document is always in sync with the implementation.
package routes

import (
	"github.com/danielgtaylor/huma/v2"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("chrolisd API", version)
	cfg.Info.Description = "REST API for the CHROLIS six-channel LED source hosted by the chrolisd daemon."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Devices", Description: "Loaded devices and their properties"},
		{Name: "Shutter", Description: "Shutter control"},
		{Name: "Status", Description: "Instrument hub status"},
		{Name: "Logging", Description: "Runtime log level"},
	}

	return cfg
}
