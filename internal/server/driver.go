package server

import (
	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/chrolis"
	"github.com/jmylchreest/chrolisd/pkg/chrolis/simulator"
)

// NewDriver returns the instrument driver named by the device config.
func NewDriver(cfg config.DeviceConfig) (chrolis.Driver, error) {
	switch cfg.Driver {
	case "", config.DriverSimulator:
		opts := simulator.DefaultOptions()
		if cfg.SerialNumber != "" {
			opts.Serials = []string{cfg.SerialNumber}
		}
		return simulator.New(opts), nil
	default:
		return nil, errors.InvalidInputf("unknown device driver %q", cfg.Driver)
	}
}
