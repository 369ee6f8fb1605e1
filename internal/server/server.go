// Package server wires the device host, the HTTP and WebSocket APIs, the
// MQTT bridge and DNS-SD advertisement into the chrolisd daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/discovery"
	"github.com/jmylchreest/chrolisd/internal/events"
	"github.com/jmylchreest/chrolisd/internal/host"
	"github.com/jmylchreest/chrolisd/internal/http/handlers"
	"github.com/jmylchreest/chrolisd/internal/http/mw"
	"github.com/jmylchreest/chrolisd/internal/http/routes"
	"github.com/jmylchreest/chrolisd/internal/mqtt"
	"github.com/jmylchreest/chrolisd/internal/utils"
	"github.com/jmylchreest/chrolisd/internal/ws"
	"github.com/jmylchreest/chrolisd/pkg/chrolis"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Server manages the chrolisd daemon.
type Server struct {
	logger  *slog.Logger
	cfg     *config.Config
	build   BuildInfo
	bus     *events.Bus
	host    *host.Host
	devices chrolis.Devices

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	listener   net.Listener
	httpServer *http.Server
	wsHub      *ws.Hub
	bridge     *mqtt.Bridge
	advertiser *discovery.Advertiser
	stopOnce   sync.Once
}

// New creates a server around driver and registers the CHROLIS devices.
func New(logger *slog.Logger, cfg *config.Config, driver chrolis.Driver, build BuildInfo) (*Server, error) {
	bus := events.NewBus()
	h := host.New(logger, bus)
	devs := chrolis.NewDevices(logger, driver, h, chrolis.HubOptions{
		SerialNumber: cfg.Device.SerialNumber,
		PollInterval: cfg.Device.Poll(),
	})
	for _, d := range devs.All() {
		if err := h.Register(d); err != nil {
			return nil, fmt.Errorf("register %s: %w", d.Name(), err)
		}
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		cfg:        cfg,
		build:      build,
		bus:        bus,
		host:       h,
		devices:    devs,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}, nil
}

// Host returns the device host.
func (s *Server) Host() *host.Host { return s.host }

// Bus returns the event bus.
func (s *Server) Bus() *events.Bus { return s.bus }

// Addr returns the bound HTTP address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler builds the HTTP API: chi middleware, the huma routes and the
// WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(mw.RequestLogging(s.logger))
	router.Use(mw.RateLimitByIP(mw.RateLimitConfig{RequestsPerMinute: s.cfg.API.RateLimit}))

	api := humachi.New(router, routes.NewHumaConfig(s.build.Version, ""))
	routes.Register(api, &routes.Handlers{
		HealthCheck:  handlers.HealthCheck,
		VersionCheck: handlers.VersionCheck(s.build.Version, s.build.Commit, s.build.BuildDate),
		Device:       &handlers.DeviceHandler{Host: s.host},
		Status:       &handlers.StatusHandler{Hub: chrolis.StaticHub(s.devices.Hub)},
		Logging:      &handlers.LoggingHandler{Logger: s.logger},
	})

	wsHub := ws.NewHub(s.logger, s.bus)
	s.wsHub = wsHub
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in WebSocket hub", "recover", r)
			}
		}()
		wsHub.Run(s.rootCtx)
	}()
	router.Get(routes.WebSocketPath, ws.Handler(s.rootCtx, wsHub, s.logger))

	return router
}

// Start initializes the devices and starts the network services. A device
// that fails to initialize is logged and left uninitialized; the API still
// comes up so the failure can be inspected.
func (s *Server) Start() error {
	s.logger.Info("Starting chrolisd server")

	if err := s.host.InitializeAll(s.rootCtx); err != nil {
		s.logger.Warn("Some devices failed to initialize", "error", err)
	}

	if s.cfg.Path() != "" {
		s.cfg.Watch(s.reload)
	}

	if s.cfg.MQTT.Enabled {
		bridge, err := mqtt.New(s.logger, s.cfg.MQTT, s.bus, s.host)
		if err != nil {
			return fmt.Errorf("mqtt bridge: %w", err)
		}
		s.bridge = bridge
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := bridge.Start(s.rootCtx); err != nil {
				s.logger.Error("MQTT bridge failed to start", "error", err)
			}
		}()
	}

	if s.cfg.API.ListenAddress == "" {
		return nil
	}

	listener, err := net.Listen("tcp", s.cfg.API.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.API.ListenAddress, err)
	}
	s.listener = listener
	s.logger.Info("Starting HTTP API server", "address", listener.Addr().String())

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in HTTP server goroutine", "recover", r)
			}
		}()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	}()

	if s.cfg.API.Advertise {
		s.advertise(listener.Addr())
	}
	return nil
}

func (s *Server) advertise(addr net.Addr) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return
	}
	serial, _ := s.host.Value(chrolis.HubDeviceName, chrolis.PropertySerialNumber)
	adv, err := discovery.Advertise(s.logger, discovery.Info{
		Port:    tcp.Port,
		Version: s.build.Version,
		Serial:  serial,
	})
	if err != nil {
		s.logger.Warn("DNS-SD advertisement failed", "error", err)
		return
	}
	s.advertiser = adv
}

// reload applies the settings that can change without a restart.
func (s *Server) reload(next *config.Config) {
	level := utils.ValidateLogLevel(next.Logging.Level)
	utils.SetLevel(level)
	s.logger.Info("Log level reloaded", "level", level)
}

// Stop gracefully shuts down the server. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	s.logger.Info("Shutting down chrolisd server")
	if s.bridge != nil {
		s.bridge.Stop()
	}
	s.rootCancel()

	s.advertiser.Shutdown()

	if s.httpServer != nil {
		s.logger.Info("Shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	s.logger.Info("Waiting for services to stop...")
	s.wg.Wait()

	if err := s.host.ShutdownAll(); err != nil {
		s.logger.Error("Device shutdown failed", "error", err)
	}
	s.logger.Info("chrolisd server shut down gracefully")
}
