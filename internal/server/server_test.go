package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chrolisd/internal/config"
	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/internal/events"
	"github.com/jmylchreest/chrolisd/internal/http/routes"
	"github.com/jmylchreest/chrolisd/internal/utils"
	"github.com/jmylchreest/chrolisd/pkg/chrolis"
	"github.com/jmylchreest/chrolisd/pkg/chrolis/simulator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.New(viper.New())
	cfg.API.ListenAddress = "127.0.0.1:0"
	cfg.Device.PollInterval = 3600000
	return cfg
}

// startServer starts a server on a random port and returns its base URL.
func startServer(t *testing.T, cfg *config.Config) (*Server, *simulator.Simulator, string) {
	t.Helper()
	sim := simulator.New(simulator.DefaultOptions())
	s, err := New(testLogger(), cfg, sim, BuildInfo{Version: "1.2.3", Commit: "abc", BuildDate: "today"})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	require.NotNil(t, s.Addr())
	return s, sim, "http://" + s.Addr().String()
}

func doJSON(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	code, raw := doRaw(t, method, url, body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return code, out
}

func doRaw(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestNewDriver(t *testing.T) {
	d, err := NewDriver(config.DeviceConfig{Driver: config.DriverSimulator})
	require.NoError(t, err)
	serials, err := d.AvailableSerialNumbers()
	require.NoError(t, err)
	assert.Equal(t, simulator.DefaultOptions().Serials, serials)

	d, err = NewDriver(config.DeviceConfig{SerialNumber: "M00042"})
	require.NoError(t, err)
	serials, err = d.AvailableSerialNumbers()
	require.NoError(t, err)
	assert.Equal(t, []string{"M00042"}, serials)

	_, err = NewDriver(config.DeviceConfig{Driver: "usb"})
	assert.True(t, errors.IsInvalidInput(err))
}

func TestServerStartStop(t *testing.T) {
	s, _, base := startServer(t, testConfig())

	code, body := doJSON(t, http.MethodGet, base+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = doJSON(t, http.MethodGet, base+"/api/v1/version", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", body["version"])

	code, raw := doRaw(t, http.MethodGet, base+"/api/v1/devices", "")
	assert.Equal(t, http.StatusOK, code)
	var devices []map[string]any
	require.NoError(t, json.Unmarshal(raw, &devices))
	require.Len(t, devices, 3)
	assert.Equal(t, chrolis.HubDeviceName, devices[0]["name"])

	s.Stop()
	s.Stop()

	_, err := http.Get(base + "/api/v1/health")
	assert.Error(t, err)
}

func TestServerSetState(t *testing.T) {
	s, sim, base := startServer(t, testConfig())

	url := base + "/api/v1/devices/" + chrolis.StateDeviceName + "/properties/State"
	code, body := doJSON(t, http.MethodPut, url, `{"value":"9"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "9", body["value"])

	states, err := sim.EnableStates()
	require.NoError(t, err)
	assert.Equal(t, chrolis.EnableVector{true, false, false, true, false, false}, states)

	v, err := s.Host().Value(chrolis.StateDeviceName, chrolis.EnableStateProperty(3))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestServerHubStatus(t *testing.T) {
	_, _, base := startServer(t, testConfig())

	code, body := doJSON(t, http.MethodGet, base+"/api/v1/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, chrolis.HubDeviceName, body["device"])
	assert.Equal(t, true, body["connected"])
}

func TestServerWebSocket(t *testing.T) {
	s, _, base := startServer(t, testConfig())

	wsURL := "ws" + strings.TrimPrefix(base, "http") + routes.WebSocketPath +
		"?device=" + chrolis.ShutterDeviceName
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.wsHub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	// a change on another device is filtered out
	code, _ := doJSON(t, http.MethodPut, base+"/api/v1/devices/"+chrolis.StateDeviceName+"/properties/State", `{"value":"1"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, http.MethodPut, base+"/api/v1/devices/"+chrolis.ShutterDeviceName+"/properties/Shutter%20Open", `{"value":"1"}`)
	require.Equal(t, http.StatusOK, code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt events.Event
	require.NoError(t, json.Unmarshal(msg, &evt))
	assert.Equal(t, events.PropertyChanged, evt.Type)
	assert.Equal(t, chrolis.ShutterDeviceName, evt.Device())

	var change events.PropertyChange
	require.NoError(t, json.Unmarshal(evt.Data, &change))
	assert.Equal(t, chrolis.PropertyShutterOpen, change.Property)
	assert.Equal(t, "1", change.Value)
}

func TestServerInitFailureKeepsAPI(t *testing.T) {
	cfg := testConfig()
	cfg.Device.SerialNumber = "missing"
	_, _, base := startServer(t, cfg)

	code, _ := doJSON(t, http.MethodGet, base+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, http.MethodPut, base+"/api/v1/devices/"+chrolis.StateDeviceName+"/properties/State", `{"value":"1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestServerListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.API.ListenAddress = busy.Addr().String()
	s, err := New(testLogger(), cfg, simulator.New(simulator.Options{}), BuildInfo{})
	require.NoError(t, err)
	defer s.Stop()
	assert.Error(t, s.Start())
	assert.Nil(t, s.Addr())
}

func TestServerNoHTTP(t *testing.T) {
	cfg := testConfig()
	cfg.API.ListenAddress = ""
	s, err := New(testLogger(), cfg, simulator.New(simulator.Options{}), BuildInfo{})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Nil(t, s.Addr())
	s.Stop()
}

func TestServerReloadsLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrolisd.yaml")
	write := func(level string) {
		doc := fmt.Sprintf("api:\n  listen_address: \"127.0.0.1:0\"\nlogging:\n  level: %s\n", level)
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	}
	write("info")
	cfg, err := config.Load("chrolisd.yaml", path)
	require.NoError(t, err)

	utils.SetLevel("info")
	t.Cleanup(func() { utils.SetLevel("info") })
	startServer(t, cfg)

	require.Eventually(t, func() bool {
		write("debug")
		return utils.Level() == slog.LevelDebug
	}, 5*time.Second, 50*time.Millisecond)
}
