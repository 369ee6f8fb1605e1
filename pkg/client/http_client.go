package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// StatusError is returned for HTTP error responses.
type StatusError struct {
	Code   int
	Detail string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP error %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("HTTP error %d: %s", e.Code, e.Body)
}

// HTTPClient represents an HTTP connection to chrolisd
type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

var _ ClientInterface = (*HTTPClient)(nil)

// NewHTTP creates a new HTTP client
func NewHTTP(logger *slog.Logger, baseURL string) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		logger:  logger,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the daemon URL requests are sent to.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// request performs an HTTP request and decodes the JSON response
func (c *HTTPClient) request(method, path string, body any, resp any) error {
	url := c.baseURL + path
	c.logger.Debug("HTTP request", "method", method, "url", url)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("HTTP request failed", "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		c.logger.Debug("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return newStatusError(httpResp.StatusCode, respBody)
	}

	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			c.logger.Debug("Failed to decode response", "error", err, "body", string(respBody))
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// newStatusError extracts the detail of a problem+json body when present.
func newStatusError(code int, body []byte) *StatusError {
	var problem struct {
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	e := &StatusError{Code: code, Body: strings.TrimSpace(string(body))}
	if json.Unmarshal(body, &problem) == nil {
		e.Detail = problem.Detail
		if len(problem.Errors) > 0 && problem.Errors[0].Message != "" {
			e.Detail += ": " + problem.Errors[0].Message
		}
	}
	return e
}

func devicePath(device string) string {
	return "/api/v1/devices/" + url.PathEscape(device)
}

// GetVersion returns the running daemon's version information.
func (c *HTTPClient) GetVersion() (Version, error) {
	var resp Version
	err := c.request(http.MethodGet, "/api/v1/version", nil, &resp)
	return resp, err
}

// GetDevices returns every loaded device.
func (c *HTTPClient) GetDevices() ([]Device, error) {
	var resp []Device
	if err := c.request(http.MethodGet, "/api/v1/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetDevice returns one device.
func (c *HTTPClient) GetDevice(name string) (Device, error) {
	var resp Device
	err := c.request(http.MethodGet, devicePath(name), nil, &resp)
	return resp, err
}

type propertyValue struct {
	Device   string `json:"device"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// GetProperty reads a property through the device.
func (c *HTTPClient) GetProperty(device, property string) (string, error) {
	var resp propertyValue
	err := c.request(http.MethodGet, devicePath(device)+"/properties/"+url.PathEscape(property), nil, &resp)
	return resp.Value, err
}

// SetProperty writes a property and returns the value the device settled on.
func (c *HTTPClient) SetProperty(device, property, value string) (string, error) {
	var resp propertyValue
	body := map[string]string{"value": value}
	err := c.request(http.MethodPut, devicePath(device)+"/properties/"+url.PathEscape(property), body, &resp)
	return resp.Value, err
}

type shutterState struct {
	Device string `json:"device"`
	Open   bool   `json:"open"`
}

// GetShutter reports whether a shutter is open.
func (c *HTTPClient) GetShutter(device string) (bool, error) {
	var resp shutterState
	err := c.request(http.MethodGet, devicePath(device)+"/shutter", nil, &resp)
	return resp.Open, err
}

// SetShutter opens or closes a shutter.
func (c *HTTPClient) SetShutter(device string, open bool) error {
	return c.request(http.MethodPut, devicePath(device)+"/shutter", map[string]bool{"open": open}, nil)
}

// GetStatus returns the hub status.
func (c *HTTPClient) GetStatus() (HubStatus, error) {
	var resp HubStatus
	err := c.request(http.MethodGet, "/api/v1/status", nil, &resp)
	return resp, err
}

type logLevel struct {
	Level string `json:"level"`
}

// GetLogLevel returns the daemon's log level.
func (c *HTTPClient) GetLogLevel() (string, error) {
	var resp logLevel
	err := c.request(http.MethodGet, "/api/v1/logging/level", nil, &resp)
	return resp.Level, err
}

// SetLogLevel changes the daemon's log level.
func (c *HTTPClient) SetLogLevel(level string) (string, error) {
	var resp logLevel
	err := c.request(http.MethodPut, "/api/v1/logging/level", logLevel{Level: level}, &resp)
	return resp.Level, err
}

// wsURL derives the WebSocket endpoint from the base URL.
func (c *HTTPClient) wsURL(filter WatchFilter) (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/ws")
	if err != nil {
		return "", fmt.Errorf("invalid daemon URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := url.Values{}
	for _, d := range filter.Devices {
		q.Add("device", d)
	}
	for _, t := range filter.Types {
		q.Add("type", t)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Watch streams events to fn until ctx is cancelled, the connection drops
// or fn returns an error. A cancelled ctx returns nil.
func (c *HTTPClient) Watch(ctx context.Context, filter WatchFilter, fn func(Event) error) error {
	endpoint, err := c.wsURL(filter)
	if err != nil {
		return err
	}
	c.logger.Debug("WebSocket dial", "url", endpoint)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("WebSocket dial failed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("WebSocket read failed: %w", err)
		}
		var evt Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			c.logger.Debug("Skipping undecodable event", "error", err)
			continue
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}
