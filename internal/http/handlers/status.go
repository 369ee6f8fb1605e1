package handlers

import (
	"context"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/chrolis"
)

// HubStatusInput is the input for the hub status endpoint.
type HubStatusInput struct{}

// HubStatusOutput is the output for the hub status endpoint.
type HubStatusOutput struct {
	Body struct {
		Device     string   `json:"device" doc:"Hub device name"`
		State      string   `json:"state" doc:"Polling state (idle, polling, stopping)"`
		Connected  bool     `json:"connected" doc:"Whether the instrument connection is open"`
		StatusCode uint32   `json:"status_code" doc:"Last raw status word read from the instrument"`
		Message    string   `json:"message" doc:"Published status message"`
		Flags      []string `json:"flags" doc:"Status flags set in the raw status word"`
		PollError  string   `json:"poll_error,omitempty" doc:"Error that stopped polling, if any"`
	}
}

// StatusHandler reports the hub's polling and instrument status.
type StatusHandler struct {
	Hub chrolis.HubFunc
}

// HubStatus returns a snapshot of the hub.
func (h *StatusHandler) HubStatus(_ context.Context, _ *HubStatusInput) (*HubStatusOutput, error) {
	var hub *chrolis.Hub
	if h.Hub != nil {
		hub = h.Hub()
	}
	if hub == nil {
		return nil, apiError(errors.HubUnavailablef("%s is not loaded", chrolis.HubDeviceName))
	}

	code := hub.StatusCode()
	out := &HubStatusOutput{}
	out.Body.Device = hub.Name()
	out.Body.State = hub.State().String()
	out.Body.Connected = hub.Connected()
	out.Body.StatusCode = uint32(code)
	out.Body.Message = hub.StatusMessage()
	out.Body.Flags = []string{}
	for _, f := range code.Flags() {
		out.Body.Flags = append(out.Body.Flags, f.String())
	}
	if err := hub.PollErr(); err != nil {
		out.Body.PollError = err.Error()
	}
	return out, nil
}

// Ensure StatusHandler implements the interface at compile time.
var _ StatusHandlers = (*StatusHandler)(nil)

// StatusHandlers defines the interface for hub status operations.
type StatusHandlers interface {
	HubStatus(ctx context.Context, input *HubStatusInput) (*HubStatusOutput, error)
}
