package chrolis

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/chrolisd/internal/errors"
)

// fakeDriver is a scriptable in-memory Driver.
type fakeDriver struct {
	mu sync.Mutex

	serials   []string
	connected bool
	connectTo string

	status    StatusBits
	statusErr error

	states     EnableVector
	brightness BrightnessVector
	shutter    bool

	connectErr   error
	serialErr    error
	wlErr        error
	writeErr     error
	readErr      error
	statusReads  int
	enableReads  int
	disconnects  int
	shutterCalls int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{serials: []string{"M00001"}}
}

func (f *fakeDriver) AvailableSerialNumbers() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.serials...), nil
}

func (f *fakeDriver) Connect(ctx context.Context, serial string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	f.connectTo = serial
	return nil
}

func (f *fakeDriver) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
	return nil
}

func (f *fakeDriver) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeDriver) check() error {
	if !f.connected {
		return errors.ErrDeviceUnavailable
	}
	return nil
}

func (f *fakeDriver) Status() (StatusBits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusReads++
	if f.statusErr != nil {
		return 0, f.statusErr
	}
	return f.status, f.check()
}

func (f *fakeDriver) EnableStates() (EnableVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableReads++
	if err := f.check(); err != nil {
		return EnableVector{}, err
	}
	if f.readErr != nil {
		return EnableVector{}, f.readErr
	}
	return f.states, nil
}

func (f *fakeDriver) SetEnableStates(states EnableVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.states = states
	return nil
}

func (f *fakeDriver) EnableState(idx int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return false, err
	}
	if f.readErr != nil {
		return false, f.readErr
	}
	return f.states[idx], nil
}

func (f *fakeDriver) SetEnableState(idx int, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.states[idx] = on
	return nil
}

func (f *fakeDriver) Brightnesses() (BrightnessVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return BrightnessVector{}, err
	}
	return f.brightness, nil
}

func (f *fakeDriver) SetBrightnesses(levels BrightnessVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.brightness = levels
	return nil
}

func (f *fakeDriver) Brightness(idx int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return 0, err
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.brightness[idx], nil
}

func (f *fakeDriver) SetBrightness(idx int, level uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.brightness[idx] = level
	return nil
}

func (f *fakeDriver) ShutterOpen() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return false, err
	}
	return f.shutter, nil
}

func (f *fakeDriver) SetShutterOpen(open bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutterCalls++
	if err := f.check(); err != nil {
		return err
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.shutter = open
	return nil
}

func (f *fakeDriver) SerialNumber() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.serialErr != nil {
		return "", f.serialErr
	}
	return f.connectTo, f.check()
}

func (f *fakeDriver) ManufacturerName() (string, error) {
	return "Thorlabs", nil
}

func (f *fakeDriver) Wavelengths() (Wavelengths, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wlErr != nil {
		return Wavelengths{}, f.wlErr
	}
	return Wavelengths{365, 405, 470, 530, 590, 625}, nil
}

func (f *fakeDriver) set(fn func(f *fakeDriver)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type notification struct {
	Property string
	Value    string
}

// recorder collects notifications in arrival order.
type recorder struct {
	mu  sync.Mutex
	got []notification
}

func (r *recorder) Notify(property, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, notification{property, value})
}

func (r *recorder) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.got...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}

func (r *recorder) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return notification{}
	}
	return r.got[len(r.got)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
