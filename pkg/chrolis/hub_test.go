package chrolis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateCall struct{ id, value int }

type callbackLog struct {
	mu    sync.Mutex
	calls []stateCall
}

func (c *callbackLog) fn(id, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, stateCall{id, value})
}

func (c *callbackLog) all() []stateCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stateCall(nil), c.calls...)
}

// newTickHub returns a connected hub whose loop is not running, for
// driving tick directly.
func newTickHub(t *testing.T) (*Hub, *fakeDriver, *recorder) {
	t.Helper()
	drv := newFakeDriver()
	drv.connected = true
	rec := &recorder{}
	return NewHub(testLogger(), drv, rec, HubOptions{}), drv, rec
}

func TestNewHubDefaults(t *testing.T) {
	h := NewHub(nil, newFakeDriver(), nil, HubOptions{})
	assert.Equal(t, DefaultPollInterval, h.opts.PollInterval)
	assert.Equal(t, HubIdle, h.State())
	assert.Equal(t, StatusNoError, h.StatusMessage())
	assert.Equal(t, HubDeviceName, h.Name())
	assert.NoError(t, h.PollErr())
}

func TestHubStateString(t *testing.T) {
	assert.Equal(t, "idle", HubIdle.String())
	assert.Equal(t, "polling", HubPolling.String())
	assert.Equal(t, "stopping", HubStopping.String())
}

func TestHubTickUsesPreviousSnapshot(t *testing.T) {
	h, drv, rec := newTickHub(t)
	cb := &callbackLog{}
	h.SetStateCallback(cb.fn)

	require.NoError(t, h.tick())
	assert.Equal(t, notification{PropertyDeviceStatus, StatusNoError}, rec.last())

	drv.set(func(f *fakeDriver) { f.status = FlagBoxOpen.Bit() })
	require.NoError(t, h.tick())
	// The message describes the status sampled before this tick.
	assert.Equal(t, notification{PropertyDeviceStatus, StatusNoError}, rec.last())
	assert.Equal(t, FlagBoxOpen.Bit(), h.StatusCode())
	assert.Empty(t, cb.all(), "leaving a zero snapshot must not fan out")

	require.NoError(t, h.tick())
	assert.Equal(t, notification{PropertyDeviceStatus, "Box is Open"}, rec.last())
	assert.Empty(t, cb.all())

	drv.set(func(f *fakeDriver) { f.status = 0 })
	require.NoError(t, h.tick())
	assert.Equal(t, notification{PropertyDeviceStatus, "Box is Open"}, rec.last())
	assert.Len(t, cb.all(), NumLEDs+1)
	assert.Equal(t, "Box is Open", h.StatusMessage())
}

func TestHubTickIdenticalStatusDoesNotFanOut(t *testing.T) {
	h, drv, rec := newTickHub(t)
	cb := &callbackLog{}
	h.SetStateCallback(cb.fn)
	drv.set(func(f *fakeDriver) { f.status = FlagInterlockOpen.Bit() })

	for i := 0; i < 3; i++ {
		require.NoError(t, h.tick())
	}
	assert.Len(t, cb.all(), 0)
	// First tick fans out nothing (snapshot was zero); all three publish.
	assert.Len(t, rec.all(), 3)
	for _, n := range rec.all() {
		assert.Equal(t, PropertyDeviceStatus, n.Property)
	}
}

func TestHubTickFanOutOrder(t *testing.T) {
	h, drv, _ := newTickHub(t)
	cb := &callbackLog{}
	h.SetStateCallback(cb.fn)

	drv.set(func(f *fakeDriver) {
		f.status = FlagLEDOverheated.Bit()
		f.states = EnableVector{true, false, true, false, false, true}
	})
	require.NoError(t, h.tick())
	drv.set(func(f *fakeDriver) { f.status = FlagLEDOverheated.Bit() | FlagBoxOverheated.Bit() })
	require.NoError(t, h.tick())

	assert.Equal(t, []stateCall{
		{0, 0b100101},
		{1, 1}, {2, 0}, {3, 1}, {4, 0}, {5, 0}, {6, 1},
	}, cb.all())
}

func TestHubTickEnableReadFailureIsNotFatal(t *testing.T) {
	h, drv, rec := newTickHub(t)
	cb := &callbackLog{}
	h.SetStateCallback(cb.fn)

	drv.set(func(f *fakeDriver) { f.status = FlagBoxOpen.Bit() })
	require.NoError(t, h.tick())
	drv.set(func(f *fakeDriver) {
		f.status = 0
		f.readErr = errors.NewInstrumentError(errors.InstrumentRx, -2)
	})
	require.NoError(t, h.tick())

	assert.Empty(t, cb.all())
	assert.Equal(t, notification{PropertyDeviceStatus, "Box is Open"}, rec.last())
}

func TestHubTickStatusFailure(t *testing.T) {
	h, drv, rec := newTickHub(t)
	drv.set(func(f *fakeDriver) { f.statusErr = errors.NewInstrumentError(errors.InstrumentTx, -1) })

	err := h.tick()
	require.Error(t, err)
	assert.True(t, errors.IsInstrument(err))
	assert.Empty(t, rec.all())
}

func TestHubCallbackSlots(t *testing.T) {
	h, drv, _ := newTickHub(t)
	first, second := &callbackLog{}, &callbackLog{}

	h.SetStateCallback(first.fn)
	h.SetStateCallback(second.fn)

	drv.set(func(f *fakeDriver) { f.status = FlagBoxOpen.Bit() })
	require.NoError(t, h.tick())
	drv.set(func(f *fakeDriver) { f.status = 0 })
	require.NoError(t, h.tick())

	assert.Empty(t, first.all())
	assert.Len(t, second.all(), NumLEDs+1)

	h.SetStateCallback(nil)
	assert.NotPanics(t, func() { h.stateHandler()(0, 0) })
	h.SetShutterCallback(nil)
	assert.NotNil(t, h.shutterCallback.Load())
}

func TestHubInitialize(t *testing.T) {
	drv := newFakeDriver()
	drv.serials = []string{"M00042", "M00043"}
	rec := &recorder{}
	h := NewHub(testLogger(), drv, rec, HubOptions{PollInterval: time.Hour})

	require.NoError(t, h.Initialize(context.Background()))
	defer func() { _ = h.Shutdown() }()

	assert.Equal(t, "M00042", drv.connectTo)
	assert.Equal(t, HubPolling, h.State())

	err := h.Initialize(context.Background())
	assert.Error(t, err)

	props := h.Properties()
	values := map[string]string{}
	for _, p := range props {
		assert.True(t, p.ReadOnly, p.Name)
		values[p.Name] = p.Initial
	}
	assert.Equal(t, "M00042", values[PropertySerialNumber])
	assert.Equal(t, "M00042", values[PropertyDeviceSerialNumber])
	assert.Equal(t, "Thorlabs", values[PropertyManufacturerName])
	assert.Equal(t, "365, 405, 470, 530, 590, 625", values[PropertyWavelengths])

	require.Eventually(t, func() bool { return len(rec.all()) > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, notification{PropertyDeviceStatus, StatusNoError}, rec.all()[0])
}

func TestHubInitializeConfiguredSerial(t *testing.T) {
	drv := newFakeDriver()
	h := NewHub(testLogger(), drv, nil, HubOptions{SerialNumber: "M99999", PollInterval: time.Hour})
	require.NoError(t, h.Initialize(context.Background()))
	assert.Equal(t, "M99999", drv.connectTo)
	require.NoError(t, h.Shutdown())
}

func TestHubInitializeFailures(t *testing.T) {
	t.Run("no instruments", func(t *testing.T) {
		drv := newFakeDriver()
		drv.serials = nil
		h := NewHub(testLogger(), drv, nil, HubOptions{})
		err := h.Initialize(context.Background())
		assert.True(t, errors.IsDeviceUnavailable(err))
		assert.Equal(t, HubIdle, h.State())
	})

	t.Run("connect error", func(t *testing.T) {
		drv := newFakeDriver()
		drv.connectErr = errors.NewInstrumentError(errors.InstrumentAuthentication, -5)
		h := NewHub(testLogger(), drv, nil, HubOptions{})
		err := h.Initialize(context.Background())
		assert.True(t, errors.IsInstrument(err))
		assert.False(t, drv.IsConnected())
	})

	t.Run("wavelength read disconnects", func(t *testing.T) {
		drv := newFakeDriver()
		drv.wlErr = errors.NewInstrumentError(errors.InstrumentRx, -7)
		h := NewHub(testLogger(), drv, nil, HubOptions{})
		err := h.Initialize(context.Background())
		require.Error(t, err)
		assert.False(t, drv.IsConnected())
		assert.Equal(t, 1, drv.disconnects)
		assert.Equal(t, HubIdle, h.State())
	})
}

func TestHubInitializeToleratesMissingSerial(t *testing.T) {
	drv := newFakeDriver()
	drv.serialErr = errors.NewInstrumentError(errors.InstrumentRx, -7)
	h := NewHub(testLogger(), drv, nil, HubOptions{PollInterval: time.Hour})

	require.NoError(t, h.Initialize(context.Background()))
	t.Cleanup(func() { _ = h.Shutdown() })
	assert.True(t, drv.IsConnected())
	assert.Equal(t, HubPolling, h.State())

	values := map[string]string{}
	for _, p := range h.Properties() {
		values[p.Name] = p.Initial
	}
	assert.Equal(t, "M00001", values[PropertySerialNumber])
	assert.Equal(t, "", values[PropertyDeviceSerialNumber])
	assert.Equal(t, "Thorlabs", values[PropertyManufacturerName])
}

func TestHubShutdownJoinsPolling(t *testing.T) {
	drv := newFakeDriver()
	rec := &recorder{}
	h := NewHub(testLogger(), drv, rec, HubOptions{PollInterval: 2 * time.Millisecond})

	require.NoError(t, h.Initialize(context.Background()))
	require.Eventually(t, func() bool { return len(rec.all()) >= 3 }, time.Second, time.Millisecond)

	require.NoError(t, h.Shutdown())
	after := len(rec.all())
	assert.Equal(t, HubIdle, h.State())
	assert.False(t, drv.IsConnected())
	assert.Equal(t, 1, drv.disconnects)

	// Reconnect behind the hub's back: still nothing may be emitted.
	drv.set(func(f *fakeDriver) { f.connected = true })
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.all(), after)

	drv.set(func(f *fakeDriver) { f.connected = false })
	require.NoError(t, h.Initialize(context.Background()), "hub can be re-initialized after shutdown")
	require.NoError(t, h.Shutdown())
}

func TestHubShutdownWithoutInitialize(t *testing.T) {
	drv := newFakeDriver()
	h := NewHub(testLogger(), drv, nil, HubOptions{})
	require.NoError(t, h.Shutdown())
	assert.Equal(t, 0, drv.disconnects)
}

func TestHubPollFatal(t *testing.T) {
	drv := newFakeDriver()
	rec := &recorder{}
	h := NewHub(testLogger(), drv, rec, HubOptions{PollInterval: 2 * time.Millisecond})

	require.NoError(t, h.Initialize(context.Background()))
	require.Eventually(t, func() bool { return len(rec.all()) >= 1 }, time.Second, time.Millisecond)

	drv.set(func(f *fakeDriver) { f.statusErr = errors.NewInstrumentError(errors.InstrumentRuntime, -3) })
	require.Eventually(t, func() bool { return h.PollErr() != nil }, time.Second, time.Millisecond)

	assert.ErrorIs(t, h.PollErr(), errors.ErrPollFatal)
	assert.True(t, errors.IsInstrument(h.PollErr()))
	assert.Equal(t, HubIdle, h.State())

	emitted := len(rec.all())
	drv.set(func(f *fakeDriver) { f.statusErr = nil })
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.all(), emitted, "no notifications after a fatal poll error")

	require.NoError(t, h.Shutdown())
	assert.False(t, drv.IsConnected())
}
