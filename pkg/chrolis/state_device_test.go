package chrolis

import (
	"context"
	"testing"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLocator map[string]device.Device

func (m mapLocator) Device(name string) (device.Device, bool) {
	d, ok := m[name]
	return d, ok
}

func newStateFixture(t *testing.T) (*StateDevice, *Hub, *fakeDriver, *recorder) {
	t.Helper()
	drv := newFakeDriver()
	drv.connected = true
	drv.states = EnableVector{true, false, true}
	drv.brightness = BrightnessVector{100, 200, 300, 400, 500, 600}
	h := NewHub(testLogger(), drv, nil, HubOptions{})
	rec := &recorder{}
	d := NewStateDevice(testLogger(), StaticHub(h), rec)
	require.NoError(t, d.Initialize(context.Background()))
	return d, h, drv, rec
}

func TestStateDeviceInitializeLoadsCache(t *testing.T) {
	d, _, _, _ := newStateFixture(t)
	states, levels := d.Cached()
	assert.Equal(t, EnableVector{true, false, true}, states)
	assert.Equal(t, BrightnessVector{100, 200, 300, 400, 500, 600}, levels)
}

func TestStateDeviceInitializeWithoutHub(t *testing.T) {
	d := NewStateDevice(testLogger(), StaticHub(nil), nil)
	err := d.Initialize(context.Background())
	assert.True(t, errors.IsHubUnavailable(err))
}

func TestStateDeviceInitializeDisconnected(t *testing.T) {
	drv := newFakeDriver()
	h := NewHub(testLogger(), drv, nil, HubOptions{})
	d := NewStateDevice(testLogger(), StaticHub(h), nil)
	require.NoError(t, d.Initialize(context.Background()))
	states, levels := d.Cached()
	assert.Equal(t, EnableVector{}, states)
	assert.Equal(t, BrightnessVector{}, levels)
}

func TestStateDeviceWriteState(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)

	require.NoError(t, d.WriteState(0b110000))
	assert.Equal(t, EnableVector{4: true, 5: true}, drv.states)
	assert.Equal(t, []notification{{PropertyState, "48"}}, rec.all())
}

func TestStateDeviceWriteStateOutOfRange(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)

	for _, v := range []int64{64, -1, 1000} {
		rec.reset()
		err := d.WriteState(v)
		assert.True(t, errors.IsOutOfRange(err), "value %d", v)
		assert.Equal(t, []notification{{PropertyState, "5"}}, rec.all())
	}
	assert.Equal(t, EnableVector{true, false, true}, drv.states)
	states, _ := d.Cached()
	assert.Equal(t, EnableVector{true, false, true}, states)
}

func TestStateDeviceWriteStateDisconnected(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)
	drv.set(func(f *fakeDriver) { f.connected = false })

	err := d.WriteState(1)
	assert.True(t, errors.IsDeviceUnavailable(err))
	assert.Equal(t, []notification{{PropertyState, "5"}}, rec.all())
}

func TestStateDeviceWriteStateNoHub(t *testing.T) {
	d, _, _, rec := newStateFixture(t)
	d.hub = StaticHub(nil)

	err := d.WriteState(1)
	assert.True(t, errors.IsHubUnavailable(err))
	assert.Equal(t, []notification{{PropertyState, "5"}}, rec.all())
}

func TestStateDeviceWriteStateDriverFailureRefreshes(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)
	instrErr := errors.NewInstrumentError(errors.InstrumentParameter, -11)
	drv.set(func(f *fakeDriver) {
		// hardware changed underneath the cache, then the write fails
		f.states = EnableVector{true, true}
		f.writeErr = instrErr
	})

	err := d.WriteState(63)
	assert.ErrorIs(t, err, instrErr)
	assert.Equal(t, []notification{{PropertyState, "3"}}, rec.all())
	states, _ := d.Cached()
	assert.Equal(t, EnableVector{true, true}, states)
}

func TestStateDeviceWriteStateDeviceUnavailableSkipsRefresh(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)
	drv.set(func(f *fakeDriver) { f.writeErr = errors.DeviceUnavailablef("link dropped") })
	before := drv.enableReads

	err := d.WriteState(63)
	assert.True(t, errors.IsDeviceUnavailable(err))
	assert.Equal(t, before, drv.enableReads)
	assert.Equal(t, []notification{{PropertyState, "5"}}, rec.all())
}

func TestStateDeviceReadState(t *testing.T) {
	d, _, drv, _ := newStateFixture(t)

	drv.set(func(f *fakeDriver) { f.states = EnableVector{5: true} })
	v, err := d.ReadState()
	require.NoError(t, err)
	assert.Equal(t, int64(32), v)

	drv.set(func(f *fakeDriver) { f.readErr = errors.NewInstrumentError(errors.InstrumentRx, -1) })
	v, err = d.ReadState()
	require.NoError(t, err, "failed refresh serves the cache")
	assert.Equal(t, int64(32), v)

	drv.set(func(f *fakeDriver) { f.connected = false })
	v, err = d.ReadState()
	require.NoError(t, err)
	assert.Equal(t, int64(32), v)
}

func TestStateDeviceReadStateNoHub(t *testing.T) {
	d, _, _, rec := newStateFixture(t)
	d.hub = StaticHub(nil)
	_, err := d.ReadState()
	assert.True(t, errors.IsHubUnavailable(err))
	assert.Equal(t, []notification{{PropertyState, "5"}}, rec.all())
}

func TestStateDeviceEnable(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)

	require.NoError(t, d.WriteEnable(1, true))
	assert.True(t, drv.states[1])
	assert.Equal(t, notification{EnableStateProperty(1), "1"}, rec.last())

	on, err := d.ReadEnable(1)
	require.NoError(t, err)
	assert.True(t, on)

	rec.reset()
	drv.set(func(f *fakeDriver) { f.connected = false })
	err = d.WriteEnable(3, true)
	assert.True(t, errors.IsDeviceUnavailable(err))
	assert.Equal(t, []notification{{"LED Enable State 4", "0"}}, rec.all())

	assert.True(t, errors.IsOutOfRange(d.WriteEnable(NumLEDs, true)))
	_, err = d.ReadEnable(-1)
	assert.True(t, errors.IsOutOfRange(err))
}

func TestStateDeviceEnableDriverFailure(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)
	drv.set(func(f *fakeDriver) {
		f.states[0] = false
		f.writeErr = errors.NewInstrumentError(errors.InstrumentInvalidMode, -4)
	})

	err := d.WriteEnable(0, true)
	assert.True(t, errors.IsInstrument(err))
	assert.Equal(t, []notification{{"LED Enable State 1", "0"}}, rec.all())
}

func TestStateDeviceBrightness(t *testing.T) {
	d, _, drv, rec := newStateFixture(t)

	require.NoError(t, d.WriteBrightness(2, 750))
	assert.Equal(t, uint16(750), drv.brightness[2])
	assert.Equal(t, notification{"LED 3 Power", "750"}, rec.last())

	drv.set(func(f *fakeDriver) { f.brightness[2] = 10 })
	level, err := d.ReadBrightness(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), level)

	rec.reset()
	drv.set(func(f *fakeDriver) { f.writeErr = errors.NewInstrumentError(errors.InstrumentService, -9) })
	err = d.WriteBrightness(2, 20)
	assert.True(t, errors.IsInstrument(err))
	assert.Equal(t, []notification{{"LED 3 Power", "10"}}, rec.all())
}

func TestStateDeviceHubCallback(t *testing.T) {
	d, h, drv, rec := newStateFixture(t)
	_ = d

	// channel 2 switched on by hardware while a fault clears
	drv.set(func(f *fakeDriver) { f.status = FlagBoxOpen.Bit() })
	require.NoError(t, h.tick())
	rec.reset()
	drv.set(func(f *fakeDriver) {
		f.status = 0
		f.states[1] = true
	})
	require.NoError(t, h.tick())

	var aggregate, channel2 []int
	for i, n := range rec.all() {
		switch n.Property {
		case PropertyState:
			aggregate = append(aggregate, i)
			assert.Equal(t, "7", n.Value)
		case "LED Enable State 2":
			channel2 = append(channel2, i)
			assert.Equal(t, "1", n.Value)
		}
	}
	require.Len(t, aggregate, 1)
	require.Len(t, channel2, 1)
	assert.Less(t, aggregate[0], channel2[0])

	require.NoError(t, d.Shutdown())
	rec.reset()
	h.stateHandler()(0, 1)
	assert.Empty(t, rec.all(), "shutdown re-arms the no-op callback")
}

func TestStateDeviceCallbackIgnoresUnknownIDs(t *testing.T) {
	d, _, _, rec := newStateFixture(t)
	d.onHubState(NumLEDs+1, 1)
	d.onHubState(-1, 1)
	assert.Empty(t, rec.all())
}

func TestStateDeviceProperties(t *testing.T) {
	d, _, drv, _ := newStateFixture(t)
	props := d.Properties()
	require.Len(t, props, 1+2*NumLEDs)

	byName := map[string]device.Property{}
	for _, p := range props {
		byName[p.Name] = p
	}

	state := byName[PropertyState]
	assert.Equal(t, "5", state.Initial)
	assert.Nil(t, state.Limits)
	require.NoError(t, state.Write("9"))
	assert.Equal(t, EnableVector{true, false, false, true}, drv.states)
	got, err := state.Read()
	require.NoError(t, err)
	assert.Equal(t, "9", got)
	assert.True(t, errors.IsInvalidInput(state.Write("x")))

	enable := byName["LED Enable State 6"]
	assert.Equal(t, &device.Limits{Min: 0, Max: 1}, enable.Limits)
	require.NoError(t, enable.Write("1"))
	assert.True(t, drv.states[5])

	power := byName["LED 6 Power"]
	assert.Equal(t, "600", power.Initial)
	assert.Equal(t, &device.Limits{Min: 0, Max: 1000}, power.Limits)
	require.NoError(t, power.Write("999"))
	got, err = power.Read()
	require.NoError(t, err)
	assert.Equal(t, "999", got)
	assert.True(t, errors.IsOutOfRange(power.Write("1001")))
}

func TestResolveHub(t *testing.T) {
	h := NewHub(testLogger(), newFakeDriver(), nil, HubOptions{})
	loc := mapLocator{}
	fn := ResolveHub(loc, HubDeviceName)
	assert.Nil(t, fn())

	loc[HubDeviceName] = h
	assert.Same(t, h, fn())

	loc[HubDeviceName] = NewShutter(nil, nil, nil)
	assert.Nil(t, fn(), "non-hub device does not resolve")

	var nilFn HubFunc
	_, err := nilFn.connected()
	assert.True(t, errors.IsHubUnavailable(err))
}
