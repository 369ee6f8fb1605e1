package chrolis

import (
	"context"
	"testing"

	"github.com/jmylchreest/chrolisd/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHost struct {
	mapLocator
	rec *recorder
}

func (h testHost) Notifier(name string) device.Notifier {
	return device.NotifierFunc(func(property, value string) {
		h.rec.Notify(name+"/"+property, value)
	})
}

func TestNewDevices(t *testing.T) {
	drv := newFakeDriver()
	host := testHost{mapLocator: mapLocator{}, rec: &recorder{}}
	devs := NewDevices(testLogger(), drv, host, HubOptions{SerialNumber: "M00001"})

	all := devs.All()
	require.Len(t, all, 3)
	assert.Equal(t, HubDeviceName, all[0].Name())
	assert.Equal(t, ShutterDeviceName, all[1].Name())
	assert.Equal(t, StateDeviceName, all[2].Name())

	for _, d := range all {
		host.mapLocator[d.Name()] = d
	}
	require.NoError(t, devs.Hub.Initialize(context.Background()))
	t.Cleanup(func() { _ = devs.Hub.Shutdown() })
	require.NoError(t, devs.Shutter.Initialize(context.Background()))
	require.NoError(t, devs.State.Initialize(context.Background()))

	require.NoError(t, devs.State.WriteState(5))
	assert.Equal(t, notification{StateDeviceName + "/" + PropertyState, "5"}, host.rec.last())
}
