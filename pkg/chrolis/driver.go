package chrolis

import "context"

// Driver is the facade over the vendor instrument driver. Implementations
// own the physical link and must serialise all hardware I/O internally;
// the hub's polling goroutine and host callers use it concurrently.
//
// Instrument failures are reported as *errors.InstrumentError. Calls made
// while disconnected fail with errors.ErrDeviceUnavailable.
type Driver interface {
	// AvailableSerialNumbers lists instruments attached to the system.
	AvailableSerialNumbers() ([]string, error)

	Connect(ctx context.Context, serial string) error
	Disconnect() error
	IsConnected() bool

	Status() (StatusBits, error)

	EnableStates() (EnableVector, error)
	SetEnableStates(states EnableVector) error
	EnableState(idx int) (bool, error)
	SetEnableState(idx int, on bool) error

	Brightnesses() (BrightnessVector, error)
	SetBrightnesses(levels BrightnessVector) error
	Brightness(idx int) (uint16, error)
	SetBrightness(idx int, level uint16) error

	ShutterOpen() (bool, error)
	SetShutterOpen(open bool) error

	SerialNumber() (string, error)
	ManufacturerName() (string, error)
	Wavelengths() (Wavelengths, error)
}
