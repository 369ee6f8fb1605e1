// Package simulator provides an in-memory CHROLIS instrument. It behaves
// like the hardware closely enough to run the daemon without a device
// attached, and exposes hooks to inject faults and hardware-side changes.
package simulator

import (
	"context"
	"slices"
	"sync"

	"github.com/jmylchreest/chrolisd/internal/errors"
	"github.com/jmylchreest/chrolisd/pkg/chrolis"
)

// Instrument-specific error codes returned by the simulator.
const (
	CodeInvalidParameter int32 = -1074001152
	CodeAlreadyOpen      int32 = -1074001153
)

// Op names a driver operation for fault injection.
type Op string

const (
	OpConnect         Op = "connect"
	OpStatus          Op = "status"
	OpEnableStates    Op = "enable_states"
	OpSetEnableStates Op = "set_enable_states"
	OpEnableState     Op = "enable_state"
	OpSetEnableState  Op = "set_enable_state"
	OpBrightness      Op = "brightness"
	OpSetBrightness   Op = "set_brightness"
	OpShutter         Op = "shutter"
	OpSetShutter      Op = "set_shutter"
)

// Options configures a Simulator.
type Options struct {
	Serials      []string
	Manufacturer string
	Wavelengths  chrolis.Wavelengths
}

// DefaultOptions describes a single attached instrument.
func DefaultOptions() Options {
	return Options{
		Serials:      []string{"M00000001"},
		Manufacturer: "Thorlabs GmbH",
		Wavelengths:  chrolis.Wavelengths{365, 415, 470, 530, 590, 625},
	}
}

// Simulator implements chrolis.Driver. All methods are safe for concurrent
// use.
type Simulator struct {
	mu sync.Mutex

	opts       Options
	connected  bool
	serial     string
	status     chrolis.StatusBits
	states     chrolis.EnableVector
	brightness chrolis.BrightnessVector
	shutter    bool
	faults     map[Op]error
}

// New creates a disconnected simulator.
func New(opts Options) *Simulator {
	def := DefaultOptions()
	if len(opts.Serials) == 0 {
		opts.Serials = def.Serials
	}
	if opts.Manufacturer == "" {
		opts.Manufacturer = def.Manufacturer
	}
	if opts.Wavelengths == (chrolis.Wavelengths{}) {
		opts.Wavelengths = def.Wavelengths
	}
	return &Simulator{opts: opts, faults: make(map[Op]error)}
}

// FailNext makes the next call of op return err.
func (s *Simulator) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// SetStatus changes the status bits as the hardware would. An open box or
// interlock switches every LED off.
func (s *Simulator) SetStatus(bits chrolis.StatusBits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = bits
	if bits.Has(chrolis.FlagBoxOpen) || bits.Has(chrolis.FlagInterlockOpen) {
		s.states = chrolis.EnableVector{}
	}
}

// ForceEnableState changes a channel's state behind the driver's back.
func (s *Simulator) ForceEnableState(idx int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < chrolis.NumLEDs {
		s.states[idx] = on
	}
}

// ForceRawEnableStates loads the enable register from raw vendor booleans,
// as the instrument reports them after a front-panel change. Any nonzero
// word counts as on.
func (s *Simulator) ForceRawEnableStates(raw [chrolis.NumLEDs]uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = chrolis.DecodeStates(chrolis.EncodeRaw(raw))
}

// Drop loses the link without a Disconnect call.
func (s *Simulator) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// fault consumes an injected fault for op and checks the link. Callers
// hold s.mu.
func (s *Simulator) fault(op Op) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	if !s.connected {
		return errors.DeviceUnavailablef("simulator is not connected")
	}
	return nil
}

func channelErr(idx int) error {
	if idx < 0 || idx >= chrolis.NumLEDs {
		return errors.NewInstrumentError(errors.InstrumentParameter, CodeInvalidParameter)
	}
	return nil
}

func (s *Simulator) AvailableSerialNumbers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.opts.Serials), nil
}

func (s *Simulator) Connect(ctx context.Context, serial string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.faults[OpConnect]; ok {
		delete(s.faults, OpConnect)
		return err
	}
	if s.connected {
		return errors.NewInstrumentError(errors.InstrumentRuntime, CodeAlreadyOpen)
	}
	if !slices.Contains(s.opts.Serials, serial) {
		return errors.DeviceUnavailablef("no instrument with serial %q", serial)
	}
	s.connected = true
	s.serial = serial
	return nil
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Simulator) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Simulator) Status() (chrolis.StatusBits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpStatus); err != nil {
		return 0, err
	}
	return s.status, nil
}

func (s *Simulator) EnableStates() (chrolis.EnableVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpEnableStates); err != nil {
		return chrolis.EnableVector{}, err
	}
	return s.states, nil
}

func (s *Simulator) SetEnableStates(states chrolis.EnableVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetEnableStates); err != nil {
		return err
	}
	s.states = states
	return nil
}

func (s *Simulator) EnableState(idx int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpEnableState); err != nil {
		return false, err
	}
	if err := channelErr(idx); err != nil {
		return false, err
	}
	return s.states[idx], nil
}

func (s *Simulator) SetEnableState(idx int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetEnableState); err != nil {
		return err
	}
	if err := channelErr(idx); err != nil {
		return err
	}
	s.states[idx] = on
	return nil
}

func (s *Simulator) Brightnesses() (chrolis.BrightnessVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpBrightness); err != nil {
		return chrolis.BrightnessVector{}, err
	}
	return s.brightness, nil
}

func (s *Simulator) SetBrightnesses(levels chrolis.BrightnessVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetBrightness); err != nil {
		return err
	}
	for _, l := range levels {
		if l > chrolis.MaxBrightness {
			return errors.NewInstrumentError(errors.InstrumentParameter, CodeInvalidParameter)
		}
	}
	s.brightness = levels
	return nil
}

func (s *Simulator) Brightness(idx int) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpBrightness); err != nil {
		return 0, err
	}
	if err := channelErr(idx); err != nil {
		return 0, err
	}
	return s.brightness[idx], nil
}

func (s *Simulator) SetBrightness(idx int, level uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetBrightness); err != nil {
		return err
	}
	if err := channelErr(idx); err != nil {
		return err
	}
	if level > chrolis.MaxBrightness {
		return errors.NewInstrumentError(errors.InstrumentParameter, CodeInvalidParameter)
	}
	s.brightness[idx] = level
	return nil
}

func (s *Simulator) ShutterOpen() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpShutter); err != nil {
		return false, err
	}
	return s.shutter, nil
}

func (s *Simulator) SetShutterOpen(open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetShutter); err != nil {
		return err
	}
	s.shutter = open
	return nil
}

func (s *Simulator) SerialNumber() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", errors.DeviceUnavailablef("simulator is not connected")
	}
	return s.serial, nil
}

func (s *Simulator) ManufacturerName() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", errors.DeviceUnavailablef("simulator is not connected")
	}
	return s.opts.Manufacturer, nil
}

func (s *Simulator) Wavelengths() (chrolis.Wavelengths, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return chrolis.Wavelengths{}, errors.DeviceUnavailablef("simulator is not connected")
	}
	return s.opts.Wavelengths, nil
}

var _ chrolis.Driver = (*Simulator)(nil)
