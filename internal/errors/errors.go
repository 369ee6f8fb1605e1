package errors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrHubUnavailable is returned when a peripheral cannot resolve its hub
var ErrHubUnavailable = errors.New("hub is not available")

// ErrDeviceUnavailable is returned when the hub exists but the instrument is not connected
var ErrDeviceUnavailable = errors.New("CHROLIS device is not available")

// ErrOutOfRange is returned when a property value is outside its valid domain
var ErrOutOfRange = errors.New("value passed to property was out of bounds")

// ErrPollFatal is recorded when a status read fails inside the polling loop
var ErrPollFatal = errors.New("status polling stopped")

// ErrInstrument is the parent of every error reported by the instrument driver
var ErrInstrument = errors.New("instrument error")

// ErrNotFound is returned when a requested device or property doesn't exist
var ErrNotFound = errors.New("resource not found")

// ErrInvalidInput is returned when the provided input is invalid
var ErrInvalidInput = errors.New("invalid input")

// ErrInternal is returned for unexpected internal errors
var ErrInternal = errors.New("internal error")

// InstrumentErrorKind classifies opaque driver error codes.
type InstrumentErrorKind int

const (
	InstrumentRuntime InstrumentErrorKind = iota
	InstrumentInternal
	InstrumentAuthentication
	InstrumentParameter
	InstrumentTx
	InstrumentRx
	InstrumentInvalidMode
	InstrumentService
)

func (k InstrumentErrorKind) String() string {
	switch k {
	case InstrumentRuntime:
		return "CHROLIS Instrument Runtime Error"
	case InstrumentInternal:
		return "CHROLIS Instrument Internal Error"
	case InstrumentAuthentication:
		return "CHROLIS Instrument Authentication Error"
	case InstrumentParameter:
		return "CHROLIS Invalid Parameter Error"
	case InstrumentTx:
		return "CHROLIS Instrument Internal Command Sending Error"
	case InstrumentRx:
		return "CHROLIS Instrument Internal Command Receiving Error"
	case InstrumentInvalidMode:
		return "CHROLIS Instrument Invalid Mode Error"
	case InstrumentService:
		return "CHROLIS Instrument Service Error"
	default:
		return "CHROLIS Instrument Error"
	}
}

// InstrumentError carries a driver error code verbatim.
type InstrumentError struct {
	Kind InstrumentErrorKind
	Code int32
}

// NewInstrumentError returns an InstrumentError for the given kind and code
func NewInstrumentError(kind InstrumentErrorKind, code int32) *InstrumentError {
	return &InstrumentError{Kind: kind, Code: code}
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Kind, e.Code)
}

// Unwrap lets errors.Is match ErrInstrument
func (e *InstrumentError) Unwrap() error {
	return ErrInstrument
}

// LogErrorAndReturn logs an error with structured context and returns it
func LogErrorAndReturn(logger *slog.Logger, err error, message string, args ...any) error {
	// Don't modify nil errors
	if err == nil {
		return nil
	}

	logger.Error(message, append([]any{"error", err}, args...)...)
	return err
}

// WrapErrorf wraps an error with additional context using fmt.Errorf
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsHubUnavailable returns true if the error is or wraps ErrHubUnavailable
func IsHubUnavailable(err error) bool {
	return errors.Is(err, ErrHubUnavailable)
}

// IsDeviceUnavailable returns true if the error is or wraps ErrDeviceUnavailable
func IsDeviceUnavailable(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable)
}

// IsOutOfRange returns true if the error is or wraps ErrOutOfRange
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

// IsInstrument returns true if the error came from the instrument driver
func IsInstrument(err error) bool {
	return errors.Is(err, ErrInstrument)
}

// IsNotFound returns true if the error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// AsInstrument extracts the InstrumentError from err, if any
func AsInstrument(err error) (*InstrumentError, bool) {
	var ie *InstrumentError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// HubUnavailablef returns a formatted ErrHubUnavailable error
func HubUnavailablef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrHubUnavailable)...)
}

// DeviceUnavailablef returns a formatted ErrDeviceUnavailable error
func DeviceUnavailablef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDeviceUnavailable)...)
}

// OutOfRangef returns a formatted ErrOutOfRange error
func OutOfRangef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrOutOfRange)...)
}

// NotFoundf returns a formatted ErrNotFound error
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidInputf returns a formatted ErrInvalidInput error
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// Internalf returns a formatted ErrInternal error
func Internalf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInternal)...)
}

// Join combines errs, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
