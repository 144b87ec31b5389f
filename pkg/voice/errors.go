package voice

import (
	"errors"
	"fmt"
)

// InputError is a bad command-line argument or an unsupported input file.
// No backend is attempted when one of these surfaces.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// NewInputError creates an InputError with a formatted message.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// IsInputError checks whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// DeviceError is a microphone or audio-device failure. Fatal for the current
// invocation; there is no fallback device and no retry.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceError checks whether err is (or wraps) a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// TotalError means both backends failed to produce a result. It carries both
// underlying causes so the final user-facing message can summarize them.
// PrimaryErr may be the probe failure when the primary was never attempted.
type TotalError struct {
	PrimaryErr  error
	FallbackErr error
}

func (e *TotalError) Error() string {
	primary := "not attempted"
	if e.PrimaryErr != nil {
		primary = e.PrimaryErr.Error()
	}
	return fmt.Sprintf("all backends failed: primary: %s; fallback: %v", primary, e.FallbackErr)
}

// Unwrap exposes both causes to errors.Is/As.
func (e *TotalError) Unwrap() []error {
	var errs []error
	if e.PrimaryErr != nil {
		errs = append(errs, e.PrimaryErr)
	}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}
