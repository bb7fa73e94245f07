package transcode

import (
	"errors"
	"fmt"
)

// Category sentinels. Use errors.Is to classify an error from any
// pipeline operation.
var (
	// ErrConfiguration marks errors caused by an unsupported or invalid
	// configuration. Raised during construction, never during steady
	// state; the pipeline cannot be built and there is nothing to retry.
	ErrConfiguration = errors.New("transcode: configuration rejected")

	// ErrDevice marks errors from the underlying codec or GPU device.
	// Fatal for the session: the pipeline must be released, the
	// operation is not retried.
	ErrDevice = errors.New("transcode: device failure")
)

// ConfigError wraps a construction-time configuration failure.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports true for ErrConfiguration so callers can classify with
// errors.Is without knowing the concrete type.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// newConfigError wraps err as a configuration failure.
func newConfigError(err error) error {
	return &ConfigError{Err: err}
}

// newConfigErrorf formats a new configuration failure.
func newConfigErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// DeviceError wraps a runtime codec or GPU failure with the pipeline
// stage it occurred in.
type DeviceError struct {
	// Stage names the failing pipeline stage, e.g. "decoder",
	// "encoder", "frame transformer".
	Stage string
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is reports true for ErrDevice so callers can classify with errors.Is
// without knowing the concrete type.
func (e *DeviceError) Is(target error) bool { return target == ErrDevice }

// newDeviceError wraps err as a device failure in the given stage.
// Already-classified errors keep their original stage.
func newDeviceError(stage string, err error) error {
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Stage: stage, Err: err}
}
