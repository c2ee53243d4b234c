package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the root of every configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingName indicates that the accessory has no display name.
	ErrMissingName = fmt.Errorf("%w: name is required", ErrInvalidConfig)

	// ErrUnknownService indicates an unrecognised service name.
	ErrUnknownService = fmt.Errorf("%w: unknown service", ErrInvalidConfig)

	// ErrInvalidDelta indicates a non-positive or out of range nudge delta.
	ErrInvalidDelta = fmt.Errorf("%w: delta must be between 1 and 100", ErrInvalidConfig)

	// ErrInvalidDelay indicates a negative switch delay.
	ErrInvalidDelay = fmt.Errorf("%w: delay must not be negative", ErrInvalidConfig)

	// ErrInvalidVolume indicates that the volume value is out of range.
	ErrInvalidVolume = fmt.Errorf("%w: volume must be between 0 and 100", ErrInvalidConfig)

	// ErrAlreadyBound indicates a characteristic was bound twice.
	ErrAlreadyBound = errors.New("characteristic already bound")

	// ErrUnsupportedCharacteristic indicates the service has no such characteristic.
	ErrUnsupportedCharacteristic = errors.New("characteristic not supported by service")

	// ErrAudioIO wraps failures reported by the OS audio controller.
	ErrAudioIO = errors.New("audio controller failure")
)
