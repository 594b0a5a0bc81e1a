package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a switch id does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrPinNotFound is returned when a pin number is not configured on a switch.
	ErrPinNotFound = errors.New("device: pin not found")

	// ErrExists is returned when creating a switch with an id that already exists.
	ErrExists = errors.New("device: already exists")

	// ErrDisabled is returned when a disabled switch receives a payment request.
	ErrDisabled = errors.New("device: disabled")

	// ErrInvalid is returned when switch validation fails.
	ErrInvalid = errors.New("device: invalid")
)
