package register

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload is matched by every decode failure: bad hex, wrong
	// length or a field outside the register's valid range.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrUnsupported indicates a register, period or value the codec does not
	// know how to handle.
	ErrUnsupported = errors.New("unsupported register")
)

// PayloadError describes why a payload could not be decoded.
type PayloadError struct {
	Register Address // register being decoded (may be empty for generic helpers)
	Payload  string  // raw payload as received
	Reason   string
}

// Error implements the error interface
func (e *PayloadError) Error() string {
	if e.Register != "" {
		return fmt.Sprintf("malformed payload for register %s: %s (payload %q)", e.Register, e.Reason, e.Payload)
	}
	return fmt.Sprintf("malformed payload: %s (payload %q)", e.Reason, e.Payload)
}

// Is reports ErrMalformedPayload as a match so callers can use errors.Is.
func (e *PayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

func malformed(reg Address, payload, format string, args ...any) *PayloadError {
	return &PayloadError{
		Register: reg,
		Payload:  payload,
		Reason:   fmt.Sprintf(format, args...),
	}
}
