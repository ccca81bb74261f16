package resp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEnding       = errors.New("invalid line ending")
	ErrInvalidInteger      = errors.New("invalid integer")
	ErrNegativeArrayLength = errors.New("negative array length")
	ErrBulkLengthExceeded  = errors.New("bulk length exceeds limit")
	ErrNestingTooDeep      = errors.New("array nesting too deep")
)

// ProtocolError reports malformed or unsupported wire input.
// The stream position after a ProtocolError is unspecified
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// UnknownTypeError is returned when the leading type byte is not part of RESP2
type UnknownTypeError struct {
	Tag byte
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type %q", e.Tag)
}

// IsProtocolError reports whether err was caused by malformed input rather than the transport
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func protocolError(err error) error {
	return &ProtocolError{Err: err}
}
