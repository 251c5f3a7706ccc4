package smarthome

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates a missing or malformed bearer token
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUpstreamUnavailable indicates the gateway was unreachable or answered non-2xx
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUnsupportedCommand indicates an execution verb with no gateway mapping
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrValueOutOfRange indicates a command parameter outside its allowed range
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrDeliveryFailed indicates the LAN delivery to a local device failed
	ErrDeliveryFailed = errors.New("downstream delivery failed")

	// ErrInvalidRequest indicates a malformed intent envelope or payload
	ErrInvalidRequest = errors.New("invalid request")
)

// Platform error codes
const (
	CodeAuthFailure          = "authFailure"
	CodeFunctionNotSupported = "functionNotSupported"
	CodeValueOutOfRange      = "valueOutOfRange"
	CodeTransientError       = "transientError"
	CodeDeviceOffline        = "deviceOffline"
	CodeProtocolError        = "protocolError"
	CodeInvalidRequest       = "invalid_request"
	CodeHardError            = "hardError"
)

// ErrorCode maps an error onto the platform error code reported for it.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return CodeAuthFailure
	case errors.Is(err, ErrUnsupportedCommand):
		return CodeFunctionNotSupported
	case errors.Is(err, ErrValueOutOfRange):
		return CodeValueOutOfRange
	case errors.Is(err, ErrUpstreamUnavailable):
		return CodeTransientError
	case errors.Is(err, ErrDeliveryFailed):
		return CodeDeviceOffline
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	default:
		return CodeHardError
	}
}

// HandlerError is a whole-intent failure with a platform error code.
type HandlerError struct {
	RequestID string
	Code      string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("request %s: %s: %v", e.RequestID, e.Code, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// NewHandlerError wraps err with the error code derived from it.
func NewHandlerError(requestID string, err error) *HandlerError {
	return &HandlerError{RequestID: requestID, Code: ErrorCode(err), Err: err}
}
