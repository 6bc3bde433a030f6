package geolocation

import "fmt"

const (
	CodeUnsupported         = 0
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

const unknownMessage = "An unknown error occurred while getting your location."

var messages = map[int]string{
	CodeUnsupported:         "Geolocation is not supported on this device.",
	CodePermissionDenied:    "Location permission denied. Please allow location access and try again.",
	CodePositionUnavailable: "Location information is unavailable.",
	CodeTimeout:             "The request to get your location timed out.",
}

// Error is a classified capture failure. It is rendered to clients as is.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewError builds the error for code; unrecognized codes get the unknown
// message but keep their code.
func NewError(code int) *Error {
	msg, ok := messages[code]
	if !ok {
		msg = unknownMessage
	}

	return &Error{Code: code, Message: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// Retryable reports whether re-invoking the capture may succeed.
func (e *Error) Retryable() bool {
	return e.Code == CodePositionUnavailable || e.Code == CodeTimeout
}
