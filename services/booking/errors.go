package booking

import "fmt"

// Availability error codes. All are recoverable: the session machine responds
// by offering a fresh batch of windows.
const (
	CodeSlotTaken         = "SlotTaken"
	CodeNoLongerAvailable = "NoLongerAvailable"
	CodeModeClosed        = "ModeClosed"
)

// AvailabilityError is a code-bearing commit rejection.
type AvailabilityError struct {
	Code    string
	Message string
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) error {
	return &AvailabilityError{Code: code, Message: fmt.Sprintf(format, args...)}
}
