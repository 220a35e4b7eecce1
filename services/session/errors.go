package session

import "fmt"

// Recovery codes carried on replies that restarted part of the flow. The
// conversation itself never fails for these; the code lets the transport and
// the logs tell a recovery apart from a plain prompt.
const (
	CodeStaleMapping   = "StaleMapping"
	CodeSessionExpired = "SessionExpired"
)

// ValidationError marks malformed client input (bad duration, unknown
// category). It is raised before any storage write and always resolves to a
// re-prompt of the same state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
