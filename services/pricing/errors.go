package pricing

import "fmt"

// Pricing error codes. All of them are recoverable by re-prompting the same
// conversation state.
const (
	CodeTierUndefined                  = "TierUndefined"
	CodeTierInactive                   = "TierInactive"
	CodeCategoryUnavailableForDuration = "CategoryUnavailableForDuration"
	CodeExtraUnavailable               = "ExtraUnavailable"
)

// PricingError is a code-bearing failure from the resolver.
type PricingError struct {
	Code    string
	Message string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) error {
	return &PricingError{Code: code, Message: fmt.Sprintf(format, args...)}
}
