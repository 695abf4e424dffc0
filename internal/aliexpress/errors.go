package aliexpress

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Class partitions API failures the way the retry policy and the strategy
// chain need them: transient faults are retried, business/auth faults are
// not (retrying an invalid-signature error only burns quota), malformed
// responses fail just the strategy that saw them.
type Class string

const (
	ClassTransient Class = "transient"
	ClassBusiness  Class = "business"
	ClassMalformed Class = "malformed"
)

// ErrNotFound marks a well-formed success envelope whose payload list was
// empty: not an error, the caller falls through to its own fallback.
var ErrNotFound = errors.New("aliexpress: empty result payload")

type APIError struct {
	Class      Class
	Code       string
	Message    string
	SubMessage string
	RequestID  string
	// Raw keeps the provider payload for diagnosing response-shape drift.
	Raw json.RawMessage
}

func (e *APIError) Error() string {
	if e.SubMessage != "" {
		return fmt.Sprintf("aliexpress %s error: %s (%s)", e.Class, e.Message, e.SubMessage)
	}
	return fmt.Sprintf("aliexpress %s error: %s", e.Class, e.Message)
}

// IsRetryable reports whether another attempt can plausibly succeed.
// Transport-level errors (anything that is not a classified APIError) are
// retryable; classified errors only when transient.
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Class == ClassTransient
	}
	return true
}
