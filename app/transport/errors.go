package transport

import "fmt"

// SendError wraps a provider failure that is not itself an error value, so
// callers always receive a real error. Failures that already are errors pass
// through untouched and never end up inside a SendError.
type SendError struct {
	Value any
}

func (e *SendError) Error() string {
	return fmt.Sprintf("email failed: %v", e.Value)
}

// asSendError returns error values unchanged and wraps anything else. The
// only Go source of a non-error failure value is a panicking collaborator,
// recovered by the transports in this package.
func asSendError(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return &SendError{Value: v}
}
