package validator

import "fmt"

// AcquireError occurs when no SQL validator could be acquired. The failure
// is memoized by the Provider, so the same error is returned on every call.
type AcquireError struct {
	Err error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("failed to acquire SQL validator: %v", e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// ResultDecodeError occurs when a parser add-on returns a payload that is
// not valid validation-result JSON.
type ResultDecodeError struct {
	AddonName string
	Err       error
}

func (e *ResultDecodeError) Error() string {
	return fmt.Sprintf("failed to decode validation result from add-on '%s': %v", e.AddonName, e.Err)
}

func (e *ResultDecodeError) Unwrap() error {
	return e.Err
}
