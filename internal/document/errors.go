package document

import "fmt"

// NotOpenError occurs when an operation targets a URI with no open document.
type NotOpenError struct {
	URI string
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("document '%s' is not open", e.URI)
}
