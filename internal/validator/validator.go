package validator

import "context"

// ParserError is one finding reported by a SQL parser. Line and column
// coordinates are zero-based and match the protocol's Range encoding.
type ParserError struct {
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Message     string `json:"message"`
}

// Validator is the capability a SQL-validating parser exposes to the
// diagnostics pipeline.
type Validator interface {
	// Validate parses text and returns its syntax findings. An empty slice
	// means the text is valid.
	Validate(ctx context.Context, text string) ([]ParserError, error)
}
