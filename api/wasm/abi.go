// Package wasm defines the ABI between the Flink SQL language server and
// its parser add-ons.
//
// Add-ons are WebAssembly modules. The server imports guest exports
// (allocate, free, validate, complete) and exposes host functions under the
// "host" module (log_message, list_clusters). Variable-length payloads cross
// the boundary as UTF-8 JSON in guest linear memory, addressed by a pointer
// and a byte length. Functions that return a payload pack both into a single
// u64: pointer in the high 32 bits, length in the low 32 bits.
package wasm

// Log levels accepted by the host's log_message function.
const (
	LogLevelDebug uint32 = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// PackPtrLen packs a guest pointer and byte length into the u64 return
// convention.
func PackPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// SplitPtrLen splits a packed u64 into a guest pointer and byte length.
func SplitPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// SyntaxError is one parser finding in a validation result. Line and column
// coordinates are zero-based.
type SyntaxError struct {
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Message     string `json:"message"`
}

// ValidationResult is the JSON payload returned by the guest's validate
// export. Errors is empty for valid SQL.
type ValidationResult struct {
	Errors []SyntaxError `json:"errors"`
}

// ClusterList is the JSON payload returned by the host's list_clusters
// function: the Kafka cluster names currently known to the server.
type ClusterList struct {
	Clusters []string `json:"clusters"`
}
