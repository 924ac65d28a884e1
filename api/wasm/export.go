//go:build wasm

package wasm

// This file documents the export interface parser add-ons must implement
// using //go:wasmexport.
//
// NOTE: uint32 is used for pointers and lengths because WebAssembly uses a
// 32-bit linear memory model. All Wasm memory addresses are represented as
// 32-bit integers. See: https://github.com/golang/go/issues/59156

// Exported functions that add-ons must implement:
//
// //go:wasmexport allocate
// func allocate(size uint32) uint32
//   Reserves size bytes of guest memory and returns the pointer. The host
//   writes call payloads here before invoking validate or complete.
//
// //go:wasmexport free
// func free(ptr, size uint32) {}
//   Releases a region previously returned by allocate.
//
// //go:wasmexport validate
// func validate(ptr, length uint32) uint64
//   Parses the SQL text at (ptr, length) and returns a packed pointer/length
//   to a ValidationResult JSON payload. Required for the diagnostics
//   capability.
//
// //go:wasmexport complete
// func complete(ptr, length uint32) uint64
//   Optional, for the completion capability: returns engine-specific
//   completion candidates for the request payload at (ptr, length).
