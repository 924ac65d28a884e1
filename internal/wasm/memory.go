package wasm

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// Memory provides safe memory operations for Wasm module interaction.
//
// Wasm modules have their own isolated linear memory, separate from Go's.
// This helper wraps wazero's api.Memory with bounds-checked reads and
// writes that go through the guest's own allocate/free exports, so the
// guest allocator stays the single owner of its memory layout.
type Memory struct {
	mem   api.Memory
	alloc api.Function
	free  api.Function
}

// NewMemory creates a memory helper for module.
func NewMemory(module api.Module) *Memory {
	return &Memory{
		mem:   module.Memory(),
		alloc: module.ExportedFunction("allocate"),
		free:  module.ExportedFunction("free"),
	}
}

// ReadString reads a null-terminated string from Wasm memory.
func (m *Memory) ReadString(ptr uint32, maxLen uint32) (string, bool) {
	buf, ok := m.mem.Read(ptr, maxLen)
	if !ok {
		return "", false
	}

	// Find null terminator.
	end := len(buf)
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}

	return string(buf[:end]), true
}

// ReadBytes reads raw bytes from Wasm memory.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, bool) {
	return m.mem.Read(ptr, length)
}

// WriteBytes allocates guest memory through the module's allocate export
// and copies data into it. The caller owns the region and must release it
// with Free.
func (m *Memory) WriteBytes(ctx context.Context, data []byte) (uint32, uint32, error) {
	if m.alloc == nil {
		return 0, 0, &AllocationError{Size: uint32(len(data))}
	}

	results, err := m.alloc.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		return 0, 0, &AllocationError{Size: uint32(len(data)), Err: err}
	}

	ptr := uint32(results[0])
	if len(data) > 0 && !m.mem.Write(ptr, data) {
		m.Free(ctx, ptr, uint32(len(data)))
		return 0, 0, &MemoryAccessError{
			Operation: "write",
			Address:   ptr,
			Length:    uint32(len(data)),
		}
	}

	return ptr, uint32(len(data)), nil
}

// WriteString writes a string to guest memory. See WriteBytes.
func (m *Memory) WriteString(ctx context.Context, s string) (uint32, uint32, error) {
	return m.WriteBytes(ctx, []byte(s))
}

// Free releases a guest memory region previously returned by WriteBytes or
// by a guest function. Missing free exports are tolerated: leaking is the
// guest's problem, not a host failure.
func (m *Memory) Free(ctx context.Context, ptr uint32, length uint32) {
	if m.free == nil || ptr == 0 {
		return
	}
	_, _ = m.free.Call(ctx, uint64(ptr), uint64(length))
}
