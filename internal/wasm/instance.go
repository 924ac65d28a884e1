package wasm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apiwasm "github.com/streamhaus/flink-sql-lsp/api/wasm"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// InstanceManager creates and manages parser module instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctionsImpl

	// Host module registration (done once per runtime).
	hostOnce sync.Once
	hostErr  error
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctionsImpl, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string
}

// Instance represents an instantiated parser module.
type Instance struct {
	// wazero module instance.
	module api.Module

	// Instance metadata.
	ID        string
	Name      string
	CreatedAt int64

	// Exported functions (cached for performance).
	exports map[string]api.Function

	// Guest memory helper.
	mem *Memory

	// Per-call execution timeout. Zero disables it.
	callTimeout time.Duration
}

// Instantiate creates a new instance from a compiled module.
// Host functions are exported to the Wasm module under the "host" module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// Register the host module once so guest imports resolve.
	m.hostOnce.Do(func() {
		m.hostErr = m.instantiateHostModule(ctx)
	})
	if m.hostErr != nil {
		return nil, fmt.Errorf("failed to register host functions: %w", m.hostErr)
	}

	// Instantiate the guest module in its own sandbox.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions() // do not run _start; add-ons are reactors

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	exports := cacheExportedFunctions(module)

	instance := &Instance{
		module:      module,
		ID:          instanceID,
		Name:        config.ModuleName,
		CreatedAt:   time.Now().Unix(),
		exports:     exports,
		mem:         NewMemory(module),
		callTimeout: m.runtime.config.ExecutionTimeout,
	}

	// Track active instance.
	m.runtime.StoreInstance(instanceID, module)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(exports)),
	)

	return instance, nil
}

// Close closes the instance and releases resources.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

// Invoke calls a guest function through the payload ABI: the payload is
// written into guest memory via allocate, the function receives its pointer
// and length, and the packed u64 result is read back out of guest memory.
// Both regions are released through the guest's free export afterwards.
func (i *Instance) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	fn, ok := i.exports[name]
	if !ok {
		return nil, &FunctionNotFoundError{ModuleName: i.Name, FunctionName: name}
	}

	if i.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.callTimeout)
		defer cancel()
	}

	ptr, length, err := i.mem.WriteBytes(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer i.mem.Free(ctx, ptr, length)

	results, err := fn.Call(ctx, uint64(ptr), uint64(length))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Duration: i.callTimeout}
		}
		return nil, &GuestCallError{
			ModuleName:   i.Name,
			FunctionName: name,
			Err:          err,
		}
	}
	if len(results) == 0 {
		return nil, nil
	}

	outPtr, outLen := apiwasm.SplitPtrLen(results[0])
	if outLen == 0 {
		return nil, nil
	}

	buf, ok := i.mem.ReadBytes(outPtr, outLen)
	if !ok {
		return nil, &MemoryAccessError{
			Operation: "read",
			Address:   outPtr,
			Length:    outLen,
		}
	}

	// Copy before freeing: the returned slice aliases guest memory.
	out := make([]byte, len(buf))
	copy(out, buf)
	i.mem.Free(ctx, outPtr, outLen)

	return out, nil
}

// cacheExportedFunctions caches references to exported functions.
// This improves performance by avoiding repeated lookups.
func cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)

	// Cache the standard add-on functions.
	for _, name := range []string{"allocate", "free", "validate", "complete"} {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}

	return exports
}

// instantiateHostModule registers Go functions for import by Wasm modules.
func (m *InstanceManager) instantiateHostModule(ctx context.Context) error {
	impl := m.hostFuncs
	builder := m.runtime.runtime.NewHostModuleBuilder("host")

	// Wasm modules can call log_message to log through the server's logger.
	builder.NewFunctionBuilder().
		WithFunc(impl.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export("log_message")

	// Wasm modules can call list_clusters to read the known Kafka cluster
	// names as a packed JSON payload.
	builder.NewFunctionBuilder().
		WithFunc(impl.listClusters).
		Export("list_clusters")

	if _, err := builder.Instantiate(ctx); err != nil {
		return err
	}

	return nil
}

// generateInstanceID generates a unique instance ID.
func generateInstanceID() string {
	return fmt.Sprintf("inst-%d", time.Now().UnixNano())
}
