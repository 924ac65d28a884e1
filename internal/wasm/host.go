package wasm

import (
	"context"
	"encoding/json"

	apiwasm "github.com/streamhaus/flink-sql-lsp/api/wasm"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// ClusterSource supplies the Kafka cluster names exposed to parser add-ons
// through the list_clusters host function.
type ClusterSource interface {
	Names() []string
}

// HostFunctionsImpl implements the host functions for Wasm modules.
type HostFunctionsImpl struct {
	logger   *zap.Logger
	clusters ClusterSource
}

// NewHostFunctions creates a new host functions implementation.
func NewHostFunctions(clusters ClusterSource, logger *zap.Logger) *HostFunctionsImpl {
	return &HostFunctionsImpl{
		logger:   logger.With(zap.String("component", "wasm-host")),
		clusters: clusters,
	}
}

// logMessage is called by Wasm modules to log messages.
// Signature: log_message(level, ptr, length)
func (h *HostFunctionsImpl) logMessage(ctx context.Context, mod api.Module, level uint32, ptr uint32, length uint32) {
	msg, ok := mod.Memory().Read(ptr, length)
	if !ok {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	switch level {
	case apiwasm.LogLevelDebug:
		h.logger.Debug(string(msg))
	case apiwasm.LogLevelInfo:
		h.logger.Info(string(msg))
	case apiwasm.LogLevelWarn:
		h.logger.Warn(string(msg))
	case apiwasm.LogLevelError:
		h.logger.Error(string(msg))
	default:
		h.logger.Info(string(msg))
	}
}

// listClusters is called by Wasm modules to read the current Kafka cluster
// names. The list is serialized as JSON into guest memory via the guest's
// allocate export, and the region is returned as a packed pointer/length.
// Signature: list_clusters() -> u64
func (h *HostFunctionsImpl) listClusters(ctx context.Context, mod api.Module) uint64 {
	var names []string
	if h.clusters != nil {
		names = h.clusters.Names()
	}

	payload, err := json.Marshal(apiwasm.ClusterList{Clusters: names})
	if err != nil {
		h.logger.Error("Failed to encode cluster list", zap.Error(err))
		return 0
	}

	alloc := mod.ExportedFunction("allocate")
	if alloc == nil {
		h.logger.Error("Guest module has no allocate export",
			zap.String("module", mod.Name()),
		)
		return 0
	}

	results, err := alloc.Call(ctx, uint64(len(payload)))
	if err != nil || len(results) == 0 {
		h.logger.Error("Guest allocation failed", zap.Error(err))
		return 0
	}

	ptr := uint32(results[0])
	if !mod.Memory().Write(ptr, payload) {
		h.logger.Error("Failed to write cluster list to Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Int("length", len(payload)),
		)
		return 0
	}

	return apiwasm.PackPtrLen(ptr, uint32(len(payload)))
}
