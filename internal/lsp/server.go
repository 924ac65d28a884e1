package lsp

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/streamhaus/flink-sql-lsp/internal/addon"
	"github.com/streamhaus/flink-sql-lsp/internal/cluster"
	"github.com/streamhaus/flink-sql-lsp/internal/completion"
	"github.com/streamhaus/flink-sql-lsp/internal/config"
	"github.com/streamhaus/flink-sql-lsp/internal/diagnostics"
	"github.com/streamhaus/flink-sql-lsp/internal/document"
	"github.com/streamhaus/flink-sql-lsp/internal/validator"
	"github.com/streamhaus/flink-sql-lsp/internal/wasm"
	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serverName = "flink-sql-lsp"

// Server owns the process-wide pieces of the language server: the Wasm
// runtime, the loaded parser add-ons, the Kafka cluster store, and the
// validator provider. Each connected editor gets its own Session on top.
type Server struct {
	cfg     *config.ServerConfig
	logger  *zap.Logger
	version string

	wasmRuntime *wasm.Runtime
	addons      *addon.Manager
	clusters    *cluster.Store
	provider    *validator.Provider
}

// NewServer builds the runtime, discovers parser add-ons, and wires the
// validator provider. A server with no usable add-on still starts;
// diagnostics degrade to empty reports until one is available.
func NewServer(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger, version string) (*Server, error) {
	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:      cfg.Wasm.MemoryPages,
		DebugEnabled:     cfg.Wasm.Debug,
		CacheDir:         cfg.Wasm.CacheDir,
		MaxInstances:     cfg.Wasm.MaxInstances,
		ExecutionTimeout: time.Duration(cfg.Wasm.ExecutionTimeout) * time.Second,
	}

	wasmRuntime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	clusters := cluster.NewStore(logger)
	hostFuncs := wasm.NewHostFunctions(clusters, logger)
	addons := addon.NewManager(cfg, wasmRuntime, hostFuncs, logger)

	if err := addons.LoadAll(ctx); err != nil {
		logger.Warn("Add-on loading failed, validation disabled", zap.Error(err))
	}

	provider := validator.NewProvider(
		validator.NewAddonAcquire(addons, cfg.Engine, logger),
		logger,
	)

	logger.Info("LSP server initialized",
		zap.String("engine", cfg.Engine),
		zap.Int("addons", addons.Registry().Count()),
		zap.Uint32("wasm_memory_pages", cfg.Wasm.MemoryPages),
		zap.String("wasm_cache_dir", cfg.Wasm.CacheDir),
	)

	return &Server{
		cfg:         cfg,
		logger:      logger,
		version:     version,
		wasmRuntime: wasmRuntime,
		addons:      addons,
		clusters:    clusters,
		provider:    provider,
	}, nil
}

// Close gracefully shuts down the server.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down LSP server")

	if err := s.addons.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown add-on manager", zap.Error(err))
		return err
	}

	s.logger.Info("LSP server shutdown complete")
	return nil
}

// newSession binds a transport to a fresh session with its own document
// store. Warnings and errors from the session's logger are mirrored to the
// client's console via window/logMessage.
func (s *Server) newSession(r io.Reader, w io.Writer) *Session {
	conn := NewConn(r, w, s.logger)

	logger := s.logger.WithOptions(zap.Hooks(func(entry zapcore.Entry) error {
		if entry.Level < zapcore.WarnLevel {
			return nil
		}
		level := protocol.MessageTypeWarning
		if entry.Level >= zapcore.ErrorLevel {
			level = protocol.MessageTypeError
		}
		conn.Console(level, entry.Message)
		return nil
	}))

	docs := document.NewStore(logger)

	return &Session{
		conn:          conn,
		logger:        logger.With(zap.String("component", "lsp-session")),
		docs:          docs,
		clusters:      s.clusters,
		diagnostics:   diagnostics.NewEngine(docs, s.provider, logger),
		completion:    completion.NewEngine(docs, s.clusters, logger),
		serverName:    serverName,
		serverVersion: s.version,
	}
}

// ServeStdio runs a single session over stdin and stdout. It returns when
// the editor disconnects or sends exit.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("Serving LSP over stdio")
	return s.newSession(os.Stdin, os.Stdout).Run()
}

// ServeTCP accepts editor connections on the given port, one session per
// connection. It returns when ctx is cancelled.
func (s *Server) ServeTCP(ctx context.Context, port int) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	defer listener.Close()

	s.logger.Info("Serving LSP over TCP", zap.String("addr", listener.Addr().String()))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.logger.Info("Editor connected", zap.String("remote", conn.RemoteAddr().String()))

		go func(c net.Conn) {
			defer c.Close()
			if err := s.newSession(c, c).Run(); err != nil {
				s.logger.Warn("Session ended with error", zap.Error(err))
			}
		}(conn)
	}
}
