package lsp

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/streamhaus/flink-sql-lsp/internal/cluster"
	"github.com/streamhaus/flink-sql-lsp/internal/completion"
	"github.com/streamhaus/flink-sql-lsp/internal/diagnostics"
	"github.com/streamhaus/flink-sql-lsp/internal/document"
	"go.uber.org/zap"
)

// errExit signals that the client sent the exit notification.
var errExit = errors.New("exit requested")

// Session serves the LSP protocol for one connected editor. Document state
// is per session; the cluster store and validator provider are shared with
// the owning server.
type Session struct {
	conn   *Conn
	logger *zap.Logger

	docs        *document.Store
	clusters    *cluster.Store
	diagnostics *diagnostics.Engine
	completion  *completion.Engine

	serverName    string
	serverVersion string

	// Capability flags captured during initialize. Written only by the
	// initialize handler, which runs on the read loop.
	hasConfigurationCapability   bool
	hasWorkspaceFolderCapability bool

	shutdownRequested bool
}

// Run reads and dispatches messages until the client disconnects or sends
// exit. It returns nil on a clean shutdown.
func (s *Session) Run() error {
	s.logger.Info("Session started")

	for {
		msg, err := s.conn.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("Client disconnected")
				return nil
			}
			return err
		}

		if err := s.dispatch(msg); err != nil {
			if errors.Is(err, errExit) {
				s.logger.Info("Session closed",
					zap.Bool("clean", s.shutdownRequested),
				)
				return nil
			}
			return err
		}
	}
}

// dispatch routes one message to its handler. Lifecycle methods and
// document sync run inline so their effects are ordered; read-only
// requests run on their own goroutines and may answer out of order.
func (s *Session) dispatch(msg *message) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.handleInitialized()
		return nil
	case "shutdown":
		s.shutdownRequested = true
		return s.conn.Reply(msg.ID, nil)
	case "exit":
		return errExit
	case "textDocument/didOpen":
		s.handleDidOpen(msg)
		return nil
	case "textDocument/didChange":
		s.handleDidChange(msg)
		return nil
	case "textDocument/didClose":
		s.handleDidClose(msg)
		return nil
	case "textDocument/diagnostic":
		go s.handleDiagnostic(msg)
		return nil
	case "textDocument/completion":
		go s.handleCompletion(msg)
		return nil
	case "completionItem/resolve":
		go s.handleResolve(msg)
		return nil
	case "workspace/didChangeConfiguration":
		s.handleDidChangeConfiguration(msg)
		return nil
	case "workspace/didChangeWatchedFiles":
		s.handleDidChangeWatchedFiles(msg)
		return nil
	case "workspace/didChangeWorkspaceFolders":
		s.handleDidChangeWorkspaceFolders(msg)
		return nil
	case "setKafkaClusters":
		return s.handleSetKafkaClusters(msg)
	default:
		return s.handleUnknown(msg)
	}
}

// handleUnknown acknowledges requests for methods this server does not
// implement with a null result rather than a MethodNotFound error, so
// hosts probing optional methods see a benign answer. Unknown
// notifications are dropped.
func (s *Session) handleUnknown(msg *message) error {
	s.logger.Debug("Unhandled method", zap.String("method", msg.Method))

	if len(msg.ID) > 0 {
		return s.conn.Reply(msg.ID, nil)
	}
	return nil
}

// reply answers a request from a handler goroutine, logging write failures
// instead of tearing the session down.
func (s *Session) reply(id json.RawMessage, result any) {
	if err := s.conn.Reply(id, result); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Session) replyError(id json.RawMessage, code int, msg string) {
	if err := s.conn.ReplyError(id, code, msg); err != nil {
		s.logger.Warn("Failed to write error response", zap.Error(err))
	}
}
