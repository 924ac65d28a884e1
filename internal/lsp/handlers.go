package lsp

import (
	"context"
	"encoding/json"

	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
)

// handleInitialize records the client's capabilities and advertises the
// server's: incremental sync, completion with resolve support, and pull
// diagnostics. Workspace folder support is echoed back only when the
// client announced it.
func (s *Session) handleInitialize(msg *message) error {
	var params protocol.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.conn.ReplyError(msg.ID, codeInvalidParams, "invalid initialize params")
		}
	}

	if ws := params.Capabilities.Workspace; ws != nil {
		s.hasConfigurationCapability = ws.Configuration
		s.hasWorkspaceFolderCapability = ws.WorkspaceFolders
	}

	if params.ClientInfo != nil {
		s.logger.Info("Client connected",
			zap.String("client", params.ClientInfo.Name),
			zap.String("client_version", params.ClientInfo.Version),
		)
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindIncremental,
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: true,
			},
			DiagnosticProvider: &protocol.DiagnosticOptions{
				InterFileDependencies: false,
				WorkspaceDiagnostics:  false,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    s.serverName,
			Version: s.serverVersion,
		},
	}

	if s.hasWorkspaceFolderCapability {
		result.Capabilities.Workspace = &protocol.ServerWorkspaceCapabilities{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported: true,
			},
		}
	}

	return s.conn.Reply(msg.ID, result)
}

// handleInitialized finishes the handshake. When the client supports
// workspace/configuration, the server registers for configuration change
// notifications dynamically. The registration response arrives on the
// read loop, so the call runs on its own goroutine.
func (s *Session) handleInitialized() {
	s.logger.Info("Initialization complete")

	if s.hasConfigurationCapability {
		go func() {
			params := protocol.RegistrationParams{
				Registrations: []protocol.Registration{{
					ID:     "workspace/didChangeConfiguration",
					Method: "workspace/didChangeConfiguration",
				}},
			}
			if _, err := s.conn.Call(context.Background(), "client/registerCapability", params); err != nil {
				s.logger.Warn("Dynamic registration failed", zap.Error(err))
			}
		}()
	}

	if s.hasWorkspaceFolderCapability {
		s.logger.Debug("Workspace folder change notifications enabled")
	}
}

func (s *Session) handleDidOpen(msg *message) {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Malformed didOpen params", zap.Error(err))
		return
	}

	td := params.TextDocument
	s.docs.Open(td.URI, td.LanguageID, td.Version, td.Text)
	s.diagnostics.Revalidate(td.URI)
}

func (s *Session) handleDidChange(msg *message) {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Malformed didChange params", zap.Error(err))
		return
	}

	td := params.TextDocument
	if err := s.docs.ApplyChanges(td.URI, td.Version, params.ContentChanges); err != nil {
		s.logger.Warn("Dropping change batch", zap.String("uri", td.URI), zap.Error(err))
		return
	}
	s.diagnostics.Revalidate(td.URI)
}

func (s *Session) handleDidClose(msg *message) {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Malformed didClose params", zap.Error(err))
		return
	}

	if !s.docs.Close(params.TextDocument.URI) {
		s.logger.Debug("Close for unopened document",
			zap.String("uri", params.TextDocument.URI),
		)
	}
}

// handleDiagnostic answers a textDocument/diagnostic pull with a full
// report. The item list is never null, even when the document is unknown
// or validation is unavailable.
func (s *Session) handleDiagnostic(msg *message) {
	var params protocol.DocumentDiagnosticParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.replyError(msg.ID, codeInvalidParams, "invalid diagnostic params")
		return
	}

	items := s.diagnostics.Run(context.Background(), params.TextDocument.URI)

	s.reply(msg.ID, protocol.FullDocumentDiagnosticReport{
		Kind:  protocol.DiagnosticReportKindFull,
		Items: items,
	})
}

func (s *Session) handleCompletion(msg *message) {
	var params protocol.CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.replyError(msg.ID, codeInvalidParams, "invalid completion params")
		return
	}

	items := s.completion.Complete(params.TextDocument.URI, params.Position)
	s.reply(msg.ID, items)
}

func (s *Session) handleResolve(msg *message) {
	var item protocol.CompletionItem
	if err := json.Unmarshal(msg.Params, &item); err != nil {
		s.replyError(msg.ID, codeInvalidParams, "invalid completion item")
		return
	}

	s.reply(msg.ID, s.completion.Resolve(item))
}

func (s *Session) handleDidChangeConfiguration(msg *message) {
	// Settings are host-managed; the server only acknowledges the event.
	s.logger.Debug("Configuration changed")
}

func (s *Session) handleDidChangeWatchedFiles(msg *message) {
	var params protocol.DidChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Malformed didChangeWatchedFiles params", zap.Error(err))
		return
	}

	s.logger.Debug("Watched files changed", zap.Int("count", len(params.Changes)))
}

func (s *Session) handleDidChangeWorkspaceFolders(msg *message) {
	var params protocol.DidChangeWorkspaceFoldersParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Malformed didChangeWorkspaceFolders params", zap.Error(err))
		return
	}

	s.logger.Info("Workspace folders changed",
		zap.Int("added", len(params.Event.Added)),
		zap.Int("removed", len(params.Event.Removed)),
	)
}

// handleSetKafkaClusters replaces the advertised Kafka cluster list. Hosts
// send it as a request or a notification; an acknowledgement goes out only
// when an id is present.
func (s *Session) handleSetKafkaClusters(msg *message) error {
	var params protocol.SetKafkaClustersParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.logger.Warn("Malformed setKafkaClusters params", zap.Error(err))
			if len(msg.ID) > 0 {
				return s.conn.ReplyError(msg.ID, codeInvalidParams, "invalid setKafkaClusters params")
			}
			return nil
		}
	}

	s.clusters.Replace(params.Clusters)

	if len(msg.ID) > 0 {
		return s.conn.Reply(msg.ID, nil)
	}
	return nil
}
