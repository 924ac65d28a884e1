package diagnostics

import (
	"context"

	"github.com/streamhaus/flink-sql-lsp/internal/document"
	"github.com/streamhaus/flink-sql-lsp/internal/validator"
	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
)

// Source identifies this server in diagnostics shown by the client.
const Source = "Flink SQL"

// Engine produces pull-based diagnostics for open documents.
//
// Validation degrades rather than fails: a missing document, an unavailable
// parser, or a parser call error all yield an empty list. The engine never
// returns a protocol error to the client.
type Engine struct {
	docs     *document.Store
	provider *validator.Provider
	logger   *zap.Logger
}

// NewEngine creates a diagnostics engine.
func NewEngine(docs *document.Store, provider *validator.Provider, logger *zap.Logger) *Engine {
	return &Engine{
		docs:     docs,
		provider: provider,
		logger:   logger.With(zap.String("component", "diagnostics")),
	}
}

// Run validates the document at uri and returns one diagnostic per parser
// error, in parser output order. The returned slice is never nil.
func (e *Engine) Run(ctx context.Context, uri string) []protocol.Diagnostic {
	doc, ok := e.docs.Get(uri)
	if !ok {
		// An unopened or already-closed document is not an error.
		e.logger.Debug("No document open for diagnostics", zap.String("uri", uri))
		return []protocol.Diagnostic{}
	}

	v, err := e.provider.Acquire(ctx)
	if err != nil {
		e.logger.Warn("SQL validator unavailable",
			zap.String("uri", uri),
			zap.Error(err),
		)
		return []protocol.Diagnostic{}
	}

	parserErrors, err := v.Validate(ctx, doc.Text)
	if err != nil {
		e.logger.Warn("Validation failed",
			zap.String("uri", uri),
			zap.Error(err),
		)
		return []protocol.Diagnostic{}
	}

	diagnostics := make([]protocol.Diagnostic, 0, len(parserErrors))
	for _, pe := range parserErrors {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: pe.StartLine, Character: pe.StartColumn},
				End:   protocol.Position{Line: pe.EndLine, Character: pe.EndColumn},
			},
			Severity: protocol.DiagnosticSeverityError,
			Source:   Source,
			Message:  pe.Message,
		})
	}

	e.logger.Debug("Diagnostics computed",
		zap.String("uri", uri),
		zap.Int("count", len(diagnostics)),
	)

	return diagnostics
}

// Revalidate validates uri in the background and discards the result. Fired
// on every content change to keep the parser warm; it does not push
// diagnostics to the client, which re-pulls when it wants fresh results.
func (e *Engine) Revalidate(uri string) {
	go func() {
		e.Run(context.Background(), uri)
	}()
}
