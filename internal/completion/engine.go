package completion

import (
	"strings"

	"github.com/streamhaus/flink-sql-lsp/internal/cluster"
	"github.com/streamhaus/flink-sql-lsp/internal/document"
	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
)

// Data tags correlate a completion item with its resolve-time enrichment.
// Small integers identify the static snippet items; values of
// clusterDataBase and above identify dynamic cluster-name items, offset by
// their index in the cluster list.
const (
	dataCreateTable = 1
	dataSelect      = 2
	dataInsertInto  = 3

	clusterDataBase = 1000
)

// Engine provides two-phase completion: Complete builds the suggestion
// list from the cursor context, Resolve enriches a chosen item from its
// data tag alone.
type Engine struct {
	docs     *document.Store
	clusters *cluster.Store
	logger   *zap.Logger
}

// NewEngine creates a completion engine.
func NewEngine(docs *document.Store, clusters *cluster.Store, logger *zap.Logger) *Engine {
	return &Engine{
		docs:     docs,
		clusters: clusters,
		logger:   logger.With(zap.String("component", "completion")),
	}
}

// Complete returns completion items for the cursor position. The text from
// the start of the cursor's line up to the cursor decides the context: a
// prefix containing "kafka" (case-insensitive) produces one item per known
// cluster name, anything else the three static SQL snippets. The returned
// slice is never nil.
func (e *Engine) Complete(uri string, pos protocol.Position) []protocol.CompletionItem {
	prefix, ok := e.docs.GetText(uri, &protocol.Range{
		Start: protocol.Position{Line: pos.Line, Character: 0},
		End:   pos,
	})
	if !ok {
		e.logger.Warn("No document open for completion", zap.String("uri", uri))
		return []protocol.CompletionItem{}
	}

	if strings.Contains(strings.ToLower(prefix), "kafka") {
		items := e.clusterItems(prefix)
		e.logger.Debug("Cluster-name completion",
			zap.String("uri", uri),
			zap.Int("items", len(items)),
		)
		return items
	}

	return staticItems()
}

// clusterItems builds one item per known cluster name, in list order. The
// insert text wraps the name in backticks; when the prefix already ends in
// a backtick only the closing one is appended, so accepting the item never
// doubles the opener the user typed.
func (e *Engine) clusterItems(prefix string) []protocol.CompletionItem {
	names := e.clusters.Names()

	items := make([]protocol.CompletionItem, 0, len(names))
	for i, name := range names {
		insertText := "`" + name + "`"
		if strings.HasSuffix(prefix, "`") {
			insertText = name + "`"
		}

		items = append(items, protocol.CompletionItem{
			Label:      name + " (Kafka Cluster)",
			Kind:       protocol.CompletionItemKindValue,
			InsertText: insertText,
			Data:       clusterDataBase + i,
		})
	}

	return items
}

// staticItems returns the three fixed snippet suggestions. A fresh slice is
// built per call so callers can mutate their copy freely.
func staticItems() []protocol.CompletionItem {
	return []protocol.CompletionItem{
		{
			Label:            "CREATE TABLE",
			Kind:             protocol.CompletionItemKindSnippet,
			InsertText:       "CREATE TABLE ${1:table_name} (\n  ${2:column_name} ${3:data_type}\n) WITH (\n  'connector' = '${4:connector}'\n);",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Data:             dataCreateTable,
		},
		{
			Label:            "SELECT",
			Kind:             protocol.CompletionItemKindSnippet,
			InsertText:       "SELECT ${1:*} FROM ${2:table_name}",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Data:             dataSelect,
		},
		{
			Label:            "INSERT INTO",
			Kind:             protocol.CompletionItemKindSnippet,
			InsertText:       "INSERT INTO ${1:table_name}",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Data:             dataInsertInto,
		},
	}
}

// Resolve attaches detail and documentation to a selected item, derived
// purely from its data tag. Items with any other tag, including the
// dynamic cluster range, are returned unchanged. Resolve performs no I/O
// and cannot fail.
func (e *Engine) Resolve(item protocol.CompletionItem) protocol.CompletionItem {
	switch item.Data {
	case dataCreateTable:
		item.Detail = "Create a new Flink SQL table"
		item.Documentation = "Defines a table with columns and connector properties in the WITH clause."
	case dataSelect:
		item.Detail = "Select rows from a table"
		item.Documentation = "Queries rows from a Flink SQL table or view."
	case dataInsertInto:
		item.Detail = "Insert rows into a table"
		item.Documentation = "Appends query results or values to a Flink SQL table."
	}
	return item
}
