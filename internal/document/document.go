package document

import (
	"sync"

	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
)

// Document is the authoritative in-memory state of one open text document.
type Document struct {
	URI        string
	LanguageID string
	Version    int
	Text       string
}

// Store tracks every open document, keyed by URI.
//
// There is at most one live Document per URI; it is created on didOpen,
// mutated in place on each didChange, and removed on didClose. Get returns
// a value snapshot so callers never observe a document mid-edit.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	logger *zap.Logger
}

// NewStore creates an empty document store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		docs:   make(map[string]*Document),
		logger: logger.With(zap.String("component", "document-store")),
	}
}

// Open registers a document with the exact text the client reported.
// Reopening a URI replaces the previous document wholesale.
func (s *Store) Open(uri, languageID string, version int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}

	s.logger.Debug("Document opened",
		zap.String("uri", uri),
		zap.String("language_id", languageID),
		zap.Int("version", version),
	)
}

// ApplyChanges applies a didChange notification: every edit range is applied
// in message order against the text produced by the previous edit. The
// version advances by exactly one per notification; a client-supplied
// version wins when it is ahead of the stored one.
func (s *Store) ApplyChanges(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return &NotOpenError{URI: uri}
	}

	for _, change := range changes {
		if change.Range == nil {
			doc.Text = change.Text
			continue
		}
		start := offsetAt(doc.Text, change.Range.Start)
		end := offsetAt(doc.Text, change.Range.End)
		if end < start {
			start, end = end, start
		}
		doc.Text = doc.Text[:start] + change.Text + doc.Text[end:]
	}

	if version > doc.Version {
		doc.Version = version
	} else {
		doc.Version++
	}

	s.logger.Debug("Document changed",
		zap.String("uri", uri),
		zap.Int("version", doc.Version),
		zap.Int("edits", len(changes)),
	)

	return nil
}

// Close removes a document. Diagnostics and completions computed for the URI
// are stale from this point on.
func (s *Store) Close(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; !ok {
		return false
	}
	delete(s.docs, uri)

	s.logger.Debug("Document closed", zap.String("uri", uri))
	return true
}

// Get returns a snapshot of the document for uri.
func (s *Store) Get(uri string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[uri]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// GetText returns the document text within rng, or the whole text when rng
// is nil. Positions outside the document clamp to its bounds.
func (s *Store) GetText(uri string, rng *protocol.Range) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[uri]
	if !ok {
		return "", false
	}
	if rng == nil {
		return doc.Text, true
	}

	start := offsetAt(doc.Text, rng.Start)
	end := offsetAt(doc.Text, rng.End)
	if end < start {
		start, end = end, start
	}
	return doc.Text[start:end], true
}

// Count returns the number of open documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}
