package lsp

import (
	"testing"

	"github.com/streamhaus/flink-sql-lsp/internal/validator"
)

func TestHandleInitializeCapabilities(t *testing.T) {
	h := newTestSession(t, nil)

	params := `{"capabilities":{"workspace":{"configuration":true,"workspaceFolders":true}},"clientInfo":{"name":"vscode","version":"1.92"}}`
	if err := h.session.handleInitialize(&message{ID: raw("1"), Params: raw(params)}); err != nil {
		t.Fatalf("handleInitialize failed: %v", err)
	}

	if !h.session.hasConfigurationCapability {
		t.Error("expected configuration capability to be recorded")
	}
	if !h.session.hasWorkspaceFolderCapability {
		t.Error("expected workspace folder capability to be recorded")
	}

	resp := h.response(t)
	result := resp["result"].(map[string]any)
	caps := result["capabilities"].(map[string]any)

	if caps["textDocumentSync"] != float64(2) {
		t.Errorf("expected incremental sync (2), got %v", caps["textDocumentSync"])
	}

	completionProvider := caps["completionProvider"].(map[string]any)
	if completionProvider["resolveProvider"] != true {
		t.Errorf("expected resolveProvider true, got %v", completionProvider["resolveProvider"])
	}

	diagnosticProvider := caps["diagnosticProvider"].(map[string]any)
	if diagnosticProvider["interFileDependencies"] != false {
		t.Errorf("expected interFileDependencies false, got %v", diagnosticProvider["interFileDependencies"])
	}
	if diagnosticProvider["workspaceDiagnostics"] != false {
		t.Errorf("expected workspaceDiagnostics false, got %v", diagnosticProvider["workspaceDiagnostics"])
	}

	workspace := caps["workspace"].(map[string]any)
	folders := workspace["workspaceFolders"].(map[string]any)
	if folders["supported"] != true {
		t.Errorf("expected workspaceFolders.supported true, got %v", folders["supported"])
	}

	serverInfo := result["serverInfo"].(map[string]any)
	if serverInfo["name"] != "flink-sql-lsp" {
		t.Errorf("unexpected server name: %v", serverInfo["name"])
	}
}

func TestHandleInitializeWithoutWorkspaceCapabilities(t *testing.T) {
	h := newTestSession(t, nil)

	if err := h.session.handleInitialize(&message{ID: raw("1"), Params: raw(`{"capabilities":{}}`)}); err != nil {
		t.Fatalf("handleInitialize failed: %v", err)
	}

	if h.session.hasConfigurationCapability || h.session.hasWorkspaceFolderCapability {
		t.Error("expected no workspace capabilities to be recorded")
	}

	resp := h.response(t)
	caps := resp["result"].(map[string]any)["capabilities"].(map[string]any)
	if _, ok := caps["workspace"]; ok {
		t.Errorf("workspace capability must be omitted for clients without folder support, got %v", caps["workspace"])
	}
}

func TestHandleInitializeEmptyParams(t *testing.T) {
	h := newTestSession(t, nil)

	if err := h.session.handleInitialize(&message{ID: raw("1")}); err != nil {
		t.Fatalf("handleInitialize failed: %v", err)
	}

	resp := h.response(t)
	if resp["id"] != float64(1) {
		t.Errorf("expected a reply to id 1, got %v", resp)
	}
}

func TestHandleDidOpenChangeClose(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleDidOpen(&message{
		Method: "textDocument/didOpen",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SELECT 1"}}`),
	})

	doc, ok := h.docs.Get("file:///q.sql")
	if !ok {
		t.Fatal("expected document to be stored after didOpen")
	}
	if doc.Text != "SELECT 1" || doc.Version != 1 || doc.LanguageID != "sql" {
		t.Errorf("unexpected document state: %+v", doc)
	}

	h.session.handleDidChange(&message{
		Method: "textDocument/didChange",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","version":2},"contentChanges":[{"range":{"start":{"line":0,"character":7},"end":{"line":0,"character":8}},"text":"2"}]}`),
	})

	doc, _ = h.docs.Get("file:///q.sql")
	if doc.Text != "SELECT 2" {
		t.Errorf("expected text 'SELECT 2', got %q", doc.Text)
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}

	h.session.handleDidClose(&message{
		Method: "textDocument/didClose",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql"}}`),
	})

	if _, ok := h.docs.Get("file:///q.sql"); ok {
		t.Error("expected document to be removed after didClose")
	}
}

func TestHandleDidChangeUnknownDocument(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleDidChange(&message{
		Method: "textDocument/didChange",
		Params: raw(`{"textDocument":{"uri":"file:///ghost.sql","version":2},"contentChanges":[{"text":"SELECT 1"}]}`),
	})

	if h.docs.Count() != 0 {
		t.Errorf("expected no documents, got %d", h.docs.Count())
	}
	if h.out.Len() != 0 {
		t.Errorf("notifications must not produce output, wrote %q", h.out.String())
	}
}

func TestHandleDiagnosticReportsFindings(t *testing.T) {
	stub := &stubValidator{findings: []validator.ParserError{{
		StartLine:   0,
		StartColumn: 9,
		EndLine:     0,
		EndColumn:   13,
		Message:     "unexpected token 'FORM'",
	}}}
	h := newTestSession(t, stub)

	h.session.handleDidOpen(&message{
		Method: "textDocument/didOpen",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SELECT * FORM t"}}`),
	})

	h.session.handleDiagnostic(&message{
		ID:     raw("7"),
		Method: "textDocument/diagnostic",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql"}}`),
	})

	resp := h.response(t)
	report := resp["result"].(map[string]any)
	if report["kind"] != "full" {
		t.Errorf("expected kind full, got %v", report["kind"])
	}

	items := report["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["message"] != "unexpected token 'FORM'" {
		t.Errorf("unexpected message: %v", item["message"])
	}
	if item["severity"] != float64(1) {
		t.Errorf("expected severity 1, got %v", item["severity"])
	}
	if item["source"] != "Flink SQL" {
		t.Errorf("expected source 'Flink SQL', got %v", item["source"])
	}
	start := item["range"].(map[string]any)["start"].(map[string]any)
	if start["line"] != float64(0) || start["character"] != float64(9) {
		t.Errorf("unexpected start position: %v", start)
	}
}

func TestHandleDiagnosticUnknownDocument(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleDiagnostic(&message{
		ID:     raw("7"),
		Method: "textDocument/diagnostic",
		Params: raw(`{"textDocument":{"uri":"file:///ghost.sql"}}`),
	})

	resp := h.response(t)
	report := resp["result"].(map[string]any)
	if report["kind"] != "full" {
		t.Errorf("expected kind full, got %v", report["kind"])
	}
	items, ok := report["items"].([]any)
	if !ok {
		t.Fatalf("items must be an empty array, not null: %v", report["items"])
	}
	if len(items) != 0 {
		t.Errorf("expected no diagnostics, got %v", items)
	}
}

func TestHandleDiagnosticNoValidator(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleDidOpen(&message{
		Method: "textDocument/didOpen",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SELECT 1"}}`),
	})
	h.session.handleDiagnostic(&message{
		ID:     raw("8"),
		Method: "textDocument/diagnostic",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql"}}`),
	})

	resp := h.response(t)
	report := resp["result"].(map[string]any)
	items, ok := report["items"].([]any)
	if !ok || len(items) != 0 {
		t.Errorf("expected an empty item list when validation is unavailable, got %v", report["items"])
	}
}

func TestHandleCompletionKafkaContext(t *testing.T) {
	h := newTestSession(t, nil)
	h.clusters.Replace([]string{"prod-1", "stage-2"})

	h.session.handleDidOpen(&message{
		Method: "textDocument/didOpen",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SELECT * FROM kafka."}}`),
	})
	h.session.handleCompletion(&message{
		ID:     raw("3"),
		Method: "textDocument/completion",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql"},"position":{"line":0,"character":20}}`),
	})

	resp := h.response(t)
	items := resp["result"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 cluster items, got %d", len(items))
	}

	first := items[0].(map[string]any)
	if first["label"] != "prod-1 (Kafka Cluster)" {
		t.Errorf("unexpected label: %v", first["label"])
	}
	if first["insertText"] != "`prod-1`" {
		t.Errorf("unexpected insertText: %v", first["insertText"])
	}
	if first["kind"] != float64(12) {
		t.Errorf("expected kind Value (12), got %v", first["kind"])
	}
	if first["data"] != float64(1000) {
		t.Errorf("expected data 1000, got %v", first["data"])
	}
}

func TestHandleCompletionStaticSnippets(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleDidOpen(&message{
		Method: "textDocument/didOpen",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SEL"}}`),
	})
	h.session.handleCompletion(&message{
		ID:     raw("3"),
		Method: "textDocument/completion",
		Params: raw(`{"textDocument":{"uri":"file:///q.sql"},"position":{"line":0,"character":3}}`),
	})

	resp := h.response(t)
	items := resp["result"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 snippets, got %d", len(items))
	}

	labels := []string{"CREATE TABLE", "SELECT", "INSERT INTO"}
	for i, want := range labels {
		item := items[i].(map[string]any)
		if item["label"] != want {
			t.Errorf("item %d: expected label %q, got %v", i, want, item["label"])
		}
		if item["kind"] != float64(15) {
			t.Errorf("item %d: expected kind Snippet (15), got %v", i, item["kind"])
		}
		if item["insertTextFormat"] != float64(2) {
			t.Errorf("item %d: expected snippet format, got %v", i, item["insertTextFormat"])
		}
		if item["data"] != float64(i+1) {
			t.Errorf("item %d: expected data %d, got %v", i, i+1, item["data"])
		}
	}
}

func TestHandleCompletionInvalidParams(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleCompletion(&message{
		ID:     raw("3"),
		Method: "textDocument/completion",
		Params: raw(`{"textDocument":5}`),
	})

	resp := h.response(t)
	respErr, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected an error response, got %v", resp)
	}
	if respErr["code"] != float64(codeInvalidParams) {
		t.Errorf("expected code %d, got %v", codeInvalidParams, respErr["code"])
	}
}

func TestHandleResolveStaticSnippet(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleResolve(&message{
		ID:     raw("4"),
		Method: "completionItem/resolve",
		Params: raw(`{"label":"CREATE TABLE","kind":15,"data":1}`),
	})

	resp := h.response(t)
	item := resp["result"].(map[string]any)
	if item["detail"] != "Create a new Flink SQL table" {
		t.Errorf("unexpected detail: %v", item["detail"])
	}
	if item["documentation"] == nil {
		t.Error("expected documentation to be filled in")
	}
	if item["label"] != "CREATE TABLE" {
		t.Errorf("resolve must preserve the label, got %v", item["label"])
	}
}

func TestHandleResolveUnknownTag(t *testing.T) {
	h := newTestSession(t, nil)

	h.session.handleResolve(&message{
		ID:     raw("4"),
		Method: "completionItem/resolve",
		Params: raw(`{"label":"mystery","data":999}`),
	})

	resp := h.response(t)
	item := resp["result"].(map[string]any)
	if _, ok := item["detail"]; ok {
		t.Errorf("unknown tags must pass through unchanged, got detail %v", item["detail"])
	}
	if item["label"] != "mystery" {
		t.Errorf("unexpected label: %v", item["label"])
	}
}

func TestHandleSetKafkaClustersRequest(t *testing.T) {
	h := newTestSession(t, nil)

	if err := h.session.handleSetKafkaClusters(&message{
		ID:     raw("5"),
		Method: "setKafkaClusters",
		Params: raw(`{"clusters":["prod-1","stage-2"]}`),
	}); err != nil {
		t.Fatalf("handleSetKafkaClusters failed: %v", err)
	}

	names := h.clusters.Names()
	if len(names) != 2 || names[0] != "prod-1" || names[1] != "stage-2" {
		t.Errorf("unexpected cluster names: %v", names)
	}

	resp := h.response(t)
	if resp["id"] != float64(5) {
		t.Errorf("expected ack for id 5, got %v", resp["id"])
	}
	if result, ok := resp["result"]; !ok || result != nil {
		t.Errorf("expected null ack, got %v", resp)
	}
}

func TestHandleSetKafkaClustersNotification(t *testing.T) {
	h := newTestSession(t, nil)

	if err := h.session.handleSetKafkaClusters(&message{
		Method: "setKafkaClusters",
		Params: raw(`{"clusters":["prod-1"]}`),
	}); err != nil {
		t.Fatalf("handleSetKafkaClusters failed: %v", err)
	}

	if h.out.Len() != 0 {
		t.Errorf("notifications must not be acknowledged, wrote %q", h.out.String())
	}
	if h.clusters.Count() != 1 {
		t.Errorf("expected 1 cluster, got %d", h.clusters.Count())
	}
}

func TestHandleSetKafkaClustersLastWriteWins(t *testing.T) {
	h := newTestSession(t, nil)

	for _, payload := range []string{
		`{"clusters":["old-1","old-2"]}`,
		`{"clusters":["new-1"]}`,
	} {
		if err := h.session.handleSetKafkaClusters(&message{
			Method: "setKafkaClusters",
			Params: raw(payload),
		}); err != nil {
			t.Fatalf("handleSetKafkaClusters failed: %v", err)
		}
	}

	names := h.clusters.Names()
	if len(names) != 1 || names[0] != "new-1" {
		t.Errorf("expected the latest list to win, got %v", names)
	}
}

func TestHandleSetKafkaClustersInvalidParams(t *testing.T) {
	h := newTestSession(t, nil)
	h.clusters.Replace([]string{"keep-me"})

	if err := h.session.handleSetKafkaClusters(&message{
		ID:     raw("6"),
		Method: "setKafkaClusters",
		Params: raw(`{"clusters":"not-a-list"}`),
	}); err != nil {
		t.Fatalf("handleSetKafkaClusters failed: %v", err)
	}

	// The previous list survives a malformed update.
	names := h.clusters.Names()
	if len(names) != 1 || names[0] != "keep-me" {
		t.Errorf("expected the previous list to survive, got %v", names)
	}

	resp := h.response(t)
	respErr, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected an error response, got %v", resp)
	}
	if respErr["code"] != float64(codeInvalidParams) {
		t.Errorf("expected code %d, got %v", codeInvalidParams, respErr["code"])
	}
}
