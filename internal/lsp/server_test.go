package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouze/asp-classic-parser/internal/outcome"
)

func frame(t *testing.T, msg any) []byte {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload))
}

func request(t *testing.T, id int, method string, params any) []byte {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	return frame(t, msg)
}

func notification(t *testing.T, method string, params any) []byte {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if params != nil {
		msg["params"] = params
	}
	return frame(t, msg)
}

func TestServerLifecycle(t *testing.T) {
	var in, out bytes.Buffer
	in.Write(request(t, 1, "initialize", initializeParams{}))
	in.Write(notification(t, "initialized", nil))
	in.Write(request(t, 2, "shutdown", nil))
	in.Write(notification(t, "exit", nil))

	s := NewServer(&in, &out, ServerOptions{})
	err := s.Run(context.Background())
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	output := out.String()
	if !strings.Contains(output, `"hoverProvider":true`) {
		t.Fatalf("capabilities missing hover: %s", output)
	}
	if !strings.Contains(output, `"documentSymbolProvider":true`) {
		t.Fatalf("capabilities missing document symbols: %s", output)
	}
}

func TestServerExitWithoutShutdown(t *testing.T) {
	var in, out bytes.Buffer
	in.Write(notification(t, "exit", nil))

	s := NewServer(&in, &out, ServerOptions{})
	err := s.Run(context.Background())
	if !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestServerSavePublishesDiagnosticsSynchronously(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "broken.asp"))

	var in, out bytes.Buffer
	in.Write(request(t, 1, "initialize", initializeParams{}))
	in.Write(notification(t, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "asp", Version: 1, Text: "<% Dim x"},
	}))
	in.Write(notification(t, "textDocument/didSave", didSaveTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	}))
	in.Write(request(t, 2, "shutdown", nil))
	in.Write(notification(t, "exit", nil))

	s := NewServer(&in, &out, ServerOptions{})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "publishDiagnostics") {
		t.Fatalf("expected published diagnostics, got %s", output)
	}
	if !strings.Contains(output, "unterminated ASP block") {
		t.Fatalf("expected the parse error message, got %s", output)
	}
}

func TestValidateDropsSupersededSequence(t *testing.T) {
	var in, out bytes.Buffer
	s := NewServer(&in, &out, ServerOptions{})
	uri := pathToURI(filepath.Join(t.TempDir(), "page.asp"))

	s.mu.Lock()
	s.openDocs[uri] = "<% Dim x"
	s.docSeq[uri] = 2
	s.mu.Unlock()

	// A validation pass carrying a stale token publishes nothing.
	s.validate(uri, 1)
	if out.Len() != 0 {
		t.Fatalf("stale validation must not publish, got %s", out.String())
	}

	// The latest token does publish.
	s.validate(uri, 2)
	if !strings.Contains(out.String(), "publishDiagnostics") {
		t.Fatalf("expected a publish, got %s", out.String())
	}
}

func TestDiagnosticsForCachesByContent(t *testing.T) {
	calls := 0
	s := NewServer(&bytes.Buffer{}, &bytes.Buffer{}, ServerOptions{
		Parse: func(text string) error {
			calls++
			return nil
		},
	})

	s.diagnosticsFor("/p/a.asp", "<% Dim x %>")
	s.diagnosticsFor("/p/a.asp", "<% Dim x %>")
	if calls != 1 {
		t.Fatalf("identical content should hit the cache, got %d calls", calls)
	}

	s.diagnosticsFor("/p/a.asp", "<% Dim y %>")
	if calls != 2 {
		t.Fatalf("changed content should re-parse, got %d calls", calls)
	}
}

func TestComputeDiagnosticsSeverity(t *testing.T) {
	s := NewServer(&bytes.Buffer{}, &bytes.Buffer{}, ServerOptions{})

	if diags := s.computeDiagnostics("<% Dim x %>"); len(diags) != 0 {
		t.Fatalf("valid input should yield no diagnostics, got %+v", diags)
	}

	diags := s.computeDiagnostics("<html>only</html>")
	if len(diags) != 1 || diags[0].Severity != severityWarning {
		t.Fatalf("no-asp-tags should be a warning, got %+v", diags)
	}

	diags = s.computeDiagnostics("<% Dim x")
	if len(diags) != 1 || diags[0].Severity != severityError {
		t.Fatalf("syntax errors should be errors, got %+v", diags)
	}
	if diags[0].Source != diagnosticSource {
		t.Fatalf("unexpected source %q", diags[0].Source)
	}
}

func TestComputeDiagnosticsStrictPromotes(t *testing.T) {
	s := NewServer(&bytes.Buffer{}, &bytes.Buffer{}, ServerOptions{Strict: true})
	diags := s.computeDiagnostics("<html>only</html>")
	if len(diags) != 1 || diags[0].Severity != severityError {
		t.Fatalf("strict mode should promote to error, got %+v", diags)
	}
}

func TestToDiagnosticClipsColumn(t *testing.T) {
	s := NewServer(&bytes.Buffer{}, &bytes.Buffer{}, ServerOptions{})
	content := "<% x %>\nshort"

	// The parser claims column 90 on a 5-character line.
	d := s.toDiagnostic(outcome.Outcome{Kind: outcome.Error, Message: "boom", Line: 2, Col: 90}, content)
	if d.Range.Start.Line != 1 {
		t.Fatalf("expected line 1, got %d", d.Range.Start.Line)
	}
	if d.Range.Start.Character != 5 || d.Range.End.Character != 5 {
		t.Fatalf("column should clip to line length, got %+v", d.Range)
	}
}

func TestHoverKnownKeyword(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(&bytes.Buffer{}, &out, ServerOptions{})
	uri := pathToURI(filepath.Join(t.TempDir(), "page.asp"))
	s.mu.Lock()
	s.openDocs[uri] = `<% Response.Write "x" %>`
	s.mu.Unlock()

	params, _ := json.Marshal(hoverParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 0, Character: 5},
	})
	if err := s.handleHover(&rpcMessage{ID: json.RawMessage("1"), Params: params}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Response** Object") {
		t.Fatalf("expected hover documentation, got %s", out.String())
	}
}

func TestWordAt(t *testing.T) {
	text := "<% Response.Write x %>"
	if w := wordAt(text, position{Line: 0, Character: 5}); w != "Response" {
		t.Fatalf("expected Response, got %q", w)
	}
	if w := wordAt(text, position{Line: 0, Character: 0}); w != "" {
		t.Fatalf("expected no word on punctuation, got %q", w)
	}
}
