// Package lsp implements the asplint language server: a stdio JSON-RPC loop
// that keeps open ASP documents in memory, re-validates them after edits with
// a debounce, and publishes diagnostics to the client.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shouze/asp-classic-parser/internal/fsutil"
	"github.com/shouze/asp-classic-parser/internal/parser"
	"github.com/shouze/asp-classic-parser/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ParseFunc is the grammar engine the server validates documents with.
type ParseFunc func(text string) error

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	Strict   bool
	Parse    ParseFunc
}

// Server handles stdio JSON-RPC for the asplint LSP.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	openDocs          map[string]string
	versions          map[string]int
	docSeq            map[string]uint64
	timers            map[string]*time.Timer
	shutdownRequested bool

	debounce time.Duration
	strict   bool
	parse    ParseFunc
	diags    *diagCache
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	parseFn := opts.Parse
	if parseFn == nil {
		parseFn = parser.Parse
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		openDocs: make(map[string]string),
		versions: make(map[string]int),
		docSeq:   make(map[string]uint64),
		timers:   make(map[string]*time.Timer),
		debounce: debounce,
		strict:   opts.Strict,
		parse:    parseFn,
		diags:    newDiagCache(),
	}
}

// Run serves LSP requests until shutdown. A background sweeper trims stale
// diagnostics cache entries for the lifetime of the loop.
func (s *Server) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweepLoop(sweepCtx)

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(diagCacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.diags.sweep(diagCacheMaxAge); removed > 0 {
				s.logf("evicted %d stale diagnostics cache entries", removed)
			}
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: serverInfo{
			Name:    "asplint",
			Version: version.Version,
		},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for uri, timer := range s.timers {
		timer.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleValidation(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text := s.openDocs[uri]
	text = applyChanges(text, params.ContentChanges)
	s.openDocs[uri] = text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleValidation(uri)
	return nil
}

// handleDidSave validates synchronously: a save is an explicit checkpoint, so
// the debounce window does not apply.
func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if params.Text != nil {
		s.openDocs[uri] = *params.Text
	}
	s.mu.Unlock()
	s.validateNow(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	delete(s.docSeq, uri)
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	if path := uriToPath(uri); path != "" {
		s.diags.remove(path)
	}
	// Clear any published diagnostics for the closed document.
	return s.sendPublish(uri, nil)
}

// scheduleValidation arms (or re-arms) the per-document debounce timer. Each
// call bumps the document's sequence token; a validation pass that finds a
// newer token when it fires abandons its work, so only the latest edit's
// diagnostics are ever published.
func (s *Server) scheduleValidation(uri string) {
	s.mu.Lock()
	s.docSeq[uri]++
	seq := s.docSeq[uri]
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.debounce, func() {
		s.validate(uri, seq)
	})
	s.mu.Unlock()
}

// validateNow cancels any pending debounce for uri and validates immediately.
func (s *Server) validateNow(uri string) {
	s.mu.Lock()
	s.docSeq[uri]++
	seq := s.docSeq[uri]
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	s.validate(uri, seq)
}

func (s *Server) validate(uri string, seq uint64) {
	s.mu.Lock()
	if seq != s.docSeq[uri] {
		s.mu.Unlock()
		return
	}
	content, open := s.openDocs[uri]
	s.mu.Unlock()
	if !open {
		return
	}

	path := uriToPath(uri)
	if path == "" || !fsutil.IsSourceFile(path) {
		return
	}
	diagnostics := s.diagnosticsFor(path, content)

	// Re-check after the slow part: a newer edit may have superseded this
	// pass while the parser ran.
	s.mu.Lock()
	stale := seq != s.docSeq[uri]
	s.mu.Unlock()
	if stale {
		return
	}
	if err := s.sendPublish(uri, diagnostics); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func (s *Server) documentContent(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.openDocs[uri]
	return content, ok
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
