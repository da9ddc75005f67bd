package lsp

import (
	"github.com/shouze/asp-classic-parser/internal/outcome"
)

// diagnosticSource labels every diagnostic this server publishes.
const diagnosticSource = "asplint"

// diagnosticsFor computes the diagnostics for one document, consulting the
// in-memory cache first. The cache key is the resolved path; a hit requires
// content to match exactly.
func (s *Server) diagnosticsFor(path, content string) []lspDiagnostic {
	if cached, ok := s.diags.get(path, content); ok {
		return cached
	}
	diagnostics := s.computeDiagnostics(content)
	s.diags.put(path, content, diagnostics)
	return diagnostics
}

func (s *Server) computeDiagnostics(content string) []lspDiagnostic {
	o := outcome.Classify(s.parse(content), s.strict)
	switch o.Kind {
	case outcome.Success:
		return []lspDiagnostic{}
	case outcome.Skipped:
		// Recoverable conditions surface as warnings in the editor; they are
		// never suppressed here since an open document deserves the hint.
		return []lspDiagnostic{s.toDiagnostic(o, content)}
	default:
		return []lspDiagnostic{s.toDiagnostic(o, content)}
	}
}

// toDiagnostic converts one outcome to an LSP diagnostic. Outcome positions
// are 1-based; LSP positions are 0-based with UTF-16 columns. The range runs
// from the reported column to the end of the line so the whole offending tail
// is highlighted, with the column clipped to the line's length when the
// parser points past it.
func (s *Server) toDiagnostic(o outcome.Outcome, content string) lspDiagnostic {
	line := o.Line - 1
	if line < 0 {
		line = 0
	}
	lineContent := lineAt(content, line)
	lineLen := utf16Len(lineContent)

	startChar := o.Col - 1
	if startChar < 0 {
		startChar = 0
	}
	if startChar > lineLen {
		startChar = lineLen
	}
	endChar := lineLen
	if endChar < startChar {
		endChar = startChar
	}

	return lspDiagnostic{
		Range: lspRange{
			Start: position{Line: line, Character: startChar},
			End:   position{Line: line, Character: endChar},
		},
		Severity: severityFor(o),
		Source:   diagnosticSource,
		Message:  o.Message,
	}
}

func severityFor(o outcome.Outcome) int {
	switch outcome.Severity(o) {
	case "error":
		return severityError
	case "warning":
		return severityWarning
	case "notice":
		return severityInformation
	}
	return severityError
}
