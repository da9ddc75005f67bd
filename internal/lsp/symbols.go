package lsp

import (
	"encoding/json"
	"regexp"
	"strings"
)

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	content, ok := s.documentContent(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []documentSymbol{})
	}
	return s.sendResponse(msg.ID, extractSymbols(content))
}

var (
	functionRe    = regexp.MustCompile(`(?i)^\s*(function|sub)\s+([a-z0-9_]+)`)
	endFunctionRe = regexp.MustCompile(`(?i)^\s*end\s+(function|sub)`)
	classRe       = regexp.MustCompile(`(?i)^\s*class\s+([a-z0-9_]+)`)
	endClassRe    = regexp.MustCompile(`(?i)^\s*end\s+class`)
	dimRe         = regexp.MustCompile(`(?i)^\s*dim\s+([a-z0-9_,\s]+)`)
)

// extractSymbols scans server-side code lines for Function, Sub, Class and
// Dim declarations and builds the nested symbol tree. Lines outside ASP tags
// are HTML and are skipped wholesale.
func extractSymbols(content string) []documentSymbol {
	lines := strings.Split(content, "\n")
	inTag := aspTagLines(content, len(lines))

	var top []documentSymbol
	var stack []documentSymbol

	attach := func(sym documentSymbol) {
		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			parent.Children = append(parent.Children, sym)
		} else {
			top = append(top, sym)
		}
	}
	pop := func(endLine int) {
		if len(stack) == 0 {
			return
		}
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sym.Range.End = position{Line: endLine, Character: 0}
		attach(sym)
	}

	for i, line := range lines {
		if !inTag[i] {
			continue
		}
		trimmed := strings.TrimSpace(line)
		// Inline blocks put the tag markers on the code line itself.
		trimmed = strings.TrimPrefix(trimmed, "<%=")
		trimmed = strings.TrimPrefix(trimmed, "<%")
		trimmed = strings.TrimSuffix(trimmed, "%>")
		trimmed = strings.TrimSpace(trimmed)

		if m := functionRe.FindStringSubmatch(trimmed); m != nil {
			kind := symbolKindFunction
			if strings.EqualFold(m[1], "sub") {
				kind = symbolKindMethod
			}
			stack = append(stack, documentSymbol{
				Name:           m[2],
				Detail:         strings.ToLower(m[1]) + " " + m[2],
				Kind:           kind,
				Range:          lineRange(i, line),
				SelectionRange: lineRange(i, line),
				Children:       []documentSymbol{},
			})
			continue
		}
		if endFunctionRe.MatchString(trimmed) {
			pop(i)
			continue
		}
		if m := classRe.FindStringSubmatch(trimmed); m != nil {
			stack = append(stack, documentSymbol{
				Name:           m[1],
				Detail:         "class " + m[1],
				Kind:           symbolKindClass,
				Range:          lineRange(i, line),
				SelectionRange: lineRange(i, line),
				Children:       []documentSymbol{},
			})
			continue
		}
		if endClassRe.MatchString(trimmed) {
			pop(i)
			continue
		}
		if m := dimRe.FindStringSubmatch(trimmed); m != nil {
			for _, name := range strings.Split(m[1], ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				attach(documentSymbol{
					Name:           name,
					Detail:         "dim " + name,
					Kind:           symbolKindVariable,
					Range:          lineRange(i, line),
					SelectionRange: lineRange(i, line),
					Children:       []documentSymbol{},
				})
			}
		}
	}

	// Unterminated blocks at EOF still appear in the outline.
	for len(stack) > 0 {
		pop(len(lines) - 1)
	}
	return top
}

func lineRange(index int, line string) lspRange {
	return lspRange{
		Start: position{Line: index, Character: 0},
		End:   position{Line: index, Character: utf16Len(line)},
	}
}

// aspTagLines reports, per line, whether any part of the line sits inside an
// ASP code block.
func aspTagLines(content string, lineCount int) []bool {
	flags := make([]bool, lineCount)
	inTag := false
	for i, line := range strings.Split(content, "\n") {
		if i >= lineCount {
			break
		}
		flags[i] = inTag || strings.Contains(line, "<%")
		// Track block state across the line.
		rest := line
		for {
			if inTag {
				idx := strings.Index(rest, "%>")
				if idx < 0 {
					break
				}
				inTag = false
				rest = rest[idx+2:]
			} else {
				idx := strings.Index(rest, "<%")
				if idx < 0 {
					break
				}
				inTag = true
				rest = rest[idx+2:]
			}
		}
	}
	return flags
}
