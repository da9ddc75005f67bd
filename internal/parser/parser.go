package parser

import (
	"fmt"
	"strings"
)

// FailureKind discriminates the recoverable conditions from true syntax errors.
type FailureKind uint8

const (
	// KindSyntax is a real syntax error in an ASP code block.
	KindSyntax FailureKind = iota
	// KindNoASPTags means the input contains no <% %> markers at all.
	KindNoASPTags
	// KindEmptyInput means the input is empty or whitespace-only.
	KindEmptyInput
)

// ParseError is the failure value produced by Parse. Line and Col are 1-based
// and zero when no position is known.
type ParseError struct {
	Kind    FailureKind
	Message string
	Line    int
	Col     int
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Col > 0 {
		return fmt.Sprintf("%s --> %d:%d", e.Message, e.Line, e.Col)
	}
	return e.Message
}

// Parse validates ASP Classic source text. It returns nil when the input is
// well-formed, or a *ParseError describing the first problem found.
//
// The grammar covered here is shallow: block structure (<% %>,
// including the <%= expression form), VBScript comments and string literals
// inside blocks. Anything outside ASP tags is treated as opaque HTML.
func Parse(input string) error {
	if strings.TrimSpace(input) == "" {
		return &ParseError{
			Kind:    KindEmptyInput,
			Message: "file is empty or contains only whitespace",
		}
	}

	line, col := 1, 1
	openLine, openCol := 0, 0
	inBlock := false
	blockCount := 0
	inString := false
	inComment := false

	i := 0
	for i < len(input) {
		c := input[i]

		if c == '\n' {
			if inBlock && inString {
				return &ParseError{
					Kind:    KindSyntax,
					Message: "unterminated string literal",
					Line:    line,
					Col:     col,
				}
			}
			inComment = false
			line++
			col = 1
			i++
			continue
		}

		if inBlock && !inString && !inComment {
			switch {
			case c == '"':
				inString = true
				i++
				col++
				continue
			case c == '\'':
				inComment = true
				i++
				col++
				continue
			case strings.HasPrefix(input[i:], "<%"):
				return &ParseError{
					Kind:    KindSyntax,
					Message: "nested ASP tag inside code block",
					Line:    line,
					Col:     col,
				}
			case strings.HasPrefix(input[i:], "%>"):
				inBlock = false
				i += 2
				col += 2
				continue
			}
		} else if inBlock && inComment {
			// The block delimiter is resolved before the script engine ever
			// sees the comment, so %> still closes the block mid-comment.
			if strings.HasPrefix(input[i:], "%>") {
				inComment = false
				inBlock = false
				i += 2
				col += 2
				continue
			}
		} else if inBlock && inString {
			if c == '"' {
				// "" is the VBScript escape for a literal quote.
				if i+1 < len(input) && input[i+1] == '"' {
					i += 2
					col += 2
					continue
				}
				inString = false
			}
		} else if !inBlock {
			if strings.HasPrefix(input[i:], "<%") {
				inBlock = true
				blockCount++
				openLine, openCol = line, col
				i += 2
				col += 2
				if i < len(input) && input[i] == '=' {
					i++
					col++
				}
				continue
			}
			if strings.HasPrefix(input[i:], "%>") {
				return &ParseError{
					Kind:    KindSyntax,
					Message: "unexpected closing tag %> outside ASP block",
					Line:    line,
					Col:     col,
				}
			}
		}

		i++
		col++
	}

	if inBlock {
		if inString {
			return &ParseError{
				Kind:    KindSyntax,
				Message: "unterminated string literal",
				Line:    line,
				Col:     col,
			}
		}
		return &ParseError{
			Kind:    KindSyntax,
			Message: "unterminated ASP block",
			Line:    openLine,
			Col:     openCol,
		}
	}

	if blockCount == 0 {
		return &ParseError{
			Kind:    KindNoASPTags,
			Message: "no ASP tags found in file",
		}
	}

	return nil
}
