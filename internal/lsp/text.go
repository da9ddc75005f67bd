package lsp

import (
	"strings"
	"unicode/utf8"
)

// applyChanges folds a didChange batch into text. A change without a range is
// a full-document replacement; ranged edits are applied in order with their
// offsets clamped to the current document.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := clampOffset(offsetForPosition(text, change.Range.Start), 0, len(text))
		end := clampOffset(offsetForPosition(text, change.Range.End), start, len(text))
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func clampOffset(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// offsetForPosition converts an LSP position, whose character column counts
// UTF-16 code units, to a byte offset into text. Positions past the end of a
// line or of the document clamp to that end; a column landing inside a
// surrogate pair resolves to the offset before the rune.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	i := 0
	for line := 0; line < pos.Line; line++ {
		next := strings.IndexByte(text[i:], '\n')
		if next < 0 {
			return len(text)
		}
		i += next + 1
	}
	units := 0
	for i < len(text) && text[i] != '\n' {
		r, size := utf8.DecodeRuneInString(text[i:])
		width := 1
		if r > 0xFFFF {
			width = 2
		}
		if units+width > pos.Character {
			break
		}
		units += width
		i += size
	}
	return i
}

// lineAt returns the content of the zero-based line index, without trailing
// newline. Out-of-range indexes yield the empty string.
func lineAt(text string, index int) string {
	if index < 0 {
		return ""
	}
	start := 0
	line := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			if line == index {
				end := i
				if end > start && text[end-1] == '\r' {
					end--
				}
				return text[start:end]
			}
			line++
			start = i + 1
		}
	}
	if line == index {
		return text[start:]
	}
	return ""
}

// utf16Len counts the UTF-16 code units of s, the unit LSP columns are
// measured in.
func utf16Len(s string) int {
	units := 0
	for _, r := range s {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return units
}
