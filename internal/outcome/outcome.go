package outcome

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shouze/asp-classic-parser/internal/parser"
)

// Kind is the tri-state classification of a single unit of work.
type Kind uint8

const (
	// Success means the input parsed cleanly.
	Success Kind = iota
	// Skipped means a recoverable condition was found and strict mode is off.
	Skipped
	// Error means a true parse failure, or a recoverable condition promoted
	// under strict mode.
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Error:
		return "error"
	}
	return "unknown"
}

// SkipReason names a recoverable condition.
type SkipReason string

const (
	// ReasonNoASPTags: the file contains no <% %> markers.
	ReasonNoASPTags SkipReason = "no-asp-tags"
	// ReasonEmptyInput: the file is empty or whitespace-only.
	ReasonEmptyInput SkipReason = "empty-file"
)

// Outcome is the single currency passed between the classifier, the batch
// driver, the LSP validator and the output formatter.
type Outcome struct {
	Kind    Kind
	Reason  SkipReason // set only for Skipped, and for Error promoted from a recoverable condition
	Message string     // empty for Success
	Line    int        // 1-based, always >= 1 for Skipped/Error
	Col     int
}

// Classify converts the parser's raw result into an Outcome, applying strict
// policy to the two recoverable conditions. The ignored-reason set does not
// participate here: suppression only affects whether a message is announced,
// never the returned outcome (see ShouldAnnounce).
func Classify(err error, strict bool) Outcome {
	if err == nil {
		return Outcome{Kind: Success}
	}

	var pe *parser.ParseError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case parser.KindNoASPTags:
			return recoverable(ReasonNoASPTags, "No ASP tags found in file", strict)
		case parser.KindEmptyInput:
			return recoverable(ReasonEmptyInput, "File is empty or contains only whitespace", strict)
		}
	}

	msg := err.Error()
	line, col := ExtractPosition(msg)
	return Outcome{Kind: Error, Message: msg, Line: line, Col: col}
}

func recoverable(reason SkipReason, msg string, strict bool) Outcome {
	kind := Skipped
	if strict {
		kind = Error
	}
	return Outcome{Kind: kind, Reason: reason, Message: msg, Line: 1, Col: 1}
}

// FromCache rebuilds an Outcome from a cached record without re-invoking the
// parser. Strict policy is applied freshly: only the raw outcome kind and the
// message text are cached, never the policy decision, so a Skipped record may
// come back as Error under strict mode.
func FromCache(kind Kind, errorMessage string, strict bool) Outcome {
	switch kind {
	case Success:
		return Outcome{Kind: Success}
	case Skipped:
		reason, ok := skipReasonFromMessage(errorMessage)
		if !ok {
			reason = ReasonNoASPTags
			errorMessage = "No ASP tags found in file"
		}
		return recoverable(reason, errorMessage, strict)
	default:
		line, col := ExtractPosition(errorMessage)
		return Outcome{Kind: Error, Message: errorMessage, Line: line, Col: col}
	}
}

// skipReasonFromMessage recognizes the messages Record stores for recoverable
// conditions. This text matching is confined to the classifier boundary; all
// other code relies on the typed Reason field.
func skipReasonFromMessage(msg string) (SkipReason, bool) {
	switch {
	case strings.Contains(msg, "No ASP tags"), strings.Contains(msg, "no ASP tags"):
		return ReasonNoASPTags, true
	case strings.Contains(msg, "empty or contains only whitespace"):
		return ReasonEmptyInput, true
	}
	return "", false
}

// ShouldAnnounce reports whether a Skipped outcome's message should be
// emitted. Suppression never changes the outcome itself. Errors and successes
// are always announced (successes subject to the formatter's own policy).
func ShouldAnnounce(o Outcome, ignored map[string]struct{}, verbose bool) bool {
	if o.Kind != Skipped {
		return true
	}
	if verbose {
		return true
	}
	_, suppressed := ignored[string(o.Reason)]
	return !suppressed
}

// ExtractPosition pulls a "--> line:col" position marker out of an error
// message. When no marker is found it returns (1, 1): degraded but never a
// crash.
func ExtractPosition(msg string) (line, col int) {
	line, col = 1, 1
	idx := strings.LastIndex(msg, "-->")
	if idx < 0 {
		return line, col
	}
	rest := strings.TrimSpace(msg[idx+3:])
	field := rest
	if sp := strings.IndexAny(rest, " \t\n"); sp >= 0 {
		field = rest[:sp]
	}
	lineStr, colStr, ok := strings.Cut(field, ":")
	if !ok {
		return line, col
	}
	l, err1 := strconv.Atoi(lineStr)
	c, err2 := strconv.Atoi(colStr)
	if err1 != nil || err2 != nil || l < 1 || c < 1 {
		return 1, 1
	}
	return l, c
}

// Severity maps an outcome to the formatter's severity string, following the
// same policy table in batch and interactive mode: true errors are "error",
// recoverable conditions are "warning" unless strict promoted them.
func Severity(o Outcome) string {
	switch o.Kind {
	case Error:
		return "error"
	case Skipped:
		return "warning"
	}
	return "notice"
}
