package outcome

import (
	"errors"
	"testing"

	"github.com/shouze/asp-classic-parser/internal/parser"
)

func TestClassifySuccess(t *testing.T) {
	o := Classify(nil, false)
	if o.Kind != Success {
		t.Fatalf("expected Success, got %v", o.Kind)
	}
	if o.Message != "" {
		t.Fatalf("success must carry no message, got %q", o.Message)
	}
}

func TestClassifyRecoverableConditions(t *testing.T) {
	cases := []struct {
		name   string
		kind   parser.FailureKind
		reason SkipReason
	}{
		{"no asp tags", parser.KindNoASPTags, ReasonNoASPTags},
		{"empty input", parser.KindEmptyInput, ReasonEmptyInput},
	}
	for _, tc := range cases {
		err := &parser.ParseError{Kind: tc.kind, Message: "whatever"}

		o := Classify(err, false)
		if o.Kind != Skipped {
			t.Fatalf("%s: expected Skipped, got %v", tc.name, o.Kind)
		}
		if o.Reason != tc.reason {
			t.Fatalf("%s: expected reason %q, got %q", tc.name, tc.reason, o.Reason)
		}
		if o.Line != 1 || o.Col != 1 {
			t.Fatalf("%s: expected position 1:1, got %d:%d", tc.name, o.Line, o.Col)
		}

		// Strict promotes but keeps the reason.
		o = Classify(err, true)
		if o.Kind != Error {
			t.Fatalf("%s: strict should promote to Error, got %v", tc.name, o.Kind)
		}
		if o.Reason != tc.reason {
			t.Fatalf("%s: promotion must keep the reason, got %q", tc.name, o.Reason)
		}
	}
}

func TestClassifySyntaxError(t *testing.T) {
	err := &parser.ParseError{
		Kind:    parser.KindSyntax,
		Message: "unterminated ASP block",
		Line:    3,
		Col:     7,
	}
	o := Classify(err, false)
	if o.Kind != Error {
		t.Fatalf("expected Error, got %v", o.Kind)
	}
	if o.Line != 3 || o.Col != 7 {
		t.Fatalf("expected position 3:7, got %d:%d", o.Line, o.Col)
	}
	if o.Reason != "" {
		t.Fatalf("syntax errors carry no skip reason, got %q", o.Reason)
	}
}

func TestClassifyOpaqueError(t *testing.T) {
	o := Classify(errors.New("disk on fire"), false)
	if o.Kind != Error {
		t.Fatalf("expected Error, got %v", o.Kind)
	}
	if o.Line != 1 || o.Col != 1 {
		t.Fatalf("unpositioned errors default to 1:1, got %d:%d", o.Line, o.Col)
	}
}

func TestFromCacheReappliesStrict(t *testing.T) {
	// Non-strict replay of a skipped record.
	o := FromCache(Skipped, "No ASP tags found in file", false)
	if o.Kind != Skipped || o.Reason != ReasonNoASPTags {
		t.Fatalf("expected Skipped/no-asp-tags, got %v/%q", o.Kind, o.Reason)
	}

	// The same record under strict mode comes back as Error.
	o = FromCache(Skipped, "No ASP tags found in file", true)
	if o.Kind != Error {
		t.Fatalf("strict replay should promote to Error, got %v", o.Kind)
	}
	if o.Reason != ReasonNoASPTags {
		t.Fatalf("promotion must keep the reason, got %q", o.Reason)
	}
}

func TestFromCacheErrorPosition(t *testing.T) {
	o := FromCache(Error, "unterminated ASP block --> 12:5", false)
	if o.Kind != Error {
		t.Fatalf("expected Error, got %v", o.Kind)
	}
	if o.Line != 12 || o.Col != 5 {
		t.Fatalf("expected position 12:5, got %d:%d", o.Line, o.Col)
	}
}

func TestExtractPosition(t *testing.T) {
	cases := []struct {
		msg       string
		line, col int
	}{
		{"boom --> 4:11", 4, 11},
		{"no marker at all", 1, 1},
		{"weird --> not:numbers", 1, 1},
		{"negative --> -2:3", 1, 1},
		{"chained --> 1:2 then --> 9:9", 9, 9},
		{"", 1, 1},
	}
	for _, tc := range cases {
		line, col := ExtractPosition(tc.msg)
		if line != tc.line || col != tc.col {
			t.Errorf("%q: expected %d:%d, got %d:%d", tc.msg, tc.line, tc.col, line, col)
		}
	}
}

func TestShouldAnnounce(t *testing.T) {
	skipped := Outcome{Kind: Skipped, Reason: ReasonNoASPTags, Message: "No ASP tags found in file"}
	ignored := map[string]struct{}{string(ReasonNoASPTags): {}}

	if !ShouldAnnounce(skipped, nil, false) {
		t.Fatal("unsuppressed skip should be announced")
	}
	if ShouldAnnounce(skipped, ignored, false) {
		t.Fatal("ignored skip should be silent")
	}
	if !ShouldAnnounce(skipped, ignored, true) {
		t.Fatal("verbose overrides suppression")
	}
	// Suppression never applies to errors.
	failed := Outcome{Kind: Error, Message: "boom"}
	if !ShouldAnnounce(failed, ignored, false) {
		t.Fatal("errors are always announced")
	}
}

func TestSeverity(t *testing.T) {
	if s := Severity(Outcome{Kind: Error}); s != "error" {
		t.Fatalf("expected error, got %q", s)
	}
	if s := Severity(Outcome{Kind: Skipped}); s != "warning" {
		t.Fatalf("expected warning, got %q", s)
	}
}
