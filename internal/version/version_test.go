package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersionIsPlainText(t *testing.T) {
	// The raw version string travels through JSON output and the LSP
	// serverInfo payload, so it must never carry escape sequences.
	if strings.ContainsRune(Version, 0x1b) {
		t.Fatalf("version string carries escape sequences: %q", Version)
	}
}

func TestColoredMatchesVersionWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if got := Colored(); got != Version {
		t.Fatalf("expected %q, got %q", Version, got)
	}
}
