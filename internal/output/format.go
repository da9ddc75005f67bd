package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Format selects how results are rendered.
type Format uint8

const (
	// Ascii is the human-readable terminal format.
	Ascii Format = iota
	// CI is the GitHub Actions problem-matcher format.
	CI
	// JSON is one JSON object per line for machine processing.
	JSON
)

func (f Format) String() string {
	switch f {
	case Ascii:
		return "ascii"
	case CI:
		return "ci"
	case JSON:
		return "json"
	}
	return "unknown"
}

// ParseFormat resolves a format name; "auto" picks based on the environment.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "ascii":
		return Ascii, nil
	case "ci":
		return CI, nil
	case "json":
		return JSON, nil
	case "auto", "":
		return DetectFormat(), nil
	}
	return Ascii, fmt.Errorf("unknown output format: %s", s)
}

// DetectFormat chooses CI inside CI environments or when stdout is not a
// terminal, Ascii otherwise.
func DetectFormat() Format {
	if os.Getenv("CI") == "true" {
		return CI
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return Ascii
	}
	return CI
}

// Config holds the rendering settings shared by every emitted line.
type Config struct {
	Format      Format
	UseColors   bool
	ShowSuccess bool
}

// shouldUseColors gates coloring on the ascii format, a real terminal, and
// the NO_COLOR convention.
func (c *Config) shouldUseColors() bool {
	if !c.UseColors || c.Format != Ascii {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	successMark = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed)
	warnColor   = color.New(color.FgYellow)
	noticeColor = color.New(color.FgBlue)
)

// FormatSuccess renders the "parsed successfully" line for a file.
func FormatSuccess(cfg *Config, path string) string {
	switch cfg.Format {
	case CI:
		return fmt.Sprintf("::notice file=%s::Parsed successfully", path)
	case JSON:
		payload, _ := json.Marshal(struct {
			File   string `json:"file"`
			Status string `json:"status"`
		}{File: path, Status: "success"})
		return string(payload)
	default:
		mark := "✓"
		if cfg.shouldUseColors() {
			mark = successMark.Sprint(mark)
		}
		return fmt.Sprintf("%s %s parsed successfully", mark, path)
	}
}

// FormatIssue renders an error/warning/notice line for a file position.
func FormatIssue(cfg *Config, path string, line, col int, message, severity string) string {
	switch cfg.Format {
	case CI:
		return fmt.Sprintf("::%s file=%s,line=%d,col=%d,title=ASP Parse %s::%s",
			strings.ToLower(severity), path, line, col, strings.ToUpper(severity), message)
	case JSON:
		payload, _ := json.Marshal(struct {
			File     string `json:"file"`
			Line     int    `json:"line"`
			Column   int    `json:"column"`
			Message  string `json:"message"`
			Severity string `json:"severity"`
		}{File: path, Line: line, Column: col, Message: message, Severity: severity})
		return string(payload)
	default:
		mark, sev := "ℹ", severity
		var c *color.Color
		switch severity {
		case "error":
			mark, c = "✖", errorColor
		case "warning":
			mark, c = "⚠", warnColor
		default:
			c = noticeColor
		}
		if cfg.shouldUseColors() {
			mark = c.Sprint(mark)
			sev = c.Sprint(sev)
		}
		return fmt.Sprintf("%s %s:%d:%d: %s - %s", mark, path, line, col, sev, message)
	}
}

// FormatSummary renders the end-of-run aggregate line.
func FormatSummary(cfg *Config, success, failed, skipped int) string {
	switch cfg.Format {
	case CI:
		summary := fmt.Sprintf("::notice::asplint: %d files succeeded, %d files failed", success, failed)
		if skipped > 0 {
			summary += fmt.Sprintf("\n::notice::asplint: %d files skipped", skipped)
		}
		return summary
	case JSON:
		payload, _ := json.Marshal(struct {
			Summary struct {
				Total   int `json:"total"`
				Success int `json:"success"`
				Failed  int `json:"failed"`
				Skipped int `json:"skipped"`
			} `json:"summary"`
		}{Summary: struct {
			Total   int `json:"total"`
			Success int `json:"success"`
			Failed  int `json:"failed"`
			Skipped int `json:"skipped"`
		}{Total: success + failed + skipped, Success: success, Failed: failed, Skipped: skipped}})
		return string(payload)
	default:
		s, f, k := fmt.Sprint(success), fmt.Sprint(failed), fmt.Sprint(skipped)
		if cfg.shouldUseColors() {
			s = successMark.Sprint(s)
			if failed > 0 {
				f = errorColor.Sprint(f)
			}
			if skipped > 0 {
				k = warnColor.Sprint(k)
			}
		}
		return fmt.Sprintf("Parsing complete: %s succeeded, %s failed, %s skipped", s, f, k)
	}
}
