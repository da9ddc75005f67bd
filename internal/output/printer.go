package output

import (
	"fmt"
	"io"
	"sync"
)

// Printer serializes console writes so parallel workers never interleave
// partial lines from different files. It is the only path to stdout/stderr
// during a batch run.
type Printer struct {
	mu      sync.Mutex
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

// NewPrinter wraps the given streams.
func NewPrinter(stdout, stderr io.Writer, verbose bool) *Printer {
	return &Printer{stdout: stdout, stderr: stderr, verbose: verbose}
}

// Verbose reports whether verbose lines are enabled.
func (p *Printer) Verbose() bool { return p.verbose }

// Outln writes one line to stdout.
func (p *Printer) Outln(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.stdout, line)
}

// Errln writes one line to stderr.
func (p *Printer) Errln(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.stderr, line)
}

// Verbosef writes a formatted line to stdout only in verbose mode.
func (p *Printer) Verbosef(format string, args ...any) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.stdout, format+"\n", args...)
}
