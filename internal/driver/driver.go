package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shouze/asp-classic-parser/internal/cache"
	"github.com/shouze/asp-classic-parser/internal/fsutil"
	"github.com/shouze/asp-classic-parser/internal/outcome"
	"github.com/shouze/asp-classic-parser/internal/output"
	"github.com/shouze/asp-classic-parser/internal/parser"
)

// ParseFunc is the external grammar engine consumed by the driver. Injected
// so tests can count invocations.
type ParseFunc func(text string) error

// Options configures a batch run.
type Options struct {
	Strict          bool
	IgnoredWarnings []string
	CacheEnabled    bool
	CachePath       string        // defaults to cache.DefaultPath()
	CacheMaxAge     time.Duration // 0 keeps the cache default
	Jobs            int           // <=0 means available parallelism
	Excludes        []string
	Output          *output.Config
	Printer         *output.Printer
	Parse           ParseFunc // defaults to parser.Parse
}

// Summary aggregates per-file results. Counts are order-independent.
type Summary struct {
	Success int
	Failed  int
	Skipped int
}

// Total is the number of files processed.
func (s Summary) Total() int { return s.Success + s.Failed + s.Skipped }

// OptionsHashInput builds the canonical option sequence that feeds the
// fingerprint's options hash. The hash is order-sensitive, so callers must
// not reorder it: this fixed construction order is what keeps semantically
// identical runs on the same digest.
func OptionsHashInput(strict bool, ignored []string) []string {
	options := []string{fmt.Sprintf("strict=%t", strict)}
	for _, w := range ignored {
		options = append(options, "ignore="+w)
	}
	return options
}

// Run validates every file reachable from paths with bounded parallelism,
// consulting and updating the fingerprint cache, and returns the aggregate
// summary. A single file's failure never aborts the run; the caller decides
// the exit status from Summary.Failed after all files have been reported.
func Run(ctx context.Context, paths []string, opts Options) (Summary, error) {
	parse := opts.Parse
	if parse == nil {
		parse = parser.Parse
	}
	printer := opts.Printer
	if printer == nil {
		printer = output.NewPrinter(os.Stdout, os.Stderr, false)
	}

	files := enumerate(paths, opts.Excludes, printer)
	printer.Verbosef("Found %d files to parse", len(files))

	cachePath := opts.CachePath
	if cachePath == "" {
		cachePath = cache.DefaultPath()
	}
	var store *cache.Cache
	if opts.CacheEnabled {
		store = cache.Load(cachePath)
		if opts.CacheMaxAge > 0 {
			store.SetMaxAge(opts.CacheMaxAge)
		}
		printer.Verbosef("Cache initialized with %d entries", store.Len())
		if cleaned := store.SweepExpired(); cleaned > 0 {
			printer.Verbosef("Removed %d old entries from cache", cleaned)
		}
	} else {
		printer.Verbosef("Cache disabled")
	}

	optionsHash := cache.HashOptions(OptionsHashInput(opts.Strict, opts.IgnoredWarnings))
	if opts.CacheEnabled {
		printer.Verbosef("Using options hash: %s", optionsHash)
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredWarnings))
	for _, w := range opts.IgnoredWarnings {
		ignored[w] = struct{}{}
	}

	w := worker{
		opts:        opts,
		parse:       parse,
		printer:     printer,
		store:       store,
		optionsHash: optionsHash,
		ignored:     ignored,
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Per-index result slots: each goroutine owns exactly one, no mutex needed.
	results := make([]outcome.Kind, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = w.checkFile(path).Kind
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, kind := range results {
		switch kind {
		case outcome.Success:
			summary.Success++
		case outcome.Skipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	if opts.CacheEnabled {
		if err := store.Save(cachePath); err != nil {
			if printer.Verbose() {
				printer.Errln(fmt.Sprintf("Failed to save cache: %v", err))
			}
		} else {
			printer.Verbosef("Cache saved with %d entries", store.Len())
		}
	}

	if printer.Verbose() || summary.Failed > 0 || summary.Skipped > 0 {
		printer.Outln(output.FormatSummary(opts.Output, summary.Success, summary.Failed, summary.Skipped))
	}
	return summary, nil
}

// RunStdin classifies a single buffer read from r. Stdin runs never touch the
// fingerprint cache: there is no path identity to fingerprint.
func RunStdin(r io.Reader, opts Options) (Summary, error) {
	parse := opts.Parse
	if parse == nil {
		parse = parser.Parse
	}
	printer := opts.Printer
	if printer == nil {
		printer = output.NewPrinter(os.Stdout, os.Stderr, false)
	}
	printer.Verbosef("Reading ASP code from standard input...")

	content, err := io.ReadAll(r)
	if err != nil {
		printer.Errln(output.FormatIssue(opts.Output, "<stdin>", 1, 1,
			fmt.Sprintf("Cannot read from stdin: %v", err), "error"))
		return Summary{Failed: 1}, nil
	}
	printer.Verbosef("Received %d bytes from stdin", len(content))

	ignored := make(map[string]struct{}, len(opts.IgnoredWarnings))
	for _, w := range opts.IgnoredWarnings {
		ignored[w] = struct{}{}
	}
	w := worker{opts: opts, parse: parse, printer: printer, ignored: ignored}

	o := outcome.Classify(parse(string(content)), opts.Strict)
	w.report("<stdin>", o)

	var summary Summary
	switch o.Kind {
	case outcome.Success:
		summary.Success = 1
	case outcome.Skipped:
		summary.Skipped = 1
	default:
		summary.Failed = 1
	}
	if printer.Verbose() || summary.Failed > 0 || summary.Skipped > 0 {
		printer.Outln(output.FormatSummary(opts.Output, summary.Success, summary.Failed, summary.Skipped))
	}
	return summary, nil
}

func enumerate(paths []string, excludes []string, printer *output.Printer) []string {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			printer.Errln(fmt.Sprintf("Warning: path %q does not exist, skipping", path))
			continue
		}
		if info.IsDir() {
			found, err := fsutil.FindSourceFiles(path, excludes)
			if err != nil {
				printer.Errln(fmt.Sprintf("Error scanning directory %q: %v", path, err))
				continue
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	return files
}

// worker carries the per-run state shared by all pool goroutines. The cache
// guards itself internally; the printer serializes console output. The slow
// parts, reading the file and invoking the parser, happen outside both
// locks.
type worker struct {
	opts        Options
	parse       ParseFunc
	printer     *output.Printer
	store       *cache.Cache
	optionsHash string
	ignored     map[string]struct{}
}

// checkFile drives one file through the state machine:
// Pending -> (CacheHit | CacheMiss) -> Classified -> Recorded -> Reported.
func (w *worker) checkFile(path string) outcome.Outcome {
	w.printer.Verbosef("Parsing file: %s", path)

	if w.opts.CacheEnabled && w.store != nil && fileExists(path) {
		valid, err := w.store.IsValid(path, w.optionsHash)
		switch {
		case err != nil:
			// A hashing failure means "not valid", never fatal.
			w.printer.Verbosef("Cache check failed: %v - parsing file directly", err)
		case valid:
			if entry, ok := w.store.Lookup(path); ok {
				w.printer.Verbosef("Using cached result for: %s", path)
				// Policy is not cached: strict/ignore decisions are re-derived
				// from the raw outcome kind on every run.
				o := outcome.FromCache(entry.OutcomeKind, entry.ErrorMessage, w.opts.Strict)
				w.report(path, o)
				return o
			}
		default:
			w.printer.Verbosef("File or options changed since last run - re-parsing")
		}
	}

	content, err := fsutil.ReadFileWithFallback(path)
	if err != nil {
		o := outcome.Outcome{
			Kind:    outcome.Error,
			Message: fmt.Sprintf("Cannot read file: %v", err),
			Line:    1,
			Col:     1,
		}
		w.report(path, o)
		return o
	}

	o := outcome.Classify(w.parse(content), w.opts.Strict)
	w.record(path, o)
	w.report(path, o)
	return o
}

// record stores the raw classification. Recoverable conditions are recorded
// as Skipped even when strict promoted them to Error, so that a later
// non-strict run replays them correctly.
func (w *worker) record(path string, o outcome.Outcome) {
	if !w.opts.CacheEnabled || w.store == nil || !fileExists(path) {
		return
	}
	kind := o.Kind
	message := o.Message
	if o.Reason != "" {
		kind = outcome.Skipped
	}
	if o.Kind == outcome.Success {
		message = ""
	}
	if err := w.store.Record(path, kind, w.optionsHash, message); err != nil {
		w.printer.Verbosef("Failed to update cache: %v", err)
	}
}

func (w *worker) report(path string, o outcome.Outcome) {
	switch o.Kind {
	case outcome.Success:
		if w.opts.Output.ShowSuccess {
			w.printer.Outln(output.FormatSuccess(w.opts.Output, path))
		}
	case outcome.Skipped:
		if outcome.ShouldAnnounce(o, w.ignored, w.printer.Verbose()) {
			w.printer.Errln(output.FormatIssue(w.opts.Output, path, o.Line, o.Col,
				o.Message+" - skipping", outcome.Severity(o)))
		}
	default:
		w.printer.Errln(output.FormatIssue(w.opts.Output, path, o.Line, o.Col,
			o.Message, outcome.Severity(o)))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
