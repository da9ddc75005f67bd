package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/config"
	"github.com/shouze/asp-classic-parser/internal/driver"
	"github.com/shouze/asp-classic-parser/internal/fsutil"
	"github.com/shouze/asp-classic-parser/internal/output"
)

var checkOpts struct {
	format         string
	noColor        bool
	verbose        bool
	quietSuccess   bool
	strict         bool
	ignoreWarnings string
	exclude        string
	replaceExclude bool
	stdin          bool
	noCache        bool
	cachePath      string
	cacheMaxAge    int
	threads        int
	configPath     string
}

var checkCmd = &cobra.Command{
	Use:          "check [files or directories...]",
	Short:        "Validate ASP Classic files",
	Long:         `Validate ASP Classic files and directories, printing one line per finding. Exits non-zero when at least one file fails.`,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	flags := checkCmd.Flags()
	flags.StringVarP(&checkOpts.format, "format", "f", "auto", "output format (auto|ascii|ci|json)")
	flags.BoolVar(&checkOpts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&checkOpts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&checkOpts.quietSuccess, "quiet-success", false, "hide successful parse messages")
	flags.BoolVar(&checkOpts.strict, "strict", false, "treat recoverable warnings as errors")
	flags.StringVar(&checkOpts.ignoreWarnings, "ignore-warnings", "", "comma-separated warnings to ignore (e.g. no-asp-tags,empty-file)")
	flags.StringVar(&checkOpts.exclude, "exclude", "", "comma-separated glob patterns to exclude")
	flags.BoolVar(&checkOpts.replaceExclude, "replace-exclude", false, "replace default exclusions instead of extending them")
	flags.BoolVar(&checkOpts.stdin, "stdin", false, "read ASP code from standard input")
	flags.BoolVar(&checkOpts.noCache, "no-cache", false, "disable the parse result cache")
	flags.StringVar(&checkOpts.cachePath, "cache-path", "", "override the cache snapshot location")
	flags.IntVar(&checkOpts.cacheMaxAge, "cache-max-age", 0, "cache entry lifetime in hours (default 24)")
	flags.IntVarP(&checkOpts.threads, "threads", "t", 0, "number of parallel workers (0 = all cores)")
	flags.StringVarP(&checkOpts.configPath, "config", "c", "", "explicit configuration file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	applyConfig(cmd, cfg)

	format, err := output.ParseFormat(checkOpts.format)
	if err != nil {
		return err
	}
	outCfg := &output.Config{
		Format:      format,
		UseColors:   !checkOpts.noColor,
		ShowSuccess: !checkOpts.quietSuccess,
	}
	printer := output.NewPrinter(os.Stdout, os.Stderr, checkOpts.verbose)

	var ignored []string
	if checkOpts.ignoreWarnings != "" {
		for _, w := range strings.Split(checkOpts.ignoreWarnings, ",") {
			if w = strings.TrimSpace(w); w != "" {
				ignored = append(ignored, w)
			}
		}
	}

	excludes := buildExcludes()

	var maxAge time.Duration
	if checkOpts.cacheMaxAge != 0 {
		hours, err := safecast.Conv[uint32](checkOpts.cacheMaxAge)
		if err != nil {
			return fmt.Errorf("invalid --cache-max-age: %w", err)
		}
		maxAge = time.Duration(hours) * time.Hour
	}

	opts := driver.Options{
		Strict:          checkOpts.strict,
		IgnoredWarnings: ignored,
		CacheEnabled:    !checkOpts.noCache,
		CachePath:       checkOpts.cachePath,
		CacheMaxAge:     maxAge,
		Jobs:            checkOpts.threads,
		Excludes:        excludes,
		Output:          outCfg,
		Printer:         printer,
	}

	var summary driver.Summary
	if checkOpts.stdin {
		summary, err = driver.RunStdin(os.Stdin, opts)
	} else {
		if len(args) == 0 {
			args = []string{"."}
		}
		summary, err = driver.Run(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// resolveConfig loads either the explicit --config file or the layered
// configuration stack found above the first checked path.
func resolveConfig(args []string) (*config.Config, error) {
	if checkOpts.configPath != "" {
		return config.FromFile(checkOpts.configPath)
	}
	start := "."
	if checkOpts.stdin {
		return config.Effective(start), nil
	}
	if len(args) > 0 {
		start = args[0]
	}
	return config.Effective(start), nil
}

// applyConfig fills in settings the user did not pass as flags. Flags always
// win over configuration files.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if cfg.Format != nil && !flags.Changed("format") {
		checkOpts.format = *cfg.Format
	}
	if cfg.Color != nil && !flags.Changed("no-color") {
		checkOpts.noColor = !*cfg.Color
	}
	if cfg.Verbose != nil && !flags.Changed("verbose") {
		checkOpts.verbose = *cfg.Verbose
	}
	if cfg.QuietSuccess != nil && !flags.Changed("quiet-success") {
		checkOpts.quietSuccess = *cfg.QuietSuccess
	}
	if cfg.Strict != nil && !flags.Changed("strict") {
		checkOpts.strict = *cfg.Strict
	}
	if len(cfg.IgnoreWarnings) > 0 && !flags.Changed("ignore-warnings") {
		checkOpts.ignoreWarnings = strings.Join(cfg.IgnoreWarnings, ",")
	}
	if cfg.Exclude != nil && !flags.Changed("exclude") {
		checkOpts.exclude = *cfg.Exclude
	}
	if cfg.ReplaceExclude != nil && !flags.Changed("replace-exclude") {
		checkOpts.replaceExclude = *cfg.ReplaceExclude
	}
}

func buildExcludes() []string {
	var extra []string
	if checkOpts.exclude != "" {
		for _, p := range strings.Split(checkOpts.exclude, ",") {
			if p = strings.TrimSpace(p); p != "" {
				extra = append(extra, p)
			}
		}
	}
	if checkOpts.replaceExclude {
		return extra
	}
	return append(append([]string{}, fsutil.DefaultExcludes...), extra...)
}
