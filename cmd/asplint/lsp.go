package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/lsp"
)

var lspOpts struct {
	debounceMs int
	strict     bool
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the ASP Classic language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().IntVar(&lspOpts.debounceMs, "debounce", 300, "milliseconds to wait after an edit before validating")
	lspCmd.Flags().BoolVar(&lspOpts.strict, "strict", false, "treat recoverable warnings as errors")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce: time.Duration(lspOpts.debounceMs) * time.Millisecond,
		Strict:   lspOpts.strict,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
