package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "asplint",
	Short:        "ASP Classic parser and linter",
	Long:         `asplint validates ASP Classic (VBScript) files and reports syntax errors`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	// Bare paths behave like "check <paths>" with default options.
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCheck(cmd, args)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
