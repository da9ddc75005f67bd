package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/config"
)

var initConfigOpts struct {
	force  bool
	hidden bool
}

var initConfigCmd = &cobra.Command{
	Use:          "init-config",
	Short:        "Write a commented starter configuration file",
	SilenceUsage: true,
	RunE:         runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVar(&initConfigOpts.force, "force", false, "overwrite an existing configuration file")
	initConfigCmd.Flags().BoolVar(&initConfigOpts.hidden, "hidden", false, "write the hidden variant (.asplint.toml)")
}

func runInitConfig(cmd *cobra.Command, _ []string) error {
	name := "asplint.toml"
	if initConfigOpts.hidden {
		name = ".asplint.toml"
	}
	if _, err := os.Stat(name); err == nil && !initConfigOpts.force {
		return fmt.Errorf("%s already exists, use --force to overwrite", name)
	}
	if err := os.WriteFile(name, []byte(config.DefaultTemplate), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", name)
	return nil
}
