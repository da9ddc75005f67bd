package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/version"
)

var versionOpts struct {
	format string
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:          "version",
	Short:        "Show version information",
	SilenceUsage: true,
	RunE:         runVersion,
}

func init() {
	versionCmd.Flags().StringVar(&versionOpts.format, "format", "text", "output format (text|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	if versionOpts.format == "json" {
		payload := versionPayload{
			Tool:      "asplint",
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "asplint %s\n", version.Colored())
	if version.GitCommit != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", version.GitCommit)
	}
	if version.BuildDate != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "built:  %s\n", version.BuildDate)
	}
	return nil
}
