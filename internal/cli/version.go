package cli

import (
	"fmt"
	"runtime"

	"blightd/internal/config"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := flagConfig
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "blightd %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
		fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		fmt.Fprintf(out, "  config: %s\n", configPath)
		return nil
	},
}
