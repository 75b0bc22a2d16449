// Package commands is the festival-calendar command line.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/commands.version=...".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "festival-calendar",
	Short: "Lunar calendar and festival service",
	Long: `festival-calendar serves a lunar calendar with Malaysian and Chinese
festivals, personal events pinned to lunar dates and calendar exports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("FC_CONFIG"),
		"path to a YAML config file (env FC_CONFIG)")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}
