// Command loomctl drives the capability pipeline coordinator: serve the
// HTTP API, or plan and run tasks one-shot from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/loomctl/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "loomctl",
	Short: "Plan-and-execute coordinator for text capability pipelines",
	Long: `loomctl asks a planning model to sequence registered text capabilities
for a task, validates the proposed pipeline against the capability
registry, and executes it step by step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.ConfigureRuntime("loomctl")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "coordinator config file (TOML)")
	rootCmd.AddCommand(serveCmd, runCmd, planCmd, capabilitiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loomctl: %v\n", err)
		os.Exit(1)
	}
}
