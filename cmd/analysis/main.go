// Command analysis measures the behavior of cowbloom filters: empirical false
// positive rates, correctness under concurrent writers, and live metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "analysis",
		Short: "Analyze copy-on-write bloom filter behavior",
		Long: `analysis exercises cowbloom filters.

Commands:
  fpp         Measure the empirical false positive rate
  contention  Verify no updates are lost under concurrent writers
  serve       Serve filter statistics as Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ./cowbloom.yaml)")
	flags.Uint64("capacity", defaultCapacity, "expected number of insertions")
	flags.Float64("fpp", defaultFPP, "target false positive probability")
	flags.Duration("backoff-initial", 0, "initial backoff after a lost swap race (0 disables backoff)")
	flags.Duration("backoff-max", 0, "maximum backoff after a lost swap race")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(newFPPCommand(&configPath))
	rootCmd.AddCommand(newContentionCommand(&configPath))
	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cowbloom analysis %s\n", version)
		},
	}
}
