package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/primitives/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "primitives",
	Short: "Caches, rate limiters, queues, and load balancers over HTTP",
	Long: `Primitives hosts named caches (lru, lfu, fifo, ttl), rate limiters
(token bucket, sliding log, sliding window), bounded FIFO and priority queues,
and load balancer pools (round robin, least connections, weighted round robin,
ip hash), all configured from one YAML file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "primitives.yaml", "config file path")
}
