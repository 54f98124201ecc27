// SPDX-License-Identifier: MIT

// Command disco evaluates discovery latency models, runs parameter sweeps
// and generates the firmware lookup tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "disco",
		Short: "Discovery latency model for duty-cycled wireless nodes",
		Long: `disco models neighbour discovery between energy-harvesting nodes that
wake up after a charging time plus a random delay.

It computes per-slot activity, rendezvous and discovery probabilities for a
clique of nodes, sweeps distribution parameters, fits the optimal geometric
parameter per charging time and writes the lookup tables the firmware uses.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newEvalCmd(),
		newSweepCmd(),
		newLUTCmd(),
		newTableCmd(),
		newSampleCmd(),
	)

	return rootCmd
}
