// Command fraud-train trains, evaluates and inspects fraud scoring bundles.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fraud-train",
		Short:         "Offline tooling for fraud scoring bundles",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(certsCmd())
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}
