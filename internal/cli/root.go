// Package cli wires configuration, storage and the engine into the milkchain
// commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "milkchain",
	Short:         "Milk delivery supply chain backend",
	Long:          `Serves the admin, supplier, delivery partner and customer dashboards and keeps the hosted store and the local cache in step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
}

// ExecuteContext runs the command selected on the command line.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
