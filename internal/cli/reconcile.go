package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Push locally cached changes to the remote store once",
	Long:  `Load the remote store and the local cache, push every entity that exists only locally or differs from its remote row, and print the report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		report, err := a.engine.Reconcile(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
