package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usiop",
	Short: "Clearance-gated query pipeline for the onboarding assistant",
	Long: "Gates retrieval-augmented assistant queries by security clearance level.\n" +
		"Every query is evaluated against the OMEGA-7 denylist, facility access,\n" +
		"and per-level keyword rules; every decision is audited.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
