// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/secrets"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Draft social copy for the curated postings",
	Long: `Synthesize asks the drafting collaborator for platform-ready copy for
each curated posting and commits the final checkpoint. Postings whose
drafts fail validation are kept without a draft.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, "synthesize", secrets.KeyAnthropic)
	},
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)
}
