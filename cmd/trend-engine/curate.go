// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/secrets"
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Select the top postings for publication",
	Long: `Curate presents the highest-ranked candidates to the editorial
collaborator and commits the selections with their rationales. If the
collaborator fails or breaks the selection contract, the top candidates
by composite score are kept instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, "curate", secrets.KeyOpenAI)
	},
}

func init() {
	rootCmd.AddCommand(curateCmd)
}
