// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/archive"
	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/internal/secrets"
	"github.com/pdiddy/trend-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline from ingestion to synthesis",
	Long: `Run executes all five stages in order, committing a checkpoint after
each one. With --from, the pipeline resumes from the named stage using the
previous stage's checkpoint instead of re-running everything before it.

After a successful run the processed and selected records are written to
the coverage archive so later runs skip already-covered postings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		if err := checkKeys(cfg); err != nil {
			return err
		}

		orch, arch, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer arch.Close()

		from, _ := cmd.Flags().GetString("from")
		startedAt := time.Now().UTC()

		if from == "" {
			err = orch.RunAll(cmd.Context())
		} else {
			err = orch.RunFrom(cmd.Context(), from)
		}
		if err != nil {
			return err
		}

		return recordOutcome(cmd, orch, arch, startedAt)
	},
}

// checkKeys fails fast before a run starts burning API calls.
func checkKeys(cfg types.PipelineConfig) error {
	missing := secrets.Missing(configKeys(cfg),
		secrets.KeyPerplexity, secrets.KeyGoogle, secrets.KeyOpenAI, secrets.KeyAnthropic)
	if len(missing) > 0 {
		return fmt.Errorf("missing API keys: %s (add them under .secrets/)", strings.Join(missing, ", "))
	}
	return nil
}

// recordOutcome archives the run: every ingested record as processed,
// every curated record as selected. A missing ingest checkpoint (a
// --from run that started past ingestion) archives nothing.
func recordOutcome(cmd *cobra.Command, orch *pipeline.Orchestrator, arch *archive.Store, startedAt time.Time) error {
	stages := orch.Stages()
	store := orch.Store()

	processed, err := store.Load(store.Path(stages[0].ArtifactName()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading ingest checkpoint for archive: %w", err)
	}

	var selected []types.Record
	for _, st := range stages {
		if st.Name() != "curate" {
			continue
		}
		if cp, err := store.Load(store.Path(st.ArtifactName())); err == nil {
			selected = cp.Records
		}
	}

	runID := uuid.NewString()
	if err := arch.RecordRun(cmd.Context(), runID, startedAt, processed.Records, selected); err != nil {
		return fmt.Errorf("archiving run %s: %w", runID, err)
	}
	fmt.Fprintf(os.Stderr, "Archived run %s: %d processed, %d selected\n", runID, len(processed.Records), len(selected))
	return nil
}

func init() {
	runCmd.Flags().String("from", "", "resume from this stage (ingest, validate, score, curate, synthesize)")

	rootCmd.AddCommand(runCmd)
}
