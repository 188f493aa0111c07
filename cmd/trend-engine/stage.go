// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trend-engine/internal/secrets"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// configKeys maps secret names to the API keys resolved into cfg, so
// secrets.Missing can report which ones a command still needs.
func configKeys(cfg types.PipelineConfig) map[string]string {
	return map[string]string{
		secrets.KeyPerplexity: cfg.Validate.APIKey,
		secrets.KeyGoogle:     cfg.Score.APIKey,
		secrets.KeyOpenAI:     cfg.Curate.APIKey,
		secrets.KeyAnthropic:  cfg.Synthesize.APIKey,
	}
}

// runStage executes a single stage against the committed checkpoints,
// failing fast if any of the stage's API keys are missing. Stages past
// ingestion load their input from the predecessor's checkpoint.
func runStage(cmd *cobra.Command, stageName string, wantKeys ...string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if missing := secrets.Missing(configKeys(cfg), wantKeys...); len(missing) > 0 {
		return fmt.Errorf("missing API keys: %s (add them under .secrets/)", strings.Join(missing, ", "))
	}

	orch, arch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer arch.Close()

	return orch.RunOnly(cmd.Context(), stageName)
}
