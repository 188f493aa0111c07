// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/trend-engine/internal/archive"
	"github.com/pdiddy/trend-engine/internal/checkpoint"
	"github.com/pdiddy/trend-engine/internal/curate"
	"github.com/pdiddy/trend-engine/internal/ingest"
	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/internal/score"
	"github.com/pdiddy/trend-engine/internal/secrets"
	"github.com/pdiddy/trend-engine/internal/synthesize"
	"github.com/pdiddy/trend-engine/internal/validate"
	"github.com/pdiddy/trend-engine/pkg/types"
)

func init() {
	viper.SetDefault("output_dir", "output")

	viper.SetDefault("ingest.timeout", 30*time.Second)
	viper.SetDefault("ingest.user_agent", "trend-engine/0.1")
	viper.SetDefault("ingest.subreddits", []string{"news", "technology"})
	viper.SetDefault("ingest.window_start_hours", 72)
	viper.SetDefault("ingest.window_end_hours", 24)
	viper.SetDefault("ingest.feed_delay", 2*time.Second)
	viper.SetDefault("ingest.max_retries", 1)

	viper.SetDefault("validate.timeout", 60*time.Second)
	viper.SetDefault("validate.user_agent", "trend-engine/0.1")
	viper.SetDefault("validate.model", "sonar")
	viper.SetDefault("validate.max_retries", 1)
	viper.SetDefault("validate.batch_size", 5)
	viper.SetDefault("validate.batch_delay", time.Second)
	viper.SetDefault("validate.link_check_delay", 500*time.Millisecond)
	viper.SetDefault("validate.keep_statuses", []string{"verified"})
	viper.SetDefault("validate.drop_inaccessible", true)
	viper.SetDefault("validate.min_reason_length", 40)

	viper.SetDefault("score.timeout", 60*time.Second)
	viper.SetDefault("score.user_agent", "trend-engine/0.1")
	viper.SetDefault("score.model", "gemini-3-flash-preview")
	viper.SetDefault("score.max_retries", 1)
	viper.SetDefault("score.enable_trends", true)
	viper.SetDefault("score.breaker_threshold", 3)
	viper.SetDefault("score.call_delay", time.Second)

	viper.SetDefault("curate.timeout", 60*time.Second)
	viper.SetDefault("curate.model", "gpt-4o")
	viper.SetDefault("curate.max_retries", 1)
	viper.SetDefault("curate.top_n", 5)

	viper.SetDefault("synthesize.timeout", 120*time.Second)
	viper.SetDefault("synthesize.model", "claude-sonnet-4-5")
	viper.SetDefault("synthesize.max_retries", 1)
	viper.SetDefault("synthesize.call_delay", time.Second)

	viper.SetDefault("archive.dir", "archive")
	viper.SetDefault("archive.max_results", 20)
}

// buildConfig assembles the pipeline configuration from viper, layering
// config file values and TREND_ENGINE_* environment variables over the
// defaults above. API keys come from .secrets/ unless set explicitly.
func buildConfig() (types.PipelineConfig, error) {
	keep := make([]types.ValidationStatus, 0, 1)
	for _, s := range viper.GetStringSlice("validate.keep_statuses") {
		keep = append(keep, types.ValidationStatus(s))
	}

	cfg := types.PipelineConfig{
		OutputDir: viper.GetString("output_dir"),
		Ingest: types.IngestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("ingest.timeout"),
				UserAgent: viper.GetString("ingest.user_agent"),
			},
			Subreddits:       viper.GetStringSlice("ingest.subreddits"),
			WindowStartHours: viper.GetInt("ingest.window_start_hours"),
			WindowEndHours:   viper.GetInt("ingest.window_end_hours"),
			FeedDelay:        viper.GetDuration("ingest.feed_delay"),
			MaxRetries:       viper.GetInt("ingest.max_retries"),
		},
		Validate: types.ValidationConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("validate.timeout"),
				UserAgent: viper.GetString("validate.user_agent"),
			},
			AIConfig: types.AIConfig{
				Model:      viper.GetString("validate.model"),
				APIKey:     viper.GetString("validate.api_key"),
				MaxRetries: viper.GetInt("validate.max_retries"),
			},
			BatchSize:        viper.GetInt("validate.batch_size"),
			BatchDelay:       viper.GetDuration("validate.batch_delay"),
			LinkCheckDelay:   viper.GetDuration("validate.link_check_delay"),
			KeepStatuses:     keep,
			DropInaccessible: viper.GetBool("validate.drop_inaccessible"),
			MinReasonLength:  viper.GetInt("validate.min_reason_length"),
		},
		Score: types.ScoringConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("score.timeout"),
				UserAgent: viper.GetString("score.user_agent"),
			},
			AIConfig: types.AIConfig{
				Model:      viper.GetString("score.model"),
				APIKey:     viper.GetString("score.api_key"),
				MaxRetries: viper.GetInt("score.max_retries"),
			},
			EnableTrends:     viper.GetBool("score.enable_trends"),
			BreakerThreshold: viper.GetInt("score.breaker_threshold"),
			CallDelay:        viper.GetDuration("score.call_delay"),
		},
		Curate: types.CurationConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout: viper.GetDuration("curate.timeout"),
			},
			AIConfig: types.AIConfig{
				Model:      viper.GetString("curate.model"),
				APIKey:     viper.GetString("curate.api_key"),
				MaxRetries: viper.GetInt("curate.max_retries"),
			},
			TopN: viper.GetInt("curate.top_n"),
		},
		Synthesize: types.SynthesisConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout: viper.GetDuration("synthesize.timeout"),
			},
			AIConfig: types.AIConfig{
				Model:      viper.GetString("synthesize.model"),
				APIKey:     viper.GetString("synthesize.api_key"),
				MaxRetries: viper.GetInt("synthesize.max_retries"),
			},
			CallDelay: viper.GetDuration("synthesize.call_delay"),
		},
		Archive: types.ArchiveConfig{
			Dir:        viper.GetString("archive.dir"),
			MaxResults: viper.GetInt("archive.max_results"),
		},
	}

	if dir, _ := rootCmd.PersistentFlags().GetString("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}

	cfg.Validate.APIKey = secretDefault(secrets.KeyPerplexity, cfg.Validate.APIKey)
	cfg.Score.APIKey = secretDefault(secrets.KeyGoogle, cfg.Score.APIKey)
	cfg.Curate.APIKey = secretDefault(secrets.KeyOpenAI, cfg.Curate.APIKey)
	cfg.Synthesize.APIKey = secretDefault(secrets.KeyAnthropic, cfg.Synthesize.APIKey)

	return cfg, nil
}

// buildOrchestrator wires the five stages and their collaborators into an
// orchestrator over the checkpoint store. The archive store is returned
// separately so the caller can record run outcomes and close it.
func buildOrchestrator(cfg types.PipelineConfig) (*pipeline.Orchestrator, *archive.Store, error) {
	arch, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return nil, nil, err
	}

	feed := &ingest.FeedClient{
		Client:     &http.Client{Timeout: cfg.Ingest.Timeout},
		UserAgent:  cfg.Ingest.UserAgent,
		MaxRetries: cfg.Ingest.MaxRetries,
	}

	perplexity := &validate.PerplexityBackend{
		APIKey:     cfg.Validate.APIKey,
		Model:      cfg.Validate.Model,
		MaxRetries: cfg.Validate.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Validate.Timeout},
	}

	gemini := &score.GeminiBackend{
		APIKey:     cfg.Score.APIKey,
		Model:      cfg.Score.Model,
		MaxRetries: cfg.Score.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Score.Timeout},
	}
	trends := &score.TrendsBackend{
		UserAgent:  cfg.Score.UserAgent,
		MaxRetries: cfg.Score.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Score.Timeout},
	}

	openai := &curate.OpenAIBackend{
		APIKey:     cfg.Curate.APIKey,
		Model:      cfg.Curate.Model,
		MaxRetries: cfg.Curate.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Curate.Timeout},
	}

	anthropic := &synthesize.AnthropicBackend{
		APIKey:     cfg.Synthesize.APIKey,
		Model:      cfg.Synthesize.Model,
		MaxRetries: cfg.Synthesize.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Synthesize.Timeout},
	}

	store := checkpoint.NewStore(cfg.OutputDir)
	orch := pipeline.New(store, os.Stderr,
		ingest.New(feed, arch, cfg.Ingest),
		validate.New(perplexity, validate.NewLinkChecker(cfg.Validate.HTTPConfig), cfg.Validate),
		score.New(gemini, trends, cfg.Score),
		curate.New(openai, cfg.Curate),
		synthesize.New(anthropic, cfg.Synthesize),
	)
	return orch, arch, nil
}
