package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trend-engine/0.1"). Per prd001-ingestion R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "sonar", "gemini-3-flash-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries bounds retry attempts for transient API failures
	// (default 1: one bounded retry per call site).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// IngestConfig holds settings for the ingestion stage.
// Per prd001-ingestion R1.1-R1.4, R5.1-R5.3.
type IngestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Subreddits lists the communities to poll, without the r/ prefix.
	Subreddits []string `json:"subreddits" yaml:"subreddits"`

	// WindowStartHours is how far back the collection window opens
	// (default 72).
	WindowStartHours int `json:"window_start_hours" yaml:"window_start_hours"`

	// WindowEndHours is how far back the window closes (default 24).
	WindowEndHours int `json:"window_end_hours" yaml:"window_end_hours"`

	// FeedDelay is the delay between consecutive feed fetches (default 2s).
	FeedDelay time.Duration `json:"feed_delay" yaml:"feed_delay"`

	// MaxRetries bounds retry attempts for transient feed failures
	// (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ValidationConfig holds settings for the fact-check stage.
// Per prd002-factcheck R1.2, R5.1-R5.4.
type ValidationConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// BatchSize is how many records go into one collaborator call
	// (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchDelay is the delay between collaborator batches (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`

	// LinkCheckDelay is the delay between reachability probes (default 500ms).
	LinkCheckDelay time.Duration `json:"link_check_delay" yaml:"link_check_delay"`

	// KeepStatuses lists the validation statuses that survive the
	// stage filter (default: verified only).
	KeepStatuses []ValidationStatus `json:"keep_statuses" yaml:"keep_statuses"`

	// DropInaccessible removes records whose discovery URL resolved to
	// not_found or forbidden before the collaborator call (default true).
	DropInaccessible bool `json:"drop_inaccessible" yaml:"drop_inaccessible"`

	// MinReasonLength is the minimum length for a justification to
	// count as substantive (default 40).
	MinReasonLength int `json:"min_reason_length" yaml:"min_reason_length"`
}

// ScoringConfig holds settings for the trend-scoring stage. The
// composite weighting itself is fixed, not configured.
// Per prd003-scoring R1.2, R4.1-R4.3.
type ScoringConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// EnableTrends controls whether the secondary search-interest
	// signal is fetched at all.
	EnableTrends bool `json:"enable_trends" yaml:"enable_trends"`

	// BreakerThreshold is the count of consecutive secondary-signal
	// failures that opens the circuit breaker for the rest of the run
	// (default 3).
	BreakerThreshold int `json:"breaker_threshold" yaml:"breaker_threshold"`

	// CallDelay is the delay between per-record collaborator calls
	// (default 1s).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`
}

// CurationConfig holds settings for the curation stage.
// Per prd004-curation R1.1-R1.3.
type CurationConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// TopN is how many records curation must yield (default 5). The
	// collaborator sees the top 2×TopN candidates.
	TopN int `json:"top_n" yaml:"top_n"`
}

// SynthesisConfig holds settings for the copy-synthesis stage.
// Per prd005-synthesis R1.1.
type SynthesisConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// CallDelay is the delay between per-record collaborator calls
	// (default 1s).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`
}

// ArchiveConfig holds settings for the coverage archive.
// Per prd007-archive R1.1-R1.2.
type ArchiveConfig struct {
	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum for history queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	OutputDir  string           `json:"output_dir" yaml:"output_dir"`
	Ingest     IngestConfig     `json:"ingest" yaml:"ingest"`
	Validate   ValidationConfig `json:"validate" yaml:"validate"`
	Score      ScoringConfig    `json:"score" yaml:"score"`
	Curate     CurationConfig   `json:"curate" yaml:"curate"`
	Synthesize SynthesisConfig  `json:"synthesize" yaml:"synthesize"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
}
