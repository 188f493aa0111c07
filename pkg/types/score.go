// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// ConfidenceTier grades how much a signal score should be trusted.
// Per prd003-scoring R2.3.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// SignalScore is one ranking dimension for a record: a bounded value,
// a confidence tier, and an optional structured detail payload.
// Per prd003-scoring R2.1-R2.4.
type SignalScore struct {
	// Value lies in [0,100].
	Value float64 `json:"value" yaml:"value"`

	// Confidence grades the score: high, medium, or low.
	Confidence ConfidenceTier `json:"confidence" yaml:"confidence"`

	// Enabled is false when the signal source was unavailable or
	// disabled for the run; the score object is still attached so
	// downstream consumers branch on discriminants, not presence.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Error describes why a disabled signal was unavailable.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Detail carries signal-specific structure, e.g. the virality
	// rubric breakdown or per-keyword interest values.
	Detail map[string]json.RawMessage `json:"detail,omitempty" yaml:"-"`
}

// CarouselSlide is one slide of synthesized carousel copy.
type CarouselSlide struct {
	// Number is the 1-based slide position.
	Number int `json:"slide_number" yaml:"slide_number"`

	// Text is the slide copy.
	Text string `json:"text" yaml:"text"`
}

// SocialDraft is the platform copy payload produced by the synthesis
// stage. Per prd005-synthesis R2.1-R2.4.
type SocialDraft struct {
	// XPostA is the first short-form variant (under 280 characters).
	XPostA string `json:"x_post_a" yaml:"x_post_a"`

	// XPostB is the second short-form variant.
	XPostB string `json:"x_post_b" yaml:"x_post_b"`

	// XToneA names the voice used for variant A.
	XToneA string `json:"x_tone_a,omitempty" yaml:"x_tone_a,omitempty"`

	// XToneB names the voice used for variant B.
	XToneB string `json:"x_tone_b,omitempty" yaml:"x_tone_b,omitempty"`

	// CarouselSlides holds 5-7 slides of carousel copy.
	CarouselSlides []CarouselSlide `json:"carousel_slides,omitempty" yaml:"carousel_slides,omitempty"`

	// InstagramCaption is the caption with hashtags.
	InstagramCaption string `json:"instagram_caption,omitempty" yaml:"instagram_caption,omitempty"`
}
