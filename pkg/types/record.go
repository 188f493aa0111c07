// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trend-engine pipeline.
// Implements: prd001-ingestion (Record identity);
//
//	prd002-factcheck (Source, ReachabilityCheck, ValidationStatus, ItemType);
//	prd003-scoring (SignalScore, ConfidenceTier);
//	prd005-synthesis (SocialDraft);
//	prd006-pipeline (Checkpoint envelope, RecordError).
//
// See docs/ARCHITECTURE § Data Structures.
package types

import (
	"encoding/json"
	"time"
)

// ValidationStatus classifies the evidentiary outcome for a record.
// Per prd002-factcheck R4.1. The set is closed; consumers switch
// exhaustively over it.
type ValidationStatus string

const (
	StatusVerified     ValidationStatus = "verified"
	StatusDebunked     ValidationStatus = "debunked"
	StatusUnverifiable ValidationStatus = "unverifiable"
)

// ItemType classifies what kind of content a record is. Non-news items
// (questions, discussions, opinions) are exempt from the verification
// acceptance test. Per prd002-factcheck R4.2.
type ItemType string

const (
	ItemNews       ItemType = "news"
	ItemDiscussion ItemType = "discussion"
	ItemQuestion   ItemType = "question"
	ItemOpinion    ItemType = "opinion"
)

// ReachStatus is the outcome of a discovery-URL reachability check.
// Per prd002-factcheck R2.2.
type ReachStatus string

const (
	ReachOK          ReachStatus = "ok"
	ReachRedirect    ReachStatus = "redirect"
	ReachNotFound    ReachStatus = "not_found"
	ReachForbidden   ReachStatus = "forbidden"
	ReachRateLimited ReachStatus = "rate_limited"
	ReachError       ReachStatus = "error"
)

// Acceptable reports whether the status allows a record to be
// verified. rate_limited is deliberately excluded: a post we could not
// confirm reachable is never promoted on independent sources alone.
func (s ReachStatus) Acceptable() bool {
	return s == ReachOK || s == ReachRedirect
}

// ReachabilityCheck records the result of probing the discovery URL.
// Per prd002-factcheck R2.3.
type ReachabilityCheck struct {
	// Status is the closed-set outcome of the check.
	Status ReachStatus `json:"status" yaml:"status"`

	// HTTPStatus is the final HTTP status code, zero when the request
	// never completed.
	HTTPStatus int `json:"http_status,omitempty" yaml:"http_status,omitempty"`

	// FinalURL is the URL after redirects, empty when unavailable.
	FinalURL string `json:"final_url,omitempty" yaml:"final_url,omitempty"`

	// CheckedAt is when the probe ran.
	CheckedAt time.Time `json:"checked_at" yaml:"checked_at"`

	// Error carries a short failure description for status "error".
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourceType distinguishes primary evidence (official announcements,
// filings, papers) from secondary reporting. Per prd002-factcheck R3.2.
type SourceType string

const (
	SourcePrimary   SourceType = "primary"
	SourceSecondary SourceType = "secondary"
)

// Source is a cite-able external reference attached during validation.
// Sources are deduplicated by normalized URL; discovery-platform
// domains are never accepted as sources. Per prd002-factcheck R3.1-R3.4.
type Source struct {
	// URL is the normalized locator (tracking parameters stripped,
	// scheme and host lower-cased).
	URL string `json:"url" yaml:"url"`

	// Title is the article title when the collaborator reported one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Publisher is a human-readable label, falling back to the domain.
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`

	// Type classifies the source as primary or secondary.
	Type SourceType `json:"source_type" yaml:"source_type"`

	// Evidence is one sentence on what this source confirms.
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// ErrorKind categorizes a per-record processing error.
// Per prd006-pipeline R4.2.
type ErrorKind string

const (
	// ErrTransient marks a rate-limit or timeout that persisted past
	// the bounded retry.
	ErrTransient ErrorKind = "transient"

	// ErrMalformed marks a collaborator response the stage could not
	// validate against its expected shape.
	ErrMalformed ErrorKind = "malformed_result"
)

// RecordError is an error attached to a single record. One record's
// failure never aborts its siblings; the error travels with the record
// instead. Per prd006-pipeline R4.1-R4.3.
type RecordError struct {
	// Stage names the stage that attached the error.
	Stage string `json:"stage" yaml:"stage"`

	// Kind categorizes the failure.
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Message is a short description; never the full upstream payload.
	Message string `json:"message" yaml:"message"`

	// OccurredAt is when the error was attached.
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
}

// RationaleSource tells whether a selection rationale came from the
// curation collaborator or the deterministic fallback. Per prd004-curation R3.4.
type RationaleSource string

const (
	RationaleModel    RationaleSource = "model"
	RationaleFallback RationaleSource = "fallback"
)

// Record is the unit flowing through the pipeline. Its identity is
// assigned at ingestion and immutable thereafter; every later stage
// keys mutations by ID, never by position. Fields accumulate
// monotonically: a stage may add or refine fields but must preserve
// everything introduced upstream. Per prd001-ingestion R2.1-R2.3,
// prd006-pipeline R2.1.
type Record struct {
	// ID is the stable identifier, taken from the feed entry or
	// generated at ingestion when the feed omits one.
	ID string `json:"id" yaml:"id"`

	// Title is the post title as published.
	Title string `json:"title" yaml:"title"`

	// Subreddit is the community the post was discovered in, without
	// the r/ prefix.
	Subreddit string `json:"subreddit" yaml:"subreddit"`

	// Author is the posting account, "unknown" when the feed omits it.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// DiscoveryURL is the canonical locator of the post itself.
	DiscoveryURL string `json:"discovery_url" yaml:"discovery_url"`

	// PublishedAt is the post's publication time in UTC.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// IngestOrder is the record's position in the original ingestion
	// sequence; it breaks composite-score ties deterministically.
	IngestOrder int `json:"ingest_order" yaml:"ingest_order"`

	// OutboundURL is the external link a link-post points at. Explicit
	// null means the post was inspected and links nowhere off-platform;
	// absent means ingestion has not evaluated it.
	OutboundURL Nullable[string] `json:"outbound_url,omitzero" yaml:"outbound_url,omitempty"`

	// Reachability is the discovery-URL probe result (validate stage).
	Reachability *ReachabilityCheck `json:"reachability_check,omitempty" yaml:"reachability_check,omitempty"`

	// ValidationStatus is the gate outcome (validate stage).
	ValidationStatus ValidationStatus `json:"validation_status,omitempty" yaml:"validation_status,omitempty"`

	// ItemType is the content classification (validate stage).
	ItemType ItemType `json:"item_type,omitempty" yaml:"item_type,omitempty"`

	// ClaimSummary is the one-sentence claim under validation; explicit
	// null when the item carries no factual claim.
	ClaimSummary Nullable[string] `json:"claim_summary,omitzero" yaml:"claim_summary,omitempty"`

	// ValidationReason is the collaborator's free-text justification.
	ValidationReason string `json:"validation_reason,omitempty" yaml:"validation_reason,omitempty"`

	// DowngradeReasons lists each unmet acceptance condition that
	// forced a downgrade, in evaluation order.
	DowngradeReasons []string `json:"downgrade_reasons,omitempty" yaml:"downgrade_reasons,omitempty"`

	// SearchQuery is the query derived from the title for validation.
	SearchQuery string `json:"search_query,omitempty" yaml:"search_query,omitempty"`

	// SearchURL is a deterministic browser URL for revisiting the
	// validation search.
	SearchURL string `json:"search_url,omitempty" yaml:"search_url,omitempty"`

	// Sources lists external citations, deduplicated by normalized URL.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`

	// PrimaryScore is the mandatory model-derived virality signal
	// (score stage).
	PrimaryScore *SignalScore `json:"primary_score,omitempty" yaml:"primary_score,omitempty"`

	// SecondaryScore is the optional search-interest signal. After the
	// score stage it is always present, with Enabled false and an Error
	// marker when the signal was unavailable, so consumers only branch
	// on the discriminants.
	SecondaryScore *SignalScore `json:"secondary_score,omitempty" yaml:"secondary_score,omitempty"`

	// CompositeScore is derived from the signal scores by a fixed
	// weighting rule; it is never supplied independently.
	CompositeScore Nullable[float64] `json:"composite_score,omitzero" yaml:"composite_score,omitempty"`

	// SelectionRationale explains why curation picked this record.
	SelectionRationale string `json:"selection_rationale,omitempty" yaml:"selection_rationale,omitempty"`

	// SelectionAngle is a short label like "outrage" or "utility".
	SelectionAngle string `json:"selection_angle,omitempty" yaml:"selection_angle,omitempty"`

	// RationaleSource marks whether curation or the fallback produced
	// the selection.
	RationaleSource RationaleSource `json:"rationale_source,omitempty" yaml:"rationale_source,omitempty"`

	// SocialDraft is the synthesized platform copy (synthesize stage).
	SocialDraft *SocialDraft `json:"social_draft,omitempty" yaml:"social_draft,omitempty"`

	// Errors holds per-record processing errors attached by stages.
	Errors []RecordError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Extra carries forward-compatible extension fields that this
	// schema revision does not model. Stages preserve it verbatim.
	Extra map[string]json.RawMessage `json:"extra,omitempty" yaml:"-"`
}

// AttachError appends a per-record error for the given stage.
func (r *Record) AttachError(stage string, kind ErrorKind, message string) {
	r.Errors = append(r.Errors, RecordError{
		Stage:      stage,
		Kind:       kind,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	})
}

// Degraded reports whether any stage attached an error to the record.
func (r *Record) Degraded() bool {
	return len(r.Errors) > 0
}
