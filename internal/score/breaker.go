// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

// Breaker trips the secondary signal off after a run of consecutive
// failures. Once open it stays open for the rest of the run; the
// operator re-runs the stage to try again. Per prd003-scoring R3.3.
type Breaker struct {
	threshold   int
	consecutive int
	open        bool
}

// NewBreaker returns a breaker that opens at threshold consecutive
// failures. A threshold below 1 defaults to 3.
func NewBreaker(threshold int) *Breaker {
	if threshold < 1 {
		threshold = 3
	}
	return &Breaker{threshold: threshold}
}

// Allow reports whether the next call may proceed.
func (b *Breaker) Allow() bool {
	return !b.open
}

// RecordSuccess resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.consecutive = 0
}

// RecordFailure counts a failure and opens the breaker at threshold.
func (b *Breaker) RecordFailure() {
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.open = true
	}
}
