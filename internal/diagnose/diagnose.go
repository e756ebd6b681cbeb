// Package diagnose derives advisory health signals from JetStream stream and
// consumer state. Everything here is computed fresh from broker snapshots on
// each call; nothing is persisted and there is no hysteresis.
package diagnose

import (
	"fmt"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// Advisory thresholds. These are heuristics for human review, not alarms.
const (
	// HighLag flags a consumer trailing the stream head by more than this.
	HighLag = 1000
	// UtilizationWarn flags usage at or above this fraction of a configured limit.
	UtilizationWarn = 0.9
	// HighMessageRate flags streams ingesting faster than this (msgs/sec).
	HighMessageRate = 10000
)

// Lag returns how far a consumer's delivered cursor trails the stream head.
// Never negative: a cursor ahead of the head (e.g. after a purge) reads as zero.
func Lag(streamLastSeq, deliveredStreamSeq uint64) uint64 {
	if deliveredStreamSeq >= streamLastSeq {
		return 0
	}
	return streamLastSeq - deliveredStreamSeq
}

// Stream inspects a stream snapshot and its consumer list and returns
// advisory issues.
func Stream(s *models.Stream, consumers []*models.Consumer) []string {
	var issues []string

	if s.State.Messages == 0 {
		issues = append(issues, "stream is empty (zero messages)")
	}
	if len(consumers) == 0 {
		issues = append(issues, "stream has no consumers")
	}
	if s.Config.MaxBytes > 0 && float64(s.State.Bytes) >= UtilizationWarn*float64(s.Config.MaxBytes) {
		issues = append(issues, fmt.Sprintf("byte usage at %.0f%% of max_bytes (%d/%d)",
			pct(s.State.Bytes, uint64(s.Config.MaxBytes)), s.State.Bytes, s.Config.MaxBytes))
	}
	if s.Config.MaxMessages > 0 && float64(s.State.Messages) >= UtilizationWarn*float64(s.Config.MaxMessages) {
		issues = append(issues, fmt.Sprintf("message count at %.0f%% of max_messages (%d/%d)",
			pct(s.State.Messages, uint64(s.Config.MaxMessages)), s.State.Messages, s.Config.MaxMessages))
	}

	return issues
}

// Consumer inspects a consumer snapshot against its stream state and returns
// advisory issues.
func Consumer(c *models.Consumer, streamState models.StreamState) []string {
	var issues []string

	if c.NumAckPending > 0 {
		issues = append(issues, fmt.Sprintf("%d message(s) pending acknowledgment", c.NumAckPending))
	}
	if c.NumRedelivered > 0 {
		issues = append(issues, fmt.Sprintf("%d message(s) redelivered", c.NumRedelivered))
	}
	if lag := Lag(streamState.LastSeq, c.Delivered.Stream); lag > HighLag {
		issues = append(issues, fmt.Sprintf("high lag: %d messages behind stream head", lag))
	}
	if c.NumWaiting == 0 {
		issues = append(issues, "no waiting pull requests (consumer may be inactive)")
	}
	if c.Config.MaxAckPending > 0 && float64(c.NumAckPending) >= UtilizationWarn*float64(c.Config.MaxAckPending) {
		issues = append(issues, fmt.Sprintf("ack-pending at %.0f%% of max_ack_pending (%d/%d)",
			pct(c.NumAckPending, uint64(c.Config.MaxAckPending)), c.NumAckPending, c.Config.MaxAckPending))
	}

	return issues
}

func pct(used, limit uint64) float64 {
	if limit == 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}
