package diagnose

import (
	"fmt"
	"time"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// ConsumerLag is one consumer's lag at the end of a monitoring window.
type ConsumerLag struct {
	Name string
	Lag  uint64
}

// Window summarizes a sample-sleep-resample health monitoring interval.
type Window struct {
	Elapsed        time.Duration
	MessagesPerSec float64
	BytesPerSec    float64
	Initial        models.StreamState
	Final          models.StreamState
	ConsumerLags   []ConsumerLag
	Issues         []string
}

// NewWindow computes throughput over a monitoring interval and flags issues
// against the stream's configured limits. Counters that went down (a purge
// during the window) read as zero rate rather than negative.
func NewWindow(cfg models.StreamConfig, initial, final models.StreamState, elapsed time.Duration, consumers []*models.Consumer) Window {
	w := Window{
		Elapsed: elapsed,
		Initial: initial,
		Final:   final,
	}

	secs := elapsed.Seconds()
	if secs > 0 {
		if final.Messages > initial.Messages {
			w.MessagesPerSec = float64(final.Messages-initial.Messages) / secs
		}
		if final.Bytes > initial.Bytes {
			w.BytesPerSec = float64(final.Bytes-initial.Bytes) / secs
		}
	}

	for _, c := range consumers {
		w.ConsumerLags = append(w.ConsumerLags, ConsumerLag{
			Name: c.Name,
			Lag:  Lag(final.LastSeq, c.Delivered.Stream),
		})
	}

	if w.MessagesPerSec > HighMessageRate {
		w.Issues = append(w.Issues, fmt.Sprintf("high message rate: %.0f msgs/sec", w.MessagesPerSec))
	}
	for _, cl := range w.ConsumerLags {
		if cl.Lag > HighLag {
			w.Issues = append(w.Issues, fmt.Sprintf("consumer '%s' lagging by %d messages", cl.Name, cl.Lag))
		}
	}
	if cfg.MaxBytes > 0 && float64(final.Bytes) >= UtilizationWarn*float64(cfg.MaxBytes) {
		w.Issues = append(w.Issues, fmt.Sprintf("byte usage at %.0f%% of max_bytes", pct(final.Bytes, uint64(cfg.MaxBytes))))
	}
	if cfg.MaxAge > 0 && !final.LastTime.IsZero() {
		if age := time.Since(final.LastTime); age > cfg.MaxAge {
			w.Issues = append(w.Issues, fmt.Sprintf("last message older than max_age (%s > %s)",
				age.Round(time.Second), cfg.MaxAge))
		}
	}

	return w
}
