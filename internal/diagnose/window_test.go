package diagnose

import (
	"strings"
	"testing"
	"time"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

func TestWindowThroughput(t *testing.T) {
	initial := models.StreamState{Messages: 1000, Bytes: 10000, LastSeq: 1000}
	final := models.StreamState{Messages: 1100, Bytes: 30000, LastSeq: 1100, LastTime: time.Now()}

	w := NewWindow(models.StreamConfig{}, initial, final, 10*time.Second, nil)

	if w.MessagesPerSec != 10 {
		t.Fatalf("MessagesPerSec = %v, want 10", w.MessagesPerSec)
	}
	if w.BytesPerSec != 2000 {
		t.Fatalf("BytesPerSec = %v, want 2000", w.BytesPerSec)
	}
	if len(w.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", w.Issues)
	}
}

func TestWindowCountersWentDown(t *testing.T) {
	// A purge during the window must not produce a negative rate.
	initial := models.StreamState{Messages: 1000, Bytes: 10000}
	final := models.StreamState{Messages: 10, Bytes: 100}

	w := NewWindow(models.StreamConfig{}, initial, final, time.Second, nil)
	if w.MessagesPerSec != 0 || w.BytesPerSec != 0 {
		t.Fatalf("rates after shrink = %v msgs/s %v bytes/s, want 0/0", w.MessagesPerSec, w.BytesPerSec)
	}
}

func TestWindowFlags(t *testing.T) {
	initial := models.StreamState{Messages: 0, LastSeq: 0}
	final := models.StreamState{
		Messages: 200000,
		Bytes:    950,
		LastSeq:  200000,
		LastTime: time.Now().Add(-2 * time.Hour),
	}
	cfg := models.StreamConfig{MaxBytes: 1000, MaxAge: time.Hour}
	consumers := []*models.Consumer{
		{Name: "slow", Delivered: models.ConsumerSeqInfo{Stream: 100}},
		{Name: "fast", Delivered: models.ConsumerSeqInfo{Stream: 200000}},
	}

	w := NewWindow(cfg, initial, final, 10*time.Second, consumers)

	if len(w.ConsumerLags) != 2 {
		t.Fatalf("expected 2 consumer lags, got %d", len(w.ConsumerLags))
	}
	if w.ConsumerLags[0].Lag != 199900 {
		t.Fatalf("slow consumer lag = %d, want 199900", w.ConsumerLags[0].Lag)
	}
	if w.ConsumerLags[1].Lag != 0 {
		t.Fatalf("fast consumer lag = %d, want 0", w.ConsumerLags[1].Lag)
	}

	// high rate, slow consumer lag, byte usage, stale last message
	if len(w.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(w.Issues), w.Issues)
	}
	if !strings.Contains(w.Issues[0], "high message rate") {
		t.Fatalf("expected rate issue first, got %q", w.Issues[0])
	}
}

func TestWindowZeroElapsed(t *testing.T) {
	w := NewWindow(models.StreamConfig{}, models.StreamState{}, models.StreamState{Messages: 100}, 0, nil)
	if w.MessagesPerSec != 0 {
		t.Fatalf("MessagesPerSec with zero elapsed = %v, want 0", w.MessagesPerSec)
	}
}
