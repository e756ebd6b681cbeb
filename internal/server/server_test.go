package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

func contentText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, not TextContent", res.Content[0])
	}
	return tc.Text
}

// fakeClient overrides the few methods a test needs; calls to anything else
// panic through the embedded nil interface.
type fakeClient struct {
	Client
	stream   *models.Stream
	messages []*models.Message

	scanStart uint64
	scanEnd   uint64
}

func (f *fakeClient) GetStreamInfo(_ context.Context, name string) (*models.Stream, error) {
	return f.stream, nil
}

func (f *fakeClient) ScanMessages(_ context.Context, _ string, startSeq, endSeq uint64, limit int) ([]*models.Message, error) {
	f.scanStart, f.scanEnd = startSeq, endSeq

	var out []*models.Message
	for _, m := range f.messages {
		if m.Sequence >= startSeq && m.Sequence <= endSeq {
			out = append(out, m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func msg(seq uint64, subject string) *models.Message {
	return &models.Message{Sequence: seq, Subject: subject, Size: 10}
}

func TestFilterRecentBoundsScanToWindow(t *testing.T) {
	c := &fakeClient{
		stream: &models.Stream{
			Name:  "orders",
			State: models.StreamState{Messages: 2000, FirstSeq: 1, LastSeq: 2000},
		},
	}
	s := &Server{}

	_, scanned, err := s.filterRecent(context.Background(), c, "orders", 10, func(*models.Message) bool { return true })
	if err != nil {
		t.Fatalf("filterRecent: %v", err)
	}
	if scanned != scanWindow {
		t.Fatalf("scanned = %d, want %d", scanned, scanWindow)
	}
	if c.scanStart != 1501 || c.scanEnd != 2000 {
		t.Fatalf("scan range = [%d, %d], want [1501, 2000]", c.scanStart, c.scanEnd)
	}
}

func TestFilterRecentSmallStream(t *testing.T) {
	c := &fakeClient{
		stream: &models.Stream{
			Name:  "orders",
			State: models.StreamState{Messages: 3, FirstSeq: 5, LastSeq: 7},
		},
		messages: []*models.Message{
			msg(5, "orders.created"),
			msg(6, "orders.shipped"),
			msg(7, "orders.created"),
		},
	}
	s := &Server{}

	matches, scanned, err := s.filterRecent(context.Background(), c, "orders", 10, func(m *models.Message) bool {
		return m.Subject == "orders.created"
	})
	if err != nil {
		t.Fatalf("filterRecent: %v", err)
	}
	if scanned != 3 {
		t.Fatalf("scanned = %d, want 3", scanned)
	}
	if len(matches) != 2 || matches[0].Sequence != 5 || matches[1].Sequence != 7 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestFilterRecentRespectsLimit(t *testing.T) {
	c := &fakeClient{
		stream: &models.Stream{
			Name:  "orders",
			State: models.StreamState{Messages: 5, FirstSeq: 1, LastSeq: 5},
		},
		messages: []*models.Message{
			msg(1, "a"), msg(2, "a"), msg(3, "a"), msg(4, "a"), msg(5, "a"),
		},
	}
	s := &Server{}

	matches, _, err := s.filterRecent(context.Background(), c, "orders", 2, func(*models.Message) bool { return true })
	if err != nil {
		t.Fatalf("filterRecent: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestFilterRecentEmptyStream(t *testing.T) {
	c := &fakeClient{
		stream: &models.Stream{Name: "orders"},
	}
	s := &Server{}

	matches, scanned, err := s.filterRecent(context.Background(), c, "orders", 10, func(*models.Message) bool { return true })
	if err != nil {
		t.Fatalf("filterRecent: %v", err)
	}
	if matches != nil || scanned != 0 {
		t.Fatalf("matches = %v, scanned = %d; want none", matches, scanned)
	}
	if c.scanStart != 0 || c.scanEnd != 0 {
		t.Fatal("scan was issued for an empty stream")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		v, def, max, want int
	}{
		{0, 10, 100, 10},
		{-5, 10, 100, 10},
		{42, 10, 100, 42},
		{1000, 10, 100, 100},
		{100, 10, 100, 100},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.v, tt.def, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d, %d) = %d, want %d", tt.v, tt.def, tt.max, got, tt.want)
		}
	}
}

func TestParseOptionalDuration(t *testing.T) {
	if d, err := parseOptionalDuration(""); err != nil || d != 0 {
		t.Fatalf("empty: d=%v err=%v", d, err)
	}
	if d, err := parseOptionalDuration("24h"); err != nil || d != 24*time.Hour {
		t.Fatalf("24h: d=%v err=%v", d, err)
	}
	if _, err := parseOptionalDuration("-5m"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if _, err := parseOptionalDuration("soon"); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestErrorResultEnvelope(t *testing.T) {
	res := errorResult("stream '%s' not found", "orders")
	if !res.IsError {
		t.Fatal("IsError not set")
	}
	if len(res.Content) != 1 {
		t.Fatalf("content segments = %d, want 1", len(res.Content))
	}
	text := contentText(t, res)
	if !strings.HasPrefix(text, "❌ Error: ") || !strings.Contains(text, "stream 'orders' not found") {
		t.Fatalf("error text = %q", text)
	}
}

func TestSuccessResultEnvelope(t *testing.T) {
	res := successResult("done")
	if res.IsError {
		t.Fatal("IsError set on success")
	}
	if got := contentText(t, res); got != "done" {
		t.Fatalf("text = %q", got)
	}
}
