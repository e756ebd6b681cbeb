package backup

import (
	"testing"
	"time"
)

func TestNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)

	for _, stream := range []string{"orders", "order-events", "a-b-c"} {
		name := EncodeName(stream, ts)
		gotStream, gotTs, err := ParseName(name)
		if err != nil {
			t.Fatalf("ParseName(%q): %v", name, err)
		}
		if gotStream != stream {
			t.Fatalf("stream = %q, want %q", gotStream, stream)
		}
		if !gotTs.Equal(ts) {
			t.Fatalf("timestamp = %v, want %v", gotTs, ts)
		}
	}
}

func TestEncodeNameSanitized(t *testing.T) {
	ts := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)
	name := EncodeName("orders", ts)
	want := "orders-2026-08-31T14-30-05Z.json"
	if name != want {
		t.Fatalf("EncodeName = %q, want %q", name, want)
	}
}

func TestParseNameRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"orders",
		"orders.json",
		"orders-notadate.json",
		"-2026-08-31T14-30-05Z.json",
		"orders-2026-08-31T14-30-05Z",
	}
	for _, name := range bad {
		if _, _, err := ParseName(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
