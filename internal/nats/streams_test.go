package nats

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestScanForCutoff(t *testing.T) {
	cutoff := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	old := cutoff.Add(-time.Hour)
	young := cutoff.Add(time.Minute)

	// ages maps sequence to message time; absent sequences fail to fetch.
	mkTimeAt := func(ages map[uint64]time.Time) func(uint64) (time.Time, error) {
		return func(seq uint64) (time.Time, error) {
			ts, ok := ages[seq]
			if !ok {
				return time.Time{}, fmt.Errorf("no message for sequence %d", seq)
			}
			return ts, nil
		}
	}
	fill := func(ages map[uint64]time.Time, from, to uint64, ts time.Time) map[uint64]time.Time {
		if ages == nil {
			ages = make(map[uint64]time.Time)
		}
		for seq := from; seq <= to; seq++ {
			ages[seq] = ts
		}
		return ages
	}

	tests := []struct {
		name        string
		ages        map[uint64]time.Time
		first, last uint64
		want        uint64
	}{
		{
			name:  "all messages older",
			ages:  fill(nil, 1, 20, old),
			first: 1, last: 20,
			want: 21,
		},
		{
			name:  "first young message stops the scan",
			ages:  fill(fill(nil, 1, 9, old), 10, 20, young),
			first: 1, last: 20,
			want: 10,
		},
		{
			name:  "short gap is skipped",
			ages:  fill(fill(nil, 1, 4, old), 9, 20, young),
			first: 1, last: 20,
			want: 9,
		},
		{
			name:  "short gap between old messages",
			ages:  fill(fill(nil, 1, 4, old), 9, 10, old),
			first: 1, last: 10,
			want: 11,
		},
		{
			// The fail cap trips inside the gap; the bound must cover only
			// the prefix verified older, never the young messages beyond it.
			name:  "long gap stops at the verified prefix",
			ages:  fill(fill(nil, 1, 4, old), 15, 100, young),
			first: 1, last: 100,
			want: 5,
		},
		{
			name:  "trailing unfetchable sequences stay outside the bound",
			ages:  fill(nil, 1, 8, old),
			first: 1, last: 10,
			want: 9,
		},
		{
			name:  "nothing older than the cutoff",
			ages:  fill(nil, 1, 20, young),
			first: 1, last: 20,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanForCutoff(mkTimeAt(tt.ages), tt.first, tt.last, cutoff)
			if got != tt.want {
				t.Fatalf("scanForCutoff = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCombineUpToSeq(t *testing.T) {
	tests := []struct {
		upToSeq, cutoffSeq, want uint64
	}{
		{0, 50, 50},   // only the cutoff bound supplied
		{10, 50, 10},  // explicit bound is tighter
		{50, 10, 10},  // cutoff bound is tighter
		{50, 50, 50},  // equal bounds
	}
	for _, tt := range tests {
		if got := combineUpToSeq(tt.upToSeq, tt.cutoffSeq); got != tt.want {
			t.Errorf("combineUpToSeq(%d, %d) = %d, want %d", tt.upToSeq, tt.cutoffSeq, got, tt.want)
		}
	}
}

func TestUnionSubjects(t *testing.T) {
	current := []string{"orders.created", "orders.shipped"}

	merged := unionSubjects(current, []string{"orders.returned"})
	if len(merged) != 3 || merged[2] != "orders.returned" {
		t.Fatalf("union with new subject = %v", merged)
	}

	// Adding an already-present subject does not duplicate it.
	same := unionSubjects(current, []string{"orders.created"})
	if len(same) != len(current) {
		t.Fatalf("union with present subject grew the set: %v", same)
	}

	if len(current) != 2 {
		t.Fatalf("input slice was mutated: %v", current)
	}
}

func TestSubtractSubjects(t *testing.T) {
	current := []string{"orders.created", "orders.shipped", "orders.returned"}

	kept := subtractSubjects(current, []string{"orders.shipped"})
	if len(kept) != 2 || kept[0] != "orders.created" || kept[1] != "orders.returned" {
		t.Fatalf("subtract = %v", kept)
	}

	if got := subtractSubjects(current, []string{"orders.missing"}); len(got) != 3 {
		t.Fatalf("subtracting an absent subject changed the set: %v", got)
	}

	if got := subtractSubjects(current, current); got != nil {
		t.Fatalf("subtracting everything should leave nothing, got %v", got)
	}
}

func TestGuardStreamDelete(t *testing.T) {
	if err := guardStreamDelete("orders", 3, false); !errors.Is(err, ErrConsumersAttached) {
		t.Fatalf("unforced delete with consumers: err = %v, want ErrConsumersAttached", err)
	}
	if err := guardStreamDelete("orders", 3, true); err != nil {
		t.Fatalf("forced delete with consumers: %v", err)
	}
	if err := guardStreamDelete("orders", 0, false); err != nil {
		t.Fatalf("unforced delete without consumers: %v", err)
	}
}
