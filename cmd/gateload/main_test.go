package main

import (
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
		100 * time.Millisecond,
	}
	if got := percentile(sorted, 50); got != 3*time.Millisecond {
		t.Fatalf("p50 = %v, want 3ms", got)
	}
	if got := percentile(sorted, 90); got != 100*time.Millisecond {
		t.Fatalf("p90 = %v, want 100ms", got)
	}
	if got := percentile(sorted, 99); got != 100*time.Millisecond {
		t.Fatalf("p99 = %v, want 100ms", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty percentile = %v, want 0", got)
	}
}

func TestPercentileSingleSample(t *testing.T) {
	sorted := []time.Duration{7 * time.Millisecond}
	for _, p := range []int{1, 50, 99} {
		if got := percentile(sorted, p); got != 7*time.Millisecond {
			t.Fatalf("p%d = %v, want 7ms", p, got)
		}
	}
}
