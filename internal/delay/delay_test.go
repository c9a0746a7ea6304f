package delay

import (
	"testing"
	"time"
)

func TestNextStaysInBounds(t *testing.T) {
	g := NewSeeded(1)
	min := 500 * time.Millisecond
	max := 3 * time.Second
	for i := 0; i < 10000; i++ {
		d := g.Next(min, max)
		if d < min || d >= max {
			t.Fatalf("draw %d out of [%v, %v): %v", i, min, max, d)
		}
	}
}

func TestNextZeroWidthBounds(t *testing.T) {
	g := NewSeeded(2)
	for i := 0; i < 100; i++ {
		if d := g.Next(time.Second, time.Second); d != time.Second {
			t.Fatalf("expected exactly 1s, got %v", d)
		}
	}
}

func TestNextInvertedBoundsFallsBackToMin(t *testing.T) {
	g := NewSeeded(3)
	if d := g.Next(2*time.Second, time.Second); d != 2*time.Second {
		t.Fatalf("expected min fallback, got %v", d)
	}
}

func TestShufflePermutes(t *testing.T) {
	g := NewSeeded(4)
	items := []string{"blue", "green", "red", "yellow", "orange"}
	shuffled := append([]string(nil), items...)
	g.Shuffle(shuffled)
	seen := map[string]bool{}
	for _, s := range shuffled {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			t.Fatalf("shuffle lost element %q", s)
		}
	}
}
