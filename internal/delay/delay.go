// Package delay produces randomized inter-stimulus delays.
package delay

import (
	"math/rand"
	"time"
)

// Generator draws uniform random delays within configured bounds.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a Generator with a fixed seed for reproducible draws.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Next draws uniformly from [min, max). If min > max the bounds are a
// configuration error; min is returned rather than panicking.
func (g *Generator) Next(min, max time.Duration) time.Duration {
	if min > max || min == max {
		return min
	}
	return min + time.Duration(g.rnd.Float64()*float64(max-min))
}

// Shuffle permutes the slice in place (Fisher-Yates).
func (g *Generator) Shuffle(items []string) {
	g.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
