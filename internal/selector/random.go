package selector

import (
	"math/rand/v2"
	"time"
)

// Source supplies the randomness used by the queue. *rand.Rand satisfies it,
// so tests can pass rand.New(rand.NewPCG(seed1, seed2)).
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

type Option func(*Queue)

// WithSource replaces the process-wide random source.
func WithSource(src Source) Option {
	return func(q *Queue) {
		q.rng = src
	}
}

// WithClock sets the function used to stamp SelectedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}
