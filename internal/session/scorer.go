package session

import (
	"math/rand"
	"sync"
	"time"
)

// Scorer produces the advisory confidence value recorded on a completed
// assistant message. The value is a display aid, never a model signal.
type Scorer interface {
	Score() float64
}

// JitterScorer returns a fixed baseline plus bounded random jitter.
type JitterScorer struct {
	Baseline float64
	Jitter   float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitterScorer creates a scorer with the default baseline and jitter.
func NewJitterScorer() *JitterScorer {
	return &JitterScorer{
		Baseline: 0.72,
		Jitter:   0.2,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Score returns baseline + [0, jitter).
func (s *JitterScorer) Score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s.Baseline + s.rng.Float64()*s.Jitter
}

// FixedScorer always returns the same value. Intended for tests and
// deployments that want a stable display figure.
type FixedScorer float64

// Score returns the fixed value.
func (s FixedScorer) Score() float64 {
	return float64(s)
}
