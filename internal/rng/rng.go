// Package rng provides the random source used for reward resolution.
//
// The default source draws from crypto/rand; a seeded source backed by
// math/rand is available for deterministic tests and simulations. Both
// satisfy the same interface so resolution code never knows which one it
// is running against.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand"
	"sync"
)

// Source produces uniform random values.
type Source interface {
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() (float64, error)
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int64) (int64, error)
}

// Service is the crypto/rand backed Source used in production.
type Service struct {
	entropy io.Reader

	mu      sync.Mutex
	samples int64
}

// New creates a Service reading from crypto/rand.
func New() *Service {
	return &Service{entropy: rand.Reader}
}

// IntN returns a uniform value in [0, n) using rejection sampling to
// avoid modulo bias.
func (s *Service) IntN(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("rng: n must be positive, got %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := uint64(1<<63-1) - (uint64(1<<63-1) % uint64(n))
	for {
		var buf [8]byte
		if _, err := io.ReadFull(s.entropy, buf[:]); err != nil {
			return 0, fmt.Errorf("rng: read entropy: %w", err)
		}
		v := binary.BigEndian.Uint64(buf[:]) >> 1
		if v < threshold {
			s.samples++
			return int64(v % uint64(n)), nil
		}
		// Reject and retry.
	}
}

// Float64 returns a uniform value in [0.0, 1.0) with 53 bits of precision.
func (s *Service) Float64() (float64, error) {
	v, err := s.IntN(1 << 53)
	if err != nil {
		return 0, err
	}
	return float64(v) / float64(1<<53), nil
}

// Samples reports how many values have been drawn, for health reporting.
func (s *Service) Samples() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

// Seeded is a deterministic Source for tests and Monte Carlo runs.
type Seeded struct {
	mu sync.Mutex
	r  *mrand.Rand
}

// NewSeeded creates a Source that replays the same sequence for one seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float64() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64(), nil
}

func (s *Seeded) IntN(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("rng: n must be positive, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Int63n(n), nil
}
