// Package rng provides the random number generation used by all game engines.
// Draws come from crypto/rand by default; tests inject their own entropy or a
// scripted Source to make outcomes reproducible.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// ErrEmptyInput is returned when a selection is requested from an empty set.
var ErrEmptyInput = errors.New("cannot select from empty input")

// Source yields uniform random integers. Game engines depend on this
// interface rather than the concrete Service so tests can script draws.
type Source interface {
	// Int returns a uniform random integer in [0, bound).
	Int(bound int64) (int64, error)
}

// Service is the production Source backed by a cryptographic entropy reader.
// Safe for concurrent use.
type Service struct {
	entropy io.Reader
	mu      sync.Mutex

	samplesGenerated int64
	lastHealthCheck  time.Time
}

// New creates a Service reading from crypto/rand.
func New() *Service {
	return NewWithEntropy(rand.Reader)
}

// NewWithEntropy creates a Service reading from the given entropy source.
// Only tests should pass anything other than crypto/rand.
func NewWithEntropy(entropy io.Reader) *Service {
	return &Service{
		entropy:         entropy,
		lastHealthCheck: time.Now(),
	}
}

// Int returns a uniform random integer in [0, bound).
// Uses rejection sampling to eliminate modulo bias.
func (s *Service) Int(bound int64) (int64, error) {
	if bound <= 0 {
		return 0, fmt.Errorf("bound must be positive, got %d", bound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Values >= threshold are rejected so the remainder is uniform.
	threshold := uint64(1<<63-1) - (uint64(1<<63-1) % uint64(bound))

	buf := make([]byte, 8)
	for {
		if _, err := io.ReadFull(s.entropy, buf); err != nil {
			return 0, fmt.Errorf("failed to read entropy: %w", err)
		}

		n := binary.BigEndian.Uint64(buf) >> 1 // 63 bits, always non-negative

		if n < threshold {
			s.samplesGenerated++
			return int64(n % uint64(bound)), nil
		}
	}
}

// IntRange returns a uniform random integer in [min, max].
func (s *Service) IntRange(min, max int64) (int64, error) {
	if min > max {
		return 0, fmt.Errorf("min %d greater than max %d", min, max)
	}
	n, err := s.Int(max - min + 1)
	if err != nil {
		return 0, err
	}
	return min + n, nil
}

// WeightedIndex selects an index with probability proportional to its weight,
// using a cumulative scan against a single uniform draw in [0, totalWeight).
func WeightedIndex(src Source, weights []int64) (int, error) {
	if len(weights) == 0 {
		return 0, ErrEmptyInput
	}

	var total int64
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("weight at index %d is negative", i)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("total weight must be positive")
	}

	draw, err := src.Int(total)
	if err != nil {
		return 0, err
	}

	var cumulative int64
	for i, w := range weights {
		cumulative += w
		if draw < cumulative {
			return i, nil
		}
	}

	// Unreachable with a well-behaved Source; keep the last index as fallback.
	return len(weights) - 1, nil
}

// Element returns a uniformly selected element of items.
func Element[T any](src Source, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrEmptyInput
	}
	i, err := src.Int(int64(len(items)))
	if err != nil {
		return zero, err
	}
	return items[i], nil
}

// Shuffle performs a Fisher-Yates shuffle over n elements using swap.
func Shuffle(src Source, n int, swap func(i, j int)) error {
	for i := n - 1; i > 0; i-- {
		j, err := src.Int(int64(i + 1))
		if err != nil {
			return err
		}
		swap(i, int(j))
	}
	return nil
}

// HealthResult contains RNG health check results.
type HealthResult struct {
	Healthy          bool      `json:"healthy"`
	Timestamp        time.Time `json:"timestamp"`
	SamplesGenerated int64     `json:"samples_generated"`
	ChiSquare        float64   `json:"chi_square"`
	Error            string    `json:"error,omitempty"`
}

// HealthCheck draws a batch of samples and runs a chi-square uniformity test.
func (s *Service) HealthCheck() (*HealthResult, error) {
	s.mu.Lock()
	s.lastHealthCheck = time.Now()
	s.mu.Unlock()

	const sampleSize = 1000
	const bins = 100

	counts := make([]int, bins)
	for i := 0; i < sampleSize; i++ {
		n, err := s.Int(bins)
		if err != nil {
			return &HealthResult{Healthy: false, Timestamp: time.Now(), Error: err.Error()}, err
		}
		counts[n]++
	}

	expected := float64(sampleSize) / float64(bins)
	var chiSquare float64
	for _, count := range counts {
		diff := float64(count) - expected
		chiSquare += (diff * diff) / expected
	}

	// Critical value at 99% confidence for bins-1 degrees of freedom.
	critical := float64(bins-1) + 2.576*math.Sqrt(2.0*float64(bins-1))

	s.mu.Lock()
	samples := s.samplesGenerated
	s.mu.Unlock()

	return &HealthResult{
		Healthy:          chiSquare < critical,
		Timestamp:        time.Now(),
		SamplesGenerated: samples,
		ChiSquare:        chiSquare,
	}, nil
}
