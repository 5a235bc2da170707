package pricestore

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

// DefaultCapacity is the number of samples retained per pair.
const DefaultCapacity = 1000

// Store keeps a bounded rolling price history per pair. Pairs are never
// evicted once seen.
type Store struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]model.Sample
}

// New builds a store that retains at most capacity samples per pair.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, series: make(map[string][]model.Sample)}
}

// Capacity returns the per-pair sample cap.
func (s *Store) Capacity() int { return s.capacity }

// Record appends a sample and drops the oldest ones beyond capacity.
func (s *Store) Record(pair string, price decimal.Decimal, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.series[pair], model.Sample{Price: price, Time: ts})
	if over := len(series) - s.capacity; over > 0 {
		// copy down so the backing array does not grow without bound
		trimmed := make([]model.Sample, s.capacity, s.capacity+1)
		copy(trimmed, series[over:])
		series = trimmed
	}
	s.series[pair] = series
}

// Slice returns the samples of pair whose timestamp lies in [from, to].
func (s *Store) Slice(pair string, from, to time.Time) []model.Sample {
	return s.Window(pair, model.Window{From: from, To: to})
}

// Window is Slice expressed with a model.Window.
func (s *Store) Window(pair string, w model.Window) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Sample
	for _, sample := range s.series[pair] {
		if w.Contains(sample.Time) {
			out = append(out, sample)
		}
	}
	return out
}

// Series returns a copy of the full retained history of pair.
func (s *Store) Series(pair string) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[pair]
	out := make([]model.Sample, len(series))
	copy(out, series)
	return out
}

// Len returns the number of samples retained for pair.
func (s *Store) Len(pair string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[pair])
}

// Pairs lists every tracked pair in lexical order.
func (s *Store) Pairs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]string, 0, len(s.series))
	for pair := range s.series {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}
