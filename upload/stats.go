package upload

import (
	"sync"
	"time"
)

// Stats tracks chunk transfer timings for progress reporting.
type Stats struct {
	sum            time.Duration
	bytes          int64
	finishedChunks int64
	mu             sync.Mutex
}

// NewStats ...
func NewStats() *Stats {
	return &Stats{}
}

// Update records a successful chunk transfer.
func (s *Stats) Update(d time.Duration, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sum += d
	s.bytes += size
	s.finishedChunks++
}

// Average returns the average transfer duration of completed chunks.
func (s *Stats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finishedChunks == 0 {
		return 0
	}
	return s.sum / time.Duration(s.finishedChunks)
}

// FinishedCount ...
func (s *Stats) FinishedCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedChunks
}

// Bytes ...
func (s *Stats) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// TotalDuration ...
func (s *Stats) TotalDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}
