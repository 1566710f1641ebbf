package ingest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/ordermonitor/internal/logger"
)

// Stats is a snapshot of what a monitor has done since it was created.
type Stats struct {
	StartTime time.Time         `json:"start_time"`
	Submitted int64             `json:"submitted"`
	Dropped   int64             `json:"dropped"`
	InFlight  int               `json:"in_flight"`
	Outcomes  map[Outcome]int64 `json:"outcomes"`
}

type runStats struct {
	startTime time.Time
	submits   int64
	drops     int64

	mu       sync.Mutex
	outcomes map[Outcome]int64
}

func newRunStats() *runStats {
	return &runStats{startTime: time.Now(), outcomes: make(map[Outcome]int64)}
}

func (s *runStats) submitted() { atomic.AddInt64(&s.submits, 1) }
func (s *runStats) dropped()   { atomic.AddInt64(&s.drops, 1) }

func (s *runStats) record(o Outcome) {
	s.mu.Lock()
	s.outcomes[o]++
	s.mu.Unlock()
}

func (s *runStats) snapshot() Stats {
	s.mu.Lock()
	outcomes := make(map[Outcome]int64, len(s.outcomes))
	for k, v := range s.outcomes {
		outcomes[k] = v
	}
	s.mu.Unlock()

	return Stats{
		StartTime: s.startTime,
		Submitted: atomic.LoadInt64(&s.submits),
		Dropped:   atomic.LoadInt64(&s.drops),
		Outcomes:  outcomes,
	}
}

func (s *runStats) fields() logger.Fields {
	snap := s.snapshot()
	f := logger.Fields{
		"submitted": snap.Submitted,
		"dropped":   snap.Dropped,
		"duration":  time.Since(snap.StartTime).String(),
	}
	for o, n := range snap.Outcomes {
		f[string(o)] = n
	}
	return f
}
