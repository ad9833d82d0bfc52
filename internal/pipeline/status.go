// internal/pipeline/status.go
package pipeline

import (
	"sync"
	"sync/atomic"
)

// Phase is where a batch currently is in its lifecycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseEnumerate
	PhaseDistribute
	PhaseCompute
	PhaseCollect
	PhasePersist
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEnumerate:
		return "enumerate"
	case PhaseDistribute:
		return "distribute"
	case PhaseCompute:
		return "compute"
	case PhaseCollect:
		return "collect"
	case PhasePersist:
		return "persist"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Status carries a batch's live counters. Safe for concurrent reads while
// the batch runs.
type Status struct {
	phase atomic.Int32

	Skipped   atomic.Int64
	Computed  atomic.Int64
	Persisted atomic.Int64

	mu       sync.Mutex
	firstErr error
}

// Phase returns the current lifecycle phase.
func (s *Status) Phase() Phase { return Phase(s.phase.Load()) }

func (s *Status) setPhase(p Phase) {
	// Terminal phases stick.
	cur := Phase(s.phase.Load())
	if cur == PhaseDone || cur == PhaseFailed {
		return
	}
	s.phase.Store(int32(p))
}

// fail records the first fatal error of the batch.
func (s *Status) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr == nil {
		s.firstErr = err
	}
}

func (s *Status) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}
