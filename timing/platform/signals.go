package platform

import (
	"sync"
	"sync/atomic"
)

// StopSignal ends traffic generation at a given cycle, or earlier when
// raised by hand.
type StopSignal struct {
	at     uint64
	raised atomic.Bool
}

// NewStopSignal creates a signal raised from the given cycle on.
func NewStopSignal(at uint64) *StopSignal {
	return &StopSignal{at: at}
}

// Stopped tells if masters should stop generating at the cycle.
func (s *StopSignal) Stopped(cycle uint64) bool {
	return s.raised.Load() || cycle >= s.at
}

// Raise stops generation from the next cycle on.
func (s *StopSignal) Raise() {
	s.raised.Store(true)
}

// Raised tells if Raise was called.
func (s *StopSignal) Raised() bool {
	return s.raised.Load()
}

// HaltSignal keeps the first failure reported by any component. Once set,
// every component stops ticking.
type HaltSignal struct {
	mu  sync.Mutex
	err error
}

// Halt records the failure unless one is recorded already.
func (h *HaltSignal) Halt(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err == nil {
		h.err = err
	}
}

// Halted tells if a failure was recorded.
func (h *HaltSignal) Halted() bool {
	return h.Err() != nil
}

// Err returns the first failure.
func (h *HaltSignal) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}
