package layout

import (
	"sync"
	"time"

	"github.com/shutterboxapp/shutterbox/internal/clock"
)

// Scheduler coalesces layout requests. Triggers within the debounce window
// restart the window and collapse into one run. While a run is in progress,
// and for the settle delay after it, triggers only mark the layout dirty; a
// dirty layout gets exactly one follow-up run once the settle delay ends.
type Scheduler struct {
	clock    clock.Clock
	debounce time.Duration
	settle   time.Duration
	run      func()

	mu     sync.Mutex
	timer  clock.Timer
	gen    uint64
	busy   bool
	dirty  bool
	closed bool
	runs   int
}

// NewScheduler creates a scheduler that calls run for each coalesced batch
// of triggers. run is never called concurrently with itself.
func NewScheduler(c clock.Clock, debounce, settle time.Duration, run func()) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{clock: c, debounce: debounce, settle: settle, run: run}
}

// Trigger requests a recomputation.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.busy {
		s.dirty = true
		return
	}
	s.arm(s.debounce)
}

// arm (re)starts the debounce timer. Callers hold mu.
func (s *Scheduler) arm(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || s.busy || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.timer = nil
	s.mu.Unlock()

	s.run()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if s.closed {
		return
	}
	s.gen++
	gen = s.gen
	s.timer = s.clock.AfterFunc(s.settle, func() { s.settled(gen) })
}

func (s *Scheduler) settled(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.busy = false
	s.timer = nil
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.gen++
	next := s.gen
	s.mu.Unlock()

	s.fire(next)
}

// Busy reports whether a run or its settle delay is in progress.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Runs returns how many times run has completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Stop cancels any pending run. A run in progress completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
