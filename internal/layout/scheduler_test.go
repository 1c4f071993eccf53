package layout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shutterboxapp/shutterbox/internal/clock"
)

const (
	testDebounce = 150 * time.Millisecond
	testSettle   = 50 * time.Millisecond
)

func newTestScheduler(run func()) (*Scheduler, *clock.Fake) {
	c := clock.NewFake(time.Unix(0, 0))
	return NewScheduler(c, testDebounce, testSettle, run), c
}

func TestScheduler_CoalescesWithinWindow(t *testing.T) {
	runs := 0
	s, c := newTestScheduler(func() { runs++ })

	s.Trigger()
	c.Advance(100 * time.Millisecond)
	s.Trigger()
	c.Advance(100 * time.Millisecond)
	s.Trigger()

	c.Advance(testDebounce - time.Millisecond)
	assert.Zero(t, runs, "each trigger restarts the window")

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, runs)
	assert.True(t, s.Busy(), "settling after the run")

	c.Advance(testSettle)
	assert.False(t, s.Busy())
	assert.Equal(t, 1, runs, "no follow-up without new triggers")
	assert.Equal(t, 1, s.Runs())
}

func TestScheduler_TriggersDuringRunYieldOneFollowUp(t *testing.T) {
	var s *Scheduler
	runs := 0
	s, c := newTestScheduler(func() {
		runs++
		if runs == 1 {
			// A burst of arrivals while the first layout is computing.
			for range 10 {
				s.Trigger()
			}
		}
	})

	s.Trigger()
	c.Advance(testDebounce)
	assert.Equal(t, 1, runs)

	c.Advance(testSettle - time.Millisecond)
	assert.Equal(t, 1, runs, "suppressed until the settle delay ends")

	c.Advance(time.Millisecond)
	assert.Equal(t, 2, runs, "one follow-up for the whole burst")

	c.Advance(time.Second)
	assert.Equal(t, 2, runs)
	assert.False(t, s.Busy())
}

func TestScheduler_TriggerWhileSettlingIsDeferred(t *testing.T) {
	runs := 0
	s, c := newTestScheduler(func() { runs++ })

	s.Trigger()
	c.Advance(testDebounce)
	assert.Equal(t, 1, runs)

	c.Advance(10 * time.Millisecond)
	s.Trigger()
	assert.Equal(t, 1, c.Pending(), "only the settle timer is pending")

	c.Advance(testSettle)
	assert.Equal(t, 2, runs)
}

func TestScheduler_Stop(t *testing.T) {
	runs := 0
	s, c := newTestScheduler(func() { runs++ })

	s.Trigger()
	s.Stop()
	c.Advance(time.Second)
	assert.Zero(t, runs)

	s.Trigger()
	c.Advance(time.Second)
	assert.Zero(t, runs, "stopped scheduler ignores triggers")
	assert.Zero(t, c.Pending())
}

func TestScheduler_AtMostOneRunInFlight(t *testing.T) {
	var inFlight, maxInFlight, runs atomic.Int32
	s := NewScheduler(clock.Real(), time.Millisecond, time.Millisecond, func() {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		runs.Add(1)
	})
	defer s.Stop()

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Trigger()
		time.Sleep(100 * time.Microsecond)
	}

	assert.Eventually(t, func() bool { return !s.Busy() }, time.Second, time.Millisecond)
	assert.Positive(t, runs.Load())
	assert.Equal(t, int32(1), maxInFlight.Load())
}
