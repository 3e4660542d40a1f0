package engine

import "time"

type manualTask struct {
	due       time.Duration
	seq       uint64
	fn        func()
	cancelled bool
	fired     bool
}

// ManualScheduler runs callbacks against a simulated clock
// Not safe for concurrent use; callbacks run inside Advance/AdvanceTo
type ManualScheduler struct {
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

// NewManualScheduler creates a scheduler at simulated time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule queues fn at now+delay
func (s *ManualScheduler) Schedule(fn func(), delay time.Duration) func() bool {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &manualTask{due: s.now + delay, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return func() bool {
		if t.fired || t.cancelled {
			return false
		}
		t.cancelled = true
		return true
	}
}

// Now returns the simulated time
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}

// Advance moves the clock forward by d, firing due callbacks in due order
func (s *ManualScheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.now + d)
}

// AdvanceTo moves the clock to target, firing due callbacks in due order
// Ties run in scheduling order; callbacks scheduled while firing are honored
func (s *ManualScheduler) AdvanceTo(target time.Duration) int {
	fired := 0
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.due
		next.fired = true
		next.fn()
		fired++
	}
	if target > s.now {
		s.now = target
	}
	s.compact()
	return fired
}

// Pending returns callbacks neither fired nor cancelled
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) nextDue(target time.Duration) *manualTask {
	var best *manualTask
	for _, t := range s.tasks {
		if t.fired || t.cancelled || t.due > target {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *ManualScheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
