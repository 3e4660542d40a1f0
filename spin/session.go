package spin

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one spin from launch to resolution
// It is replaced by the next Launch; after resolution it only answers queries
type Session struct {
	ID            uuid.UUID
	Launched      []bool
	StopRequested []bool
	StopDelays    []time.Duration

	// LockedThisSpin is set once any reel passes through Locked after launch
	LockedThisSpin bool
	// Resolved is the single-fire guard for the resolve callback
	Resolved bool

	cancels []func() bool
}

func newSession(reelCount int, delays []time.Duration) *Session {
	d := make([]time.Duration, len(delays))
	copy(d, delays)
	return &Session{
		ID:            uuid.New(),
		Launched:      make([]bool, reelCount),
		StopRequested: make([]bool, reelCount),
		StopDelays:    d,
		cancels:       make([]func() bool, reelCount),
	}
}

// PendingStops counts reels launched but not yet commanded to stop
func (s *Session) PendingStops() int {
	n := 0
	for i, launched := range s.Launched {
		if launched && !s.StopRequested[i] {
			n++
		}
	}
	return n
}

// cancelTimers cancels every outstanding stop timer, returns how many were still pending
func (s *Session) cancelTimers() int {
	n := 0
	for i, cancel := range s.cancels {
		if cancel != nil && cancel() {
			n++
		}
		s.cancels[i] = nil
	}
	return n
}
