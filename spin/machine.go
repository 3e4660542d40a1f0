package spin

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/symbol"
)

// Scheduler runs fn once after delay; the returned func cancels it
// and reports whether the callback was still pending
type Scheduler interface {
	Schedule(fn func(), delay time.Duration) (cancel func() bool)
}

// Config controls launch behavior; the reel count is len(StopDelays)
type Config struct {
	StopDelays    []time.Duration
	BaseVelocity  float64
	VelocityStep  float64
	MaxNudges     int
	FrameUnit     time.Duration
	MaxFrameDelta float64
}

// DefaultConfig returns the classic three-reel cadence
func DefaultConfig() Config {
	return Config{
		StopDelays:    []time.Duration{400 * time.Millisecond, 800 * time.Millisecond, 1200 * time.Millisecond},
		BaseVelocity:  80,
		VelocityStep:  2,
		MaxNudges:     3,
		FrameUnit:     16 * time.Millisecond,
		MaxFrameDelta: 2,
	}
}

// Validate checks the launch schedule
func (c Config) Validate() error {
	if len(c.StopDelays) == 0 {
		return errors.New("spin: at least one reel required")
	}
	for i, d := range c.StopDelays {
		if d < 0 {
			return fmt.Errorf("spin: stop delay %d is negative", i)
		}
		if i > 0 && d <= c.StopDelays[i-1] {
			return fmt.Errorf("spin: stop delays must be strictly increasing (reel %d)", i)
		}
	}
	if c.BaseVelocity <= 0 {
		return errors.New("spin: base velocity must be positive")
	}
	if c.FrameUnit <= 0 {
		return errors.New("spin: frame unit must be positive")
	}
	if c.MaxFrameDelta <= 0 {
		return errors.New("spin: max frame delta must be positive")
	}
	if c.MaxNudges < 0 {
		return errors.New("spin: max nudges must not be negative")
	}
	return nil
}

// EventKind identifies orchestrator notifications
type EventKind uint8

const (
	EventLaunch EventKind = iota
	EventReelStopping
	EventReelLocked
	EventReelSettled
	EventNudge
	EventResolved
)

// Event is delivered to the observer synchronously on the owning goroutine
type Event struct {
	Kind      EventKind
	Reel      int // -1 for whole-machine events
	SessionID uuid.UUID
}

// ResolveFunc receives the landed strip indices once per spin
type ResolveFunc func(s *Session, landed []int) error

// Machine owns the reels and the spin session
// All methods must be called from a single goroutine
type Machine struct {
	reels   []reel.Reel
	params  reel.Params
	cfg     Config
	catalog *symbol.Catalog

	sched    Scheduler
	rng      RandomSource
	resolve  ResolveFunc
	observer func(Event)
	log      *zap.Logger

	session *Session
	nudges  int

	lastFrame   time.Duration
	haveFrame   bool
	transitions []reel.Transition

	closed bool
}

// NewMachine creates an idle machine
func NewMachine(catalog *symbol.Catalog, sched Scheduler, cfg Config, params reel.Params) (*Machine, error) {
	if catalog == nil {
		return nil, errors.New("spin: nil catalog")
	}
	if sched == nil {
		return nil, errors.New("spin: nil scheduler")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	delays := make([]time.Duration, len(cfg.StopDelays))
	copy(delays, cfg.StopDelays)
	cfg.StopDelays = delays

	return &Machine{
		reels:       make([]reel.Reel, len(delays)),
		params:      params,
		cfg:         cfg,
		catalog:     catalog,
		sched:       sched,
		rng:         DefaultRandom(),
		log:         zap.NewNop(),
		nudges:      cfg.MaxNudges,
		transitions: make([]reel.Transition, len(delays)),
	}, nil
}

// SetRandom replaces the landing index source
func (m *Machine) SetRandom(r RandomSource) {
	if r != nil {
		m.rng = r
	}
}

// OnResolve sets the completion callback
func (m *Machine) OnResolve(fn ResolveFunc) { m.resolve = fn }

// OnEvent sets the observer for sound and UI triggers
func (m *Machine) OnEvent(fn func(Event)) { m.observer = fn }

// SetLogger sets the machine logger
func (m *Machine) SetLogger(l *zap.Logger) {
	if l != nil {
		m.log = l
	}
}

func (m *Machine) emit(kind EventKind, reelIdx int) {
	if m.observer == nil {
		return
	}
	ev := Event{Kind: kind, Reel: reelIdx}
	if m.session != nil {
		ev.SessionID = m.session.ID
	}
	m.observer(ev)
}

// Launch starts a spin; it is a no-op while any reel is Spinning or Stopping
// or while a locked spin is still bouncing toward its resolve
func (m *Machine) Launch() bool {
	if m.closed || m.MotionPending() || m.ResolvePending() {
		return false
	}

	s := newSession(len(m.reels), m.cfg.StopDelays)
	for i := range m.reels {
		m.reels[i].Launch(m.cfg.BaseVelocity + float64(i)*m.cfg.VelocityStep)
		s.Launched[i] = true
	}
	m.nudges = m.cfg.MaxNudges
	m.session = s

	for i, delay := range s.StopDelays {
		idx := i
		s.cancels[i] = m.sched.Schedule(func() { m.stopFromTimer(s, idx) }, delay)
	}

	m.log.Debug("spin launched",
		zap.Stringer("session", s.ID),
		zap.Int("reels", len(m.reels)),
		zap.Int("symbols", m.catalog.Len()),
	)
	m.emit(EventLaunch, -1)
	return true
}

// stopFromTimer is the scheduled stop; stale or post-teardown callbacks are dropped
func (m *Machine) stopFromTimer(s *Session, i int) {
	if m.closed || m.session != s {
		return
	}
	s.cancels[i] = nil
	m.RequestStop(i)
}

// RequestStop picks a uniformly random landing index and starts deceleration
func (m *Machine) RequestStop(i int) bool {
	if m.closed || m.session == nil || i < 0 || i >= len(m.reels) {
		return false
	}
	if m.reels[i].State != reel.StateSpinning {
		return false
	}

	target := m.rng.Intn(m.catalog.Len())
	m.reels[i].BeginStop(target)
	m.session.StopRequested[i] = true

	m.log.Debug("reel stopping",
		zap.Stringer("session", m.session.ID),
		zap.Int("reel", i),
		zap.Int("target", target),
	)
	m.emit(EventReelStopping, i)
	return true
}

// ApplyNudge moves a resting reel forward one symbol
func (m *Machine) ApplyNudge(i int) bool {
	if m.closed || i < 0 || i >= len(m.reels) || m.nudges <= 0 || m.MotionPending() {
		return false
	}

	n := m.catalog.Len()
	r := &m.reels[i]
	r.Relock((r.Target + 1) % n)
	m.nudges--

	m.log.Debug("reel nudged", zap.Int("reel", i), zap.Int("target", r.Target), zap.Int("remaining", m.nudges))
	m.emit(EventNudge, i)
	return true
}

// Step advances the simulation to frame timestamp now and polls for completion
// The first call only establishes the time base
func (m *Machine) Step(now time.Duration) (reel.Report, error) {
	dt := 0.0
	if m.haveFrame {
		dt = reel.FrameDelta(now-m.lastFrame, m.cfg.FrameUnit, m.cfg.MaxFrameDelta)
	}
	m.lastFrame = now
	m.haveFrame = true

	t := float64(now) / float64(time.Millisecond)
	rep := reel.Step(m.reels, &m.params, dt, t, m.catalog.Len(), m.transitions)
	m.transitions = rep.Transitions

	for i, tr := range rep.Transitions {
		switch tr {
		case reel.TransitionLocked:
			if m.session != nil {
				m.session.LockedThisSpin = true
			}
			m.emit(EventReelLocked, i)
		case reel.TransitionSettled:
			m.emit(EventReelSettled, i)
		}
	}

	_, err := m.PollCompletion()
	return rep, err
}

// PollCompletion fires the resolve callback at most once per spin
// The guard trips before the callback runs, so a failing callback is not retried
func (m *Machine) PollCompletion() (bool, error) {
	s := m.session
	if s == nil || s.Resolved || !s.LockedThisSpin {
		return false, nil
	}
	for i := range m.reels {
		if m.reels[i].Moving() || !m.reels[i].AtRest() {
			return false, nil
		}
	}

	s.Resolved = true
	landed := m.Landed()

	m.log.Debug("spin resolved", zap.Stringer("session", s.ID), zap.Ints("landed", landed))
	m.emit(EventResolved, -1)

	if m.resolve == nil {
		return true, nil
	}
	if err := m.resolve(s, landed); err != nil {
		return true, fmt.Errorf("resolve spin %s: %w", s.ID, err)
	}
	return true, nil
}

// Reset returns every reel to Idle for the next launch
func (m *Machine) Reset() {
	if m.session != nil {
		m.session.cancelTimers()
	}
	for i := range m.reels {
		m.reels[i].Rest()
	}
}

// Close cancels pending stop timers; the machine ignores all later calls
func (m *Machine) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.session != nil {
		if n := m.session.cancelTimers(); n > 0 {
			m.log.Debug("cancelled pending stops", zap.Int("count", n))
		}
	}
}

// MotionPending reports whether any reel is Spinning or Stopping
func (m *Machine) MotionPending() bool {
	for i := range m.reels {
		if m.reels[i].Moving() {
			return true
		}
	}
	return false
}

// ResolvePending reports whether the current spin has locked but not yet resolved
func (m *Machine) ResolvePending() bool {
	s := m.session
	return s != nil && s.LockedThisSpin && !s.Resolved
}

// Settled reports whether every reel is at rest
func (m *Machine) Settled() bool {
	for i := range m.reels {
		if !m.reels[i].AtRest() {
			return false
		}
	}
	return true
}

// Landed returns each reel's target index
func (m *Machine) Landed() []int {
	out := make([]int, len(m.reels))
	for i := range m.reels {
		out[i] = m.reels[i].Target
	}
	return out
}

// Reels returns a copy of the reel states
func (m *Machine) Reels() []reel.Reel {
	out := make([]reel.Reel, len(m.reels))
	copy(out, m.reels)
	return out
}

// ReelCount returns the number of reels
func (m *Machine) ReelCount() int { return len(m.reels) }

// Session returns the current or most recent session, nil before the first launch
func (m *Machine) Session() *Session { return m.session }

// NudgesRemaining returns the nudge allowance left for this spin
func (m *Machine) NudgesRemaining() int { return m.nudges }

// Catalog returns the shared symbol catalog
func (m *Machine) Catalog() *symbol.Catalog { return m.catalog }

// Closed reports whether Close has been called
func (m *Machine) Closed() bool { return m.closed }
