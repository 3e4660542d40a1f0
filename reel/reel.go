package reel

import (
	"math"
	"time"
)

// State is the lifecycle state of a single reel
type State uint8

const (
	StateIdle     State = iota // At rest, not part of a resolution
	StateSpinning              // Free spin at launch velocity, no target yet
	StateStopping              // Decelerating toward Target
	StateLocked                // Snapped to Target, bounce may still be decaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpinning:
		return "spinning"
	case StateStopping:
		return "stopping"
	case StateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Transition reports what happened to a reel during one Advance call
type Transition uint8

const (
	TransitionNone    Transition = iota
	TransitionLocked             // Stopping -> Locked this frame
	TransitionSettled            // Bounce decayed to zero this frame
)

// Reel is the kinematic state of one rotating column
// Position grows without bound while spinning; Wrap maps it onto the strip
type Reel struct {
	Position float64
	Velocity float64
	State    State
	Target   int
	Bounce   float64
}

// Launch puts the reel into free spin
func (r *Reel) Launch(velocity float64) {
	r.State = StateSpinning
	r.Velocity = velocity
	r.Bounce = 0
}

// BeginStop assigns the landing index, returns false unless the reel is spinning
func (r *Reel) BeginStop(target int) bool {
	if r.State != StateSpinning {
		return false
	}
	r.Target = target
	r.State = StateStopping
	return true
}

// Relock snaps the reel onto target with no bounce
func (r *Reel) Relock(target int) {
	r.Target = target
	r.Position = float64(target)
	r.Velocity = 0
	r.Bounce = 0
	r.State = StateLocked
}

// Rest returns the reel to Idle, keeping its displayed position
func (r *Reel) Rest() {
	r.State = StateIdle
	r.Velocity = 0
	r.Bounce = 0
}

// Moving reports whether the reel is Spinning or Stopping
func (r *Reel) Moving() bool {
	return r.State == StateSpinning || r.State == StateStopping
}

// AtRest reports Locked-or-Idle with no bounce remaining
func (r *Reel) AtRest() bool {
	return (r.State == StateLocked || r.State == StateIdle) && r.Bounce == 0
}

// Index returns the symbol nearest to the payline
func (r *Reel) Index(symbolCount int) int {
	if symbolCount <= 0 {
		return 0
	}
	i := int(math.Round(Wrap(r.Position, symbolCount)))
	return i % symbolCount
}

// Advance moves the reel forward by dt frame units
// t is the frame timestamp in milliseconds and drives the bounce phase
func (r *Reel) Advance(p *Params, dt, t float64, symbolCount int) Transition {
	switch r.State {
	case StateIdle:
		r.Velocity = 0

	case StateSpinning:
		r.Position += r.Velocity * dt * p.SpeedScale

	case StateStopping:
		dist := ForwardDistance(r.Position, r.Target, symbolCount)
		if dist < p.StopEpsilon && r.Velocity < p.MinStopSpeed {
			r.lock(p)
			return TransitionLocked
		}

		r.Velocity *= math.Pow(p.Friction, dt)
		step := math.Max(r.Velocity, p.MinStepSpeed) * dt * p.SpeedScale

		// A slow reel that would pass the target this frame lands on it instead
		if r.Velocity < p.MinStopSpeed && step >= dist {
			r.lock(p)
			return TransitionLocked
		}
		r.Position += step

	case StateLocked:
		if r.Bounce <= 0 {
			return TransitionNone
		}
		r.Position = float64(r.Target) + math.Sin(t*p.BounceRate)*r.Bounce*p.BounceForce
		r.Bounce *= math.Pow(p.BounceDecay, dt)
		if r.Bounce < p.BounceFloor {
			r.Bounce = 0
			r.Position = float64(r.Target)
			return TransitionSettled
		}
	}
	return TransitionNone
}

func (r *Reel) lock(p *Params) {
	r.Position = float64(r.Target)
	r.Velocity = 0
	r.Bounce = p.BounceEnergy
	r.State = StateLocked
}

// Report is the per-frame summary across all reels
type Report struct {
	MotionPending bool // Some reel is Spinning or Stopping
	FullySettled  bool // Every reel is Locked or Idle with zero bounce
	Transitions   []Transition
}

// Step advances every reel exactly once
// out is reused for transitions when it has enough capacity
func Step(reels []Reel, p *Params, dt, t float64, symbolCount int, out []Transition) Report {
	if cap(out) < len(reels) {
		out = make([]Transition, len(reels))
	}
	out = out[:len(reels)]

	rep := Report{FullySettled: true, Transitions: out}
	for i := range reels {
		out[i] = reels[i].Advance(p, dt, t, symbolCount)
		if reels[i].Moving() {
			rep.MotionPending = true
		}
		if !reels[i].AtRest() {
			rep.FullySettled = false
		}
	}
	return rep
}

// Wrap maps an unbounded position onto [0, symbolCount)
func Wrap(pos float64, symbolCount int) float64 {
	n := float64(symbolCount)
	m := math.Mod(pos, n)
	if m < 0 {
		m += n
	}
	// Mod of a value just below a multiple of n can round up to n
	if m >= n {
		m = 0
	}
	return m
}

// ForwardDistance is the distance left to travel in the spin direction to reach target
// Never negative: a reel that is past its target has to go around again
func ForwardDistance(pos float64, target, symbolCount int) float64 {
	d := float64(target) - Wrap(pos, symbolCount)
	if d < 0 {
		d += float64(symbolCount)
	}
	return d
}

// FrameDelta converts elapsed wall time into clamped frame units
func FrameDelta(elapsed, unit time.Duration, maxDelta float64) float64 {
	if elapsed <= 0 || unit <= 0 {
		return 0
	}
	dt := float64(elapsed) / float64(unit)
	if dt > maxDelta {
		return maxDelta
	}
	return dt
}
