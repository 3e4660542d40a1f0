package reel

// Params holds the tuning constants for reel motion
// All rates are expressed per frame unit (one nominal 16ms frame)
type Params struct {
	SpeedScale   float64 `toml:"speed_scale" validate:"gt=0"`
	Friction     float64 `toml:"friction" validate:"gt=0,lt=1"`
	MinStepSpeed float64 `toml:"min_step_speed" validate:"gt=0"`
	MinStopSpeed float64 `toml:"min_stop_speed" validate:"gt=0"`
	StopEpsilon  float64 `toml:"stop_epsilon" validate:"gt=0,lt=1"`

	BounceEnergy float64 `toml:"bounce_energy" validate:"gte=0"`
	BounceForce  float64 `toml:"bounce_force" validate:"gte=0"`
	BounceRate   float64 `toml:"bounce_rate" validate:"gte=0"` // radians per millisecond of frame time
	BounceDecay  float64 `toml:"bounce_decay" validate:"gt=0,lt=1"`
	BounceFloor  float64 `toml:"bounce_floor" validate:"gt=0"`
}

// DefaultParams returns the stock tuning
func DefaultParams() Params {
	return Params{
		SpeedScale:   0.1,
		Friction:     0.96,
		MinStepSpeed: 0.9,
		MinStopSpeed: 0.9,
		StopEpsilon:  0.05,
		BounceEnergy: 6,
		BounceForce:  0.2,
		BounceRate:   0.02,
		BounceDecay:  0.8,
		BounceFloor:  0.1,
	}
}
