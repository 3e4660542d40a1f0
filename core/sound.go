package core

// SoundType represents different sound effects
type SoundType int

const (
	SoundSpin   SoundType = iota // Reels launched
	SoundStop                    // Reel locked on target
	SoundClick                   // Key acknowledged
	SoundPower                   // Hint requested
	SoundWin                     // Spin resolved
	SoundUI                      // Hint shown
	SoundGlitch                  // Hint request failed
	SoundLock                    // Reel bounce settled
	SoundNudge                   // Reel nudged
	SoundTypeCount
)

func (s SoundType) String() string {
	switch s {
	case SoundSpin:
		return "spin"
	case SoundStop:
		return "stop"
	case SoundClick:
		return "click"
	case SoundPower:
		return "power"
	case SoundWin:
		return "win"
	case SoundUI:
		return "ui"
	case SoundGlitch:
		return "glitch"
	case SoundLock:
		return "lock"
	case SoundNudge:
		return "nudge"
	default:
		return "unknown"
	}
}
