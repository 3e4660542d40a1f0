package audio

import "github.com/lixenwraith/reel-cortex/core"

// Config controls the synth output
type Config struct {
	Enabled       bool                       `toml:"enabled"`
	MasterVolume  float64                    `toml:"volume" validate:"gte=0,lte=1"`
	SampleRate    int                        `toml:"sample_rate" validate:"gte=8000,lte=192000"`
	EffectVolumes map[core.SoundType]float64 `toml:"-"`
}

// DefaultConfig returns the stock mix
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		MasterVolume: 0.5,
		SampleRate:   44100,
		EffectVolumes: map[core.SoundType]float64{
			core.SoundSpin:   0.6,
			core.SoundStop:   0.8,
			core.SoundClick:  0.5,
			core.SoundPower:  0.6,
			core.SoundWin:    0.7,
			core.SoundUI:     0.4,
			core.SoundGlitch: 0.6,
			core.SoundLock:   0.7,
			core.SoundNudge:  0.6,
		},
	}
}

// volume is the effective gain for one sound type
func (c *Config) volume(st core.SoundType) float64 {
	v, ok := c.EffectVolumes[st]
	if !ok {
		v = 1
	}
	return v * c.MasterVolume
}
