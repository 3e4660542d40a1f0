package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/reel-cortex/core"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a new oscillator for wave generation
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		// Keep phase in [0, 1)
		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and exponential release to a stream
type envelope struct {
	streamer      beep.Streamer
	position      int
	attackSamples int
	totalSamples  int
	decay         float64 // per-sample release multiplier
	level         float64
}

// releaseFloor is the gain reached at the end of the release
const releaseFloor = 0.001

// NewEnvelope shapes s over duration; the release decays exponentially to near silence at the end
func NewEnvelope(s beep.Streamer, duration, attack time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	if att > total {
		att = total
	}
	rel := total - att
	decay := 1.0
	if rel > 0 {
		decay = math.Pow(releaseFloor, 1/float64(rel))
	}
	return &envelope{
		streamer:      s,
		attackSamples: att,
		totalSamples:  total,
		decay:         decay,
		level:         1,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := e.level
		if e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		} else {
			e.level *= e.decay
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// Helper to create a volume effect safely
// math.Log2(0) is -Inf, so we handle 0 volume by making it silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// voice is one oscillator with its envelope
func voice(freq float64, d time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(NewOscillator(freq, d, wave, rate), d, 5*time.Millisecond, rate)
}

// Sound effect generators

// CreateSpinSound is the low saw rumble of the reels launching
func CreateSpinSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(180, 500*time.Millisecond, WaveSaw, rate), cfg.volume(core.SoundSpin))
}

// CreateStopSound is the thunk of a reel locking
func CreateStopSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(110, 200*time.Millisecond, WaveSquare, rate), cfg.volume(core.SoundStop))
}

// CreateClickSound is a short UI tick
func CreateClickSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(700, 50*time.Millisecond, WaveSine, rate), cfg.volume(core.SoundClick))
}

// CreatePowerSound plays while a hint is being requested
func CreatePowerSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(440, 800*time.Millisecond, WaveSaw, rate), cfg.volume(core.SoundPower))
}

// winNotes is a C major arpeggio up to E6
var winNotes = []float64{523, 659, 783, 1046, 1318}

// CreateWinSound staggers the arpeggio notes 70ms apart and lets them ring over each other
func CreateWinSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	const (
		gap  = 70 * time.Millisecond
		ring = 600 * time.Millisecond
	)

	notes := make([]beep.Streamer, len(winNotes))
	for i, f := range winNotes {
		delay := rate.N(time.Duration(i) * gap)
		notes[i] = beep.Seq(beep.Silence(delay), newVolume(voice(f, ring, WaveSquare, rate), 1/float64(len(winNotes))))
	}
	return newVolume(beep.Mix(notes...), cfg.volume(core.SoundWin))
}

// CreateUISound is the chime when a hint appears
func CreateUISound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(900, 100*time.Millisecond, WaveSine, rate), cfg.volume(core.SoundUI))
}

// CreateGlitchSound is a low square at a random pitch in [40, 140)Hz
func CreateGlitchSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	freq := 40 + rand.Float64()*100
	return newVolume(voice(freq, 300*time.Millisecond, WaveSquare, rate), cfg.volume(core.SoundGlitch))
}

// CreateLockSound marks the bounce settling
func CreateLockSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(300, 100*time.Millisecond, WaveTriangle, rate), cfg.volume(core.SoundLock))
}

// CreateNudgeSound marks a manual nudge
func CreateNudgeSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(voice(600, 100*time.Millisecond, WaveSine, rate), cfg.volume(core.SoundNudge))
}

// GetSoundEffect returns the appropriate sound effect streamer for the given type
func GetSoundEffect(soundType core.SoundType, cfg *Config) beep.Streamer {
	switch soundType {
	case core.SoundSpin:
		return CreateSpinSound(cfg)
	case core.SoundStop:
		return CreateStopSound(cfg)
	case core.SoundClick:
		return CreateClickSound(cfg)
	case core.SoundPower:
		return CreatePowerSound(cfg)
	case core.SoundWin:
		return CreateWinSound(cfg)
	case core.SoundUI:
		return CreateUISound(cfg)
	case core.SoundGlitch:
		return CreateGlitchSound(cfg)
	case core.SoundLock:
		return CreateLockSound(cfg)
	case core.SoundNudge:
		return CreateNudgeSound(cfg)
	default:
		return nil
	}
}
