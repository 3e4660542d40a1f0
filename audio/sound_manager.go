package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/lixenwraith/reel-cortex/core"
)

// output is the device the mixer plays through; swapped in tests
type output struct {
	init   func(sr beep.SampleRate, bufferSize int) error
	play   func(s ...beep.Streamer)
	lock   func()
	unlock func()
}

var speakerOutput = output{
	init:   speaker.Init,
	play:   speaker.Play,
	lock:   speaker.Lock,
	unlock: speaker.Unlock,
}

// SoundManager manages all game audio
// Every method is safe before Initialize and after Cleanup; the game then runs silent
type SoundManager struct {
	mu          sync.Mutex
	cfg         *Config
	out         output
	cache       *soundCache
	mixer       *beep.Mixer
	muted       bool
	initialized bool
	log         *zap.Logger
}

// NewSoundManager creates a new sound manager
func NewSoundManager(cfg *Config, log *zap.Logger) *SoundManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SoundManager{
		cfg:   cfg,
		out:   speakerOutput,
		cache: newSoundCache(cfg),
		mixer: &beep.Mixer{},
		log:   log,
	}
}

// Initialize sets up the audio system
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized || !sm.cfg.Enabled {
		return nil
	}

	rate := beep.SampleRate(sm.cfg.SampleRate)
	if err := sm.out.init(rate, rate.N(100*time.Millisecond)); err != nil {
		return err
	}

	sm.cache.preload()
	sm.out.play(sm.mixer)
	sm.initialized = true
	sm.log.Debug("audio initialized", zap.Int("sample_rate", sm.cfg.SampleRate))
	return nil
}

// Play mixes in one effect; dropped when muted or uninitialized
func (sm *SoundManager) Play(st core.SoundType) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || sm.muted {
		return
	}
	s := sm.cache.get(st)
	if s == nil {
		return
	}

	sm.out.lock()
	sm.mixer.Add(s)
	sm.out.unlock()
}

// ToggleMute flips mute and returns the new state; muting cuts sounds already playing
func (sm *SoundManager) ToggleMute() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.muted = !sm.muted
	if sm.muted && sm.initialized {
		sm.out.lock()
		sm.mixer.Clear()
		sm.out.unlock()
	}
	return sm.muted
}

// Muted reports the mute state
func (sm *SoundManager) Muted() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.muted
}

// Active reports whether sound is reaching the device
func (sm *SoundManager) Active() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized && !sm.muted
}

// Cleanup stops all sounds and closes the audio system
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	// beep doesn't provide a Close for the speaker here; clearing the mixer avoids artifacts
	sm.out.lock()
	sm.mixer.Clear()
	sm.out.unlock()
	sm.initialized = false
}

// playing returns the number of streamers in the mixer
func (sm *SoundManager) playing() int {
	sm.out.lock()
	defer sm.out.unlock()
	return sm.mixer.Len()
}
