package audio

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/reel-cortex/core"
)

// soundCache stores pre-rendered buffers for deterministic effects
// Glitch is randomized per play and never cached
type soundCache struct {
	mu     sync.RWMutex
	cfg    *Config
	format beep.Format
	store  [core.SoundTypeCount]*beep.Buffer
}

func newSoundCache(cfg *Config) *soundCache {
	return &soundCache{
		cfg: cfg,
		format: beep.Format{
			SampleRate:  beep.SampleRate(cfg.SampleRate),
			NumChannels: 2,
			Precision:   2,
		},
	}
}

// get returns a fresh streamer over the cached buffer, rendering on first use
func (c *soundCache) get(st core.SoundType) beep.Streamer {
	if st < 0 || st >= core.SoundTypeCount {
		return nil
	}
	if st == core.SoundGlitch {
		return GetSoundEffect(st, c.cfg)
	}

	c.mu.RLock()
	buf := c.store[st]
	c.mu.RUnlock()

	if buf == nil {
		c.mu.Lock()
		// Double-check after acquiring write lock
		if buf = c.store[st]; buf == nil {
			src := GetSoundEffect(st, c.cfg)
			if src == nil {
				c.mu.Unlock()
				return nil
			}
			buf = beep.NewBuffer(c.format)
			buf.Append(src)
			c.store[st] = buf
		}
		c.mu.Unlock()
	}
	return buf.Streamer(0, buf.Len())
}

// preload renders the sounds played on every spin
func (c *soundCache) preload() {
	c.get(core.SoundSpin)
	c.get(core.SoundStop)
	c.get(core.SoundLock)
}
