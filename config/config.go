package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/lixenwraith/reel-cortex/audio"
	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/spin"
	"github.com/lixenwraith/reel-cortex/symbol"
)

// DefaultPath is read when --config is not given; absence is not an error
const DefaultPath = "reel-cortex.toml"

// EnvAPIKey names the generative API key variable
const EnvAPIKey = "GEMINI_API_KEY"

// Config holds the application configuration
type Config struct {
	Reel    reel.Params     `toml:"reel"`
	Spin    SpinConfig      `toml:"spin"`
	Frame   FrameConfig     `toml:"frame"`
	Audio   audio.Config    `toml:"audio"`
	Hint    HintConfig      `toml:"hint"`
	Log     LogConfig       `toml:"log"`
	Metrics MetricsConfig   `toml:"metrics"`
	Symbols []symbol.Symbol `toml:"symbols" validate:"omitempty,dive"`
}

// SpinConfig is the launch schedule; the reel count is len(StopDelaysMs)
type SpinConfig struct {
	StopDelaysMs []int   `toml:"stop_delays_ms" validate:"min=1,max=9,dive,gte=0"`
	BaseVelocity float64 `toml:"base_velocity" validate:"gt=0"`
	VelocityStep float64 `toml:"velocity_step" validate:"gte=0"`
	MaxNudges    int     `toml:"max_nudges" validate:"gte=0,lte=99"`
}

// FrameConfig controls the loop cadence
type FrameConfig struct {
	FPS      int     `toml:"fps" validate:"gte=10,lte=240"`
	UnitMs   int     `toml:"unit_ms" validate:"gt=0"`
	MaxDelta float64 `toml:"max_delta" validate:"gt=0,lte=10"`
}

// HintConfig configures the generative collaborator
type HintConfig struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint" validate:"required,url"`
	Model     string `toml:"model" validate:"required"`
	TimeoutMs int    `toml:"timeout_ms" validate:"gt=0"`
	CacheSize int    `toml:"cache_size" validate:"gte=0"`
	CacheTTLs int    `toml:"cache_ttl_s" validate:"gte=0"`
	Strategy  string `toml:"strategy" validate:"required,oneof='SID-MESH' 'ELITE PREDICT' 'DATA ZEN' 'REAL-TIME' 'SID-LAKE'"`

	// APIKey comes from the environment only
	APIKey string `toml:"-"`
}

// LogConfig configures file logging
type LogConfig struct {
	Enabled    bool   `toml:"enabled"`
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	Dir        string `toml:"dir" validate:"required"`
	File       string `toml:"file" validate:"required"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gt=0"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
}

// MetricsConfig configures the scrape endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr" validate:"required,hostname_port"`
}

// Default returns the stock configuration
func Default() *Config {
	sc := spin.DefaultConfig()
	delays := make([]int, len(sc.StopDelays))
	for i, d := range sc.StopDelays {
		delays[i] = int(d / time.Millisecond)
	}
	return &Config{
		Reel: reel.DefaultParams(),
		Spin: SpinConfig{
			StopDelaysMs: delays,
			BaseVelocity: sc.BaseVelocity,
			VelocityStep: sc.VelocityStep,
			MaxNudges:    sc.MaxNudges,
		},
		Frame: FrameConfig{
			FPS:      60,
			UnitMs:   int(sc.FrameUnit / time.Millisecond),
			MaxDelta: sc.MaxFrameDelta,
		},
		Audio: *audio.DefaultConfig(),
		Hint: HintConfig{
			Enabled:   true,
			Endpoint:  "https://generativelanguage.googleapis.com/v1beta",
			Model:     "gemini-2.5-flash",
			TimeoutMs: 2500,
			CacheSize: 64,
			CacheTTLs: 600,
			Strategy:  "SID-MESH",
		},
		Log: LogConfig{
			Level:      "debug",
			Dir:        "logs",
			File:       "reel-cortex.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// Load reads path over the defaults, then applies environment secrets
// A missing file is only an error when required is set
func Load(path string, required bool) (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.Hint.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sm *toml.StrictMissingError
		if errors.As(err, &sm) {
			return fmt.Errorf("unknown keys:\n%s", sm.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("line %d column %d: %s", row, col, de.Error())
		}
		return err
	}
	return nil
}

// Validate checks field ranges and the cross-field launch schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.SpinConfig().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SpinConfig converts the launch schedule for the orchestrator
func (c *Config) SpinConfig() spin.Config {
	delays := make([]time.Duration, len(c.Spin.StopDelaysMs))
	for i, ms := range c.Spin.StopDelaysMs {
		delays[i] = time.Duration(ms) * time.Millisecond
	}
	return spin.Config{
		StopDelays:    delays,
		BaseVelocity:  c.Spin.BaseVelocity,
		VelocityStep:  c.Spin.VelocityStep,
		MaxNudges:     c.Spin.MaxNudges,
		FrameUnit:     time.Duration(c.Frame.UnitMs) * time.Millisecond,
		MaxFrameDelta: c.Frame.MaxDelta,
	}
}

// FrameInterval is the ticker period for the configured fps
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Frame.FPS)
}

// HintTimeout is the budget for one resolve request
func (c *Config) HintTimeout() time.Duration {
	return time.Duration(c.Hint.TimeoutMs) * time.Millisecond
}

// HintCacheTTL is the lifetime of a cached hint
func (c *Config) HintCacheTTL() time.Duration {
	return time.Duration(c.Hint.CacheTTLs) * time.Second
}

// Catalog returns the configured strip, or the stock strip when none is set
func (c *Config) Catalog() []symbol.Symbol {
	if len(c.Symbols) == 0 {
		return symbol.Defaults()
	}
	out := make([]symbol.Symbol, len(c.Symbols))
	copy(out, c.Symbols)
	return out
}
