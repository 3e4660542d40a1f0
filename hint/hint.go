package hint

import (
	"context"
	"errors"
	"time"

	"github.com/lixenwraith/reel-cortex/symbol"
)

var (
	ErrEmptyResponse = errors.New("generative response had no text")
	ErrNoAPIKey      = errors.New("generative api key not set")
)

// Hint is the flavor text shown after a spin, optionally carrying a symbol to add to the strip
type Hint struct {
	Message   string         `json:"message"`
	Rationale string         `json:"rationale"`
	WinTier   string         `json:"winTier"`
	NewSymbol *symbol.Symbol `json:"newSymbol,omitempty"`
}

// Request describes one resolved spin
type Request struct {
	Landed   []string // symbol ids on the payline, reel order
	Feedback []string // recent shoutouts for context
	Strategy string
}

// Source records where a hint came from
type Source uint8

const (
	SourceRemote Source = iota
	SourceCached
	SourceFallback
	SourceLocal
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCached:
		return "cached"
	case SourceFallback:
		return "fallback"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Result is a hint with delivery details
type Result struct {
	Hint    Hint
	Source  Source
	Latency time.Duration
	Cause   error // why a fallback was used, nil otherwise
}

// Resolver produces a hint for a landed combination
type Resolver interface {
	Resolve(ctx context.Context, req Request) (Result, error)
}
