package status

import "sync/atomic"

// Registry is the live game status facade
// The loop caches pointers at wiring time and writes atomics each frame;
// the metrics exporter reads them on scrape from its own goroutine
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Well-known keys written by the game loop
const (
	KeyFrames      = "loop.frames"
	KeySpins       = "spin.launched"
	KeyResolved    = "spin.resolved"
	KeyNudges      = "spin.nudges"
	KeyScore       = "game.score"
	KeyCatalogSize = "catalog.size"
	KeyMotion      = "reel.motion"
	KeyAnalyzing   = "hint.pending"
	KeyMuted       = "audio.muted"
	KeyFrameDelta  = "loop.dt"
	KeyFramePeak   = "loop.dt_max"
	KeyPhase       = "game.phase"
	KeyLastSession = "spin.session"
)

// Snapshot is a point-in-time copy of every metric
type Snapshot struct {
	Bools   map[string]bool
	Ints    map[string]int64
	Floats  map[string]float64
	Strings map[string]string
}

// Snapshot copies all current values
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Bools:   make(map[string]bool, r.Bools.Count()),
		Ints:    make(map[string]int64, r.Ints.Count()),
		Floats:  make(map[string]float64, r.Floats.Count()),
		Strings: make(map[string]string, r.Strings.Count()),
	}
	r.Bools.Range(func(k string, v *atomic.Bool) { s.Bools[k] = v.Load() })
	r.Ints.Range(func(k string, v *atomic.Int64) { s.Ints[k] = v.Load() })
	r.Floats.Range(func(k string, v *AtomicFloat) { s.Floats[k] = v.Get() })
	r.Strings.Range(func(k string, v *AtomicString) { s.Strings[k] = v.Load() })
	return s
}
