package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/reel-cortex/config"
	"github.com/lixenwraith/reel-cortex/core"
	"github.com/lixenwraith/reel-cortex/hint"
	"github.com/lixenwraith/reel-cortex/input"
	"github.com/lixenwraith/reel-cortex/metrics"
	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/render"
	"github.com/lixenwraith/reel-cortex/spin"
	"github.com/lixenwraith/reel-cortex/status"
	"github.com/lixenwraith/reel-cortex/symbol"
)

const (
	// SpinReward is added to the score for every resolved spin
	SpinReward = 5000
	// HistoryLen is how many score values the trend keeps
	HistoryLen = 15
	// feedbackLen is how many recent hint messages are sent back as context
	feedbackLen = 3
	// resolveGrace is added to the hint timeout before the app abandons a resolver
	resolveGrace = time.Second
)

// seedHistory gives the trend line a shape before the first spin
var seedHistory = []int{100, 250, 400, 300, 600, 800, 1200}

// Status strings shown in the bar
const (
	PhaseReady     = "READY"
	PhaseSpinning  = "SPINNING"
	PhaseAnalyzing = "ANALYZING"
)

// Drawer renders a frame view
type Drawer interface {
	RenderFrame(v *render.View)
	Resize()
}

// Sound plays effects; satisfied by *audio.SoundManager
type Sound interface {
	Play(st core.SoundType)
	ToggleMute() bool
	Muted() bool
}

// Options carries the collaborators of an App
// Scheduler and Post must deliver onto the goroutine that calls Frame and HandleEvent
type Options struct {
	Config    *config.Config
	Scheduler spin.Scheduler
	Post      func(func()) bool
	Resolver  hint.Resolver

	Drawer  Drawer
	Sound   Sound
	Metrics *metrics.Metrics
	Status  *status.Registry
	Logger  *zap.Logger
	Random  spin.RandomSource

	// Quit is called once when the player asks to leave
	Quit func()
}

// App is the slot machine game: machine, catalog, hint pipeline and presentation
// Every method except Close must run on the loop goroutine
type App struct {
	cfg      *config.Config
	machine  *spin.Machine
	catalog  *symbol.Catalog
	resolver hint.Resolver
	post     func(func()) bool
	input    *input.Machine

	drawer  Drawer
	sound   Sound
	metrics *metrics.Metrics
	status  *status.Registry
	log     *zap.Logger
	quit    func()

	ctx    context.Context
	cancel context.CancelFunc

	score     int
	history   []int
	feedback  []string
	current   hint.Hint
	hintError bool
	analyzing bool
	pending   uuid.UUID // session awaiting a hint
	landed    []string

	spinCfg spin.Config
	frames  uint64
	lastDt  float64
	last    time.Duration
}

// New builds the game around a fresh catalog and machine
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Scheduler == nil {
		return nil, errors.New("game: nil scheduler")
	}
	if opts.Post == nil {
		return nil, errors.New("game: nil post")
	}
	if opts.Resolver == nil {
		opts.Resolver = hint.NewLocalResolver(nil)
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	catalog, err := symbol.NewCatalog(opts.Config.Catalog())
	if err != nil {
		return nil, fmt.Errorf("symbol catalog: %w", err)
	}

	spinCfg := opts.Config.SpinConfig()
	machine, err := spin.NewMachine(catalog, opts.Scheduler, spinCfg, opts.Config.Reel)
	if err != nil {
		return nil, fmt.Errorf("spin machine: %w", err)
	}
	machine.SetLogger(opts.Logger.Named("spin"))
	machine.SetRandom(opts.Random)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      opts.Config,
		machine:  machine,
		catalog:  catalog,
		resolver: opts.Resolver,
		post:     opts.Post,
		input:    input.NewMachine(machine.ReelCount()),
		drawer:   opts.Drawer,
		sound:    opts.Sound,
		metrics:  opts.Metrics,
		status:   opts.Status,
		log:      opts.Logger.Named("game"),
		quit:     opts.Quit,
		ctx:      ctx,
		cancel:   cancel,
		history:  append([]int(nil), seedHistory...),
		spinCfg:  spinCfg,
	}

	machine.OnEvent(a.onEvent)
	machine.OnResolve(a.onResolve)

	if a.metrics != nil {
		a.metrics.CatalogSize.Set(float64(catalog.Len()))
	}
	a.status.Ints.Get(status.KeyCatalogSize).Store(int64(catalog.Len()))
	a.status.Strings.Get(status.KeyPhase).Store(PhaseReady)
	return a, nil
}

// Start plays the power-up cue
func (a *App) Start() {
	a.play(core.SoundPower)
	a.log.Info("game started",
		zap.Int("reels", a.machine.ReelCount()),
		zap.Int("symbols", a.catalog.Len()),
	)
}

// Frame is the loop frame callback
func (a *App) Frame(now time.Duration) {
	if !a.machine.Closed() {
		if _, err := a.machine.Step(now); err != nil {
			a.log.Error("spin resolve failed", zap.Error(err))
			if a.metrics != nil {
				a.metrics.ResolveErrors.Inc()
			}
		}
	}

	if a.frames > 0 {
		a.lastDt = reel.FrameDelta(now-a.last, a.spinCfg.FrameUnit, a.spinCfg.MaxFrameDelta)
	}
	a.last = now
	a.frames++

	a.publishStatus()
	if a.drawer != nil {
		a.drawer.RenderFrame(a.View())
	}
}

// HandleEvent applies one terminal event
func (a *App) HandleEvent(ev tcell.Event) {
	it := a.input.Process(ev)
	switch it.Type {
	case input.IntentQuit:
		a.log.Info("quit requested")
		if a.quit != nil {
			a.quit()
		}
	case input.IntentToggleMute:
		if a.sound != nil {
			muted := a.sound.ToggleMute()
			a.status.Bools.Get(status.KeyMuted).Store(muted)
		}
	case input.IntentResize:
		if a.drawer != nil {
			a.drawer.Resize()
		}
	case input.IntentSpin:
		a.Spin()
	case input.IntentNudge:
		a.Nudge(it.Reel)
	}
}

// Spin launches the reels unless a spin or its hint is still in flight
func (a *App) Spin() bool {
	if a.analyzing {
		return false
	}
	if !a.machine.Launch() {
		return false
	}
	a.hintError = false
	a.status.Ints.Get(status.KeySpins).Add(1)
	if a.metrics != nil {
		a.metrics.SpinsTotal.Inc()
	}
	return true
}

// Nudge shifts a resting reel by one symbol
func (a *App) Nudge(i int) bool {
	if a.analyzing {
		return false
	}
	if !a.machine.ApplyNudge(i) {
		return false
	}
	a.status.Ints.Get(status.KeyNudges).Add(1)
	if a.metrics != nil {
		a.metrics.NudgesTotal.Inc()
	}
	return true
}

func (a *App) onEvent(ev spin.Event) {
	switch ev.Kind {
	case spin.EventLaunch:
		a.play(core.SoundSpin)
	case spin.EventReelLocked:
		a.play(core.SoundStop)
	case spin.EventReelSettled:
		a.play(core.SoundLock)
	case spin.EventNudge:
		a.play(core.SoundNudge)
	case spin.EventResolved:
		a.play(core.SoundWin)
	}
}

// onResolve hands the landed combination to the resolver off the loop
func (a *App) onResolve(s *spin.Session, landed []int) error {
	ids := a.catalog.IDs(landed)
	if len(ids) != len(landed) {
		return fmt.Errorf("landed index outside catalog: %v", landed)
	}

	a.analyzing = true
	a.pending = s.ID
	a.landed = ids
	a.status.Ints.Get(status.KeyResolved).Add(1)
	a.status.Strings.Get(status.KeyLastSession).Store(s.ID.String())
	if a.metrics != nil {
		a.metrics.ResolvedTotal.Inc()
		for _, id := range ids {
			a.metrics.LandedSymbols.WithLabelValues(metrics.SymbolLabel(id)).Inc()
		}
	}

	req := hint.Request{
		Landed:   ids,
		Feedback: append([]string(nil), a.feedback...),
		Strategy: a.cfg.Hint.Strategy,
	}
	sessionID := s.ID
	budget := a.cfg.HintTimeout() + resolveGrace

	core.Go(func() {
		ctx, cancel := context.WithTimeout(a.ctx, budget)
		defer cancel()
		start := time.Now()
		res, err := a.resolver.Resolve(ctx, req)
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		if !a.post(func() { a.applyHint(sessionID, res, err) }) {
			a.log.Debug("hint dropped after loop exit", zap.Stringer("session", sessionID))
		}
	})
	return nil
}

// applyHint runs on the loop with the resolver outcome
func (a *App) applyHint(sessionID uuid.UUID, res hint.Result, err error) {
	if sessionID != a.pending || !a.analyzing {
		return
	}
	a.analyzing = false

	if err != nil {
		a.hintError = true
		a.current = hint.Hint{Message: "SIGNAL LOST", Rationale: err.Error()}
		a.play(core.SoundGlitch)
		a.log.Error("hint failed", zap.Stringer("session", sessionID), zap.Error(err))
		if a.metrics != nil {
			a.metrics.HintsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
	} else {
		a.current = res.Hint
		a.hintError = false
		a.addSymbol(res.Hint.NewSymbol)
		a.remember(res.Hint.Message)
		if res.Cause != nil {
			a.log.Warn("hint degraded", zap.Stringer("session", sessionID), zap.Error(res.Cause))
		}
		if a.metrics != nil {
			a.metrics.HintsTotal.WithLabelValues(res.Source.String()).Inc()
			a.metrics.HintLatency.Observe(res.Latency.Seconds())
		}
		a.log.Info("hint applied",
			zap.Stringer("session", sessionID),
			zap.Strings("landed", a.landed),
			zap.Stringer("source", res.Source),
			zap.String("tier", res.Hint.WinTier),
		)
	}

	a.award(SpinReward)
	a.machine.Reset()
}

// addSymbol grows the strip; duplicates and invalid symbols are skipped
func (a *App) addSymbol(s *symbol.Symbol) {
	if s == nil {
		return
	}
	idx, err := a.catalog.Append(*s)
	switch {
	case errors.Is(err, symbol.ErrDuplicateID):
		a.log.Debug("symbol already on strip", zap.String("id", s.ID))
		return
	case err != nil:
		a.log.Warn("symbol rejected", zap.String("id", s.ID), zap.Error(err))
		return
	}

	a.play(core.SoundPower)
	a.status.Ints.Get(status.KeyCatalogSize).Store(int64(a.catalog.Len()))
	if a.metrics != nil {
		a.metrics.SymbolsAdded.Inc()
		a.metrics.CatalogSize.Set(float64(a.catalog.Len()))
	}
	a.log.Info("symbol added", zap.String("id", s.ID), zap.Int("index", idx))
}

func (a *App) remember(msg string) {
	if msg == "" {
		return
	}
	a.feedback = append(a.feedback, msg)
	if len(a.feedback) > feedbackLen {
		a.feedback = a.feedback[len(a.feedback)-feedbackLen:]
	}
}

func (a *App) award(points int) {
	a.score += points
	a.history = append(a.history, a.score)
	if len(a.history) > HistoryLen {
		a.history = a.history[len(a.history)-HistoryLen:]
	}
	a.status.Ints.Get(status.KeyScore).Store(int64(a.score))
	if a.metrics != nil {
		a.metrics.Score.Set(float64(a.score))
	}
}

func (a *App) play(st core.SoundType) {
	if a.sound != nil {
		a.sound.Play(st)
	}
}

// Phase is the status bar label
func (a *App) Phase() string {
	switch {
	case a.analyzing:
		return PhaseAnalyzing
	case a.machine.MotionPending(), a.machine.ResolvePending():
		return PhaseSpinning
	default:
		return PhaseReady
	}
}

func (a *App) publishStatus() {
	a.status.Ints.Get(status.KeyFrames).Store(int64(a.frames))
	a.status.Floats.Get(status.KeyFrameDelta).Set(a.lastDt)
	a.status.Floats.Get(status.KeyFramePeak).Max(a.lastDt)
	a.status.Bools.Get(status.KeyMotion).Store(a.machine.MotionPending())
	a.status.Bools.Get(status.KeyAnalyzing).Store(a.analyzing)
	a.status.Strings.Get(status.KeyPhase).Store(a.Phase())
}

// View snapshots the state for the renderer
func (a *App) View() *render.View {
	muted := false
	if a.sound != nil {
		muted = a.sound.Muted()
	}
	return &render.View{
		Reels:     a.machine.Reels(),
		Symbols:   a.catalog.Snapshot(),
		Score:     a.score,
		History:   append([]int(nil), a.history...),
		Nudges:    a.machine.NudgesRemaining(),
		Muted:     muted,
		Status:    a.Phase(),
		Hint:      a.current.Message,
		Rationale: a.current.Rationale,
		WinTier:   a.current.WinTier,
		HintError: a.hintError,
	}
}

// Score returns the running score
func (a *App) Score() int { return a.score }

// History returns a copy of the score trend
func (a *App) History() []int { return append([]int(nil), a.history...) }

// Hint returns the last applied hint
func (a *App) Hint() hint.Hint { return a.current }

// Analyzing reports whether a hint is in flight
func (a *App) Analyzing() bool { return a.analyzing }

// Machine exposes the spin orchestrator
func (a *App) Machine() *spin.Machine { return a.machine }

// Catalog exposes the symbol strip
func (a *App) Catalog() *symbol.Catalog { return a.catalog }

// Close cancels in-flight hints and pending stops; call on the loop or after it exits
func (a *App) Close() {
	a.cancel()
	a.machine.Close()
}
