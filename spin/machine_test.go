package spin

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lixenwraith/reel-cortex/engine"
	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/symbol"
)

const frame = 16 * time.Millisecond

func newTestMachine(t *testing.T, delays ...time.Duration) (*Machine, *engine.ManualScheduler, *symbol.Catalog) {
	t.Helper()
	cat, err := symbol.NewCatalog(symbol.Defaults())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cfg := DefaultConfig()
	if len(delays) > 0 {
		cfg.StopDelays = delays
	}
	sched := engine.NewManualScheduler()
	m, err := NewMachine(cat, sched, cfg, reel.DefaultParams())
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	if _, err := m.Step(0); err != nil {
		t.Fatalf("first step: %v", err)
	}
	return m, sched, cat
}

// runUntil steps the machine in fixed frames, firing timers first the way the loop interleaves them
func runUntil(t *testing.T, m *Machine, sched *engine.ManualScheduler, until time.Duration) {
	t.Helper()
	for now := sched.Now() + frame; now <= until; now += frame {
		sched.AdvanceTo(now)
		if _, err := m.Step(now); err != nil {
			t.Fatalf("step at %v: %v", now, err)
		}
	}
}

// settle steps until the machine resolves or the frame budget runs out
func settle(t *testing.T, m *Machine, sched *engine.ManualScheduler, maxFrames int) int {
	t.Helper()
	for i := 1; i <= maxFrames; i++ {
		now := sched.Now() + frame
		sched.AdvanceTo(now)
		if _, err := m.Step(now); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s := m.Session(); s != nil && s.Resolved {
			return i
		}
	}
	t.Fatalf("machine did not resolve within %d frames", maxFrames)
	return -1
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"no reels", func(c *Config) { c.StopDelays = nil }},
		{"not increasing", func(c *Config) { c.StopDelays = []time.Duration{400, 400} }},
		{"negative delay", func(c *Config) { c.StopDelays = []time.Duration{-1} }},
		{"zero velocity", func(c *Config) { c.BaseVelocity = 0 }},
		{"zero frame unit", func(c *Config) { c.FrameUnit = 0 }},
		{"zero max delta", func(c *Config) { c.MaxFrameDelta = 0 }},
		{"negative nudges", func(c *Config) { c.MaxNudges = -1 }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			if cfg.Validate() == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLaunchAssignsStaggeredVelocities(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	if !m.Launch() {
		t.Fatal("Launch from idle rejected")
	}
	for i, r := range m.Reels() {
		if r.State != reel.StateSpinning {
			t.Errorf("reel %d: expected spinning, got %v", i, r.State)
		}
		want := 80 + float64(i)*2
		if r.Velocity != want {
			t.Errorf("reel %d: expected velocity %v, got %v", i, want, r.Velocity)
		}
	}
	if sched.Pending() != 3 {
		t.Errorf("Expected 3 pending stops, got %d", sched.Pending())
	}
	if m.Session().PendingStops() != 3 {
		t.Errorf("Expected 3 pending stops on session, got %d", m.Session().PendingStops())
	}
}

func TestStopsFireInStaggerOrder(t *testing.T) {
	m, sched, _ := newTestMachine(t, 250*time.Millisecond, 500*time.Millisecond, 750*time.Millisecond)
	var order []int
	m.OnEvent(func(ev Event) {
		if ev.Kind == EventReelStopping {
			order = append(order, ev.Reel)
		}
	})
	m.Launch()

	runUntil(t, m, sched, 260*time.Millisecond)
	reels := m.Reels()
	if reels[0].State == reel.StateSpinning {
		t.Error("reel 0 should have received its stop")
	}
	if reels[1].State != reel.StateSpinning || reels[2].State != reel.StateSpinning {
		t.Error("reels 1 and 2 should still spin at 260ms")
	}

	runUntil(t, m, sched, 800*time.Millisecond)
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("Expected stop order [0 1 2], got %v", order)
	}
}

func TestScenarioStaggeredSpinSettles(t *testing.T) {
	m, sched, _ := newTestMachine(t, 250*time.Millisecond, 500*time.Millisecond, 750*time.Millisecond)
	resolved := 0
	m.OnResolve(func(*Session, []int) error {
		resolved++
		return nil
	})
	m.Launch()

	// Default friction needs roughly two seconds to bleed off launch speed
	runUntil(t, m, sched, 750*time.Millisecond+4*time.Second)

	for i, r := range m.Reels() {
		if r.State != reel.StateLocked {
			t.Errorf("reel %d: expected locked, got %v", i, r.State)
		}
		if r.Bounce != 0 {
			t.Errorf("reel %d: expected zero bounce, got %v", i, r.Bounce)
		}
	}
	if resolved != 1 {
		t.Errorf("Expected completion once, got %d", resolved)
	}
}

func TestEverySpinSettlesInFiniteSteps(t *testing.T) {
	configs := [][]time.Duration{
		{0},
		{400 * time.Millisecond, 800 * time.Millisecond, 1200 * time.Millisecond},
		{10 * time.Millisecond, 11 * time.Millisecond, 12 * time.Millisecond},
		{100 * time.Millisecond, 2 * time.Second, 3 * time.Second, 5 * time.Second},
	}
	for _, delays := range configs {
		m, sched, _ := newTestMachine(t, delays...)
		m.SetRandom(NewSeededRandom(7))
		m.Launch()
		// Upper bound: last delay plus decay plus bounce, with generous slack
		budget := int(delays[len(delays)-1]/frame) + 1000
		settle(t, m, sched, budget)
		if !m.Settled() {
			t.Errorf("delays %v: resolved but not settled", delays)
		}
	}
}

func TestExactSnapOnTarget(t *testing.T) {
	for target := 0; target < 8; target++ {
		m, sched, _ := newTestMachine(t)
		m.SetRandom(NewScriptedRandom(target, (target+3)%8, (target+5)%8))

		var lockedAt []float64
		m.OnEvent(func(ev Event) {
			if ev.Kind == EventReelLocked {
				lockedAt = append(lockedAt, m.Reels()[ev.Reel].Position)
			}
		})
		m.Launch()
		settle(t, m, sched, 1000)

		want := []int{target, (target + 3) % 8, (target + 5) % 8}
		for i, r := range m.Reels() {
			if r.Target != want[i] {
				t.Errorf("target %d reel %d: expected target %d, got %d", target, i, want[i], r.Target)
			}
			if r.Position != float64(want[i]) {
				t.Errorf("target %d reel %d: residual drift, position %v", target, i, r.Position)
			}
		}
		for _, p := range lockedAt {
			if p != float64(int(p)) {
				t.Errorf("lock position %v is not a whole index", p)
			}
		}
	}
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	fires := 0
	var landed []int
	m.OnResolve(func(_ *Session, l []int) error {
		fires++
		landed = l
		return nil
	})
	m.SetRandom(NewScriptedRandom(1, 2, 3))
	m.Launch()
	settle(t, m, sched, 1000)

	for i := 0; i < 100; i++ {
		fired, err := m.PollCompletion()
		if err != nil || fired {
			t.Fatalf("poll %d after resolve: fired=%v err=%v", i, fired, err)
		}
	}
	runUntil(t, m, sched, sched.Now()+time.Second)

	if fires != 1 {
		t.Errorf("Expected single fire, got %d", fires)
	}
	if len(landed) != 3 || landed[0] != 1 || landed[1] != 2 || landed[2] != 3 {
		t.Errorf("Expected landed [1 2 3], got %v", landed)
	}
	if !m.Session().Resolved {
		t.Error("Session guard should be tripped")
	}
}

func TestCompletionRequiresLaunch(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	fires := 0
	m.OnResolve(func(*Session, []int) error { fires++; return nil })

	runUntil(t, m, sched, time.Second)
	if fires != 0 {
		t.Errorf("Idle machine must not resolve, got %d fires", fires)
	}
}

func TestOnePerLaunchAcrossSpins(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	fires := 0
	m.OnResolve(func(*Session, []int) error { fires++; return nil })

	for spin := 1; spin <= 3; spin++ {
		if !m.Launch() {
			t.Fatalf("spin %d: launch rejected", spin)
		}
		settle(t, m, sched, 1000)
		m.Reset()
		if fires != spin {
			t.Errorf("spin %d: expected %d fires, got %d", spin, spin, fires)
		}
	}
}

func TestDoubleLaunchIsNoOp(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	if !m.Launch() {
		t.Fatal("first launch rejected")
	}
	first := m.Session()
	before := m.Reels()

	if m.Launch() {
		t.Error("second launch should be rejected")
	}
	after := m.Reels()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("reel %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	if m.Session() != first {
		t.Error("second launch replaced the session")
	}
	if sched.Pending() != 3 {
		t.Errorf("second launch scheduled extra stops, pending %d", sched.Pending())
	}
}

func TestLaunchRejectedWhileStopping(t *testing.T) {
	m, sched, _ := newTestMachine(t, 50*time.Millisecond, 5*time.Second)
	m.Launch()
	runUntil(t, m, sched, 100*time.Millisecond)
	if m.Reels()[0].State != reel.StateStopping {
		t.Fatalf("reel 0 expected stopping, got %v", m.Reels()[0].State)
	}
	if m.Launch() {
		t.Error("launch must be rejected while a reel is stopping")
	}
}

func TestLaunchRejectedWhileBouncing(t *testing.T) {
	m, sched, _ := newTestMachine(t, 250*time.Millisecond, 500*time.Millisecond, 750*time.Millisecond)
	fires := 0
	m.OnResolve(func(*Session, []int) error { fires++; return nil })

	if !m.Launch() {
		t.Fatal("first launch rejected")
	}
	first := m.Session()

	// Step until every reel has locked but the bounce has not decayed
	bouncing := false
	for range 1000 {
		now := sched.Now() + frame
		sched.AdvanceTo(now)
		if _, err := m.Step(now); err != nil {
			t.Fatalf("step at %v: %v", now, err)
		}
		if !m.MotionPending() && !m.Settled() {
			bouncing = true
			break
		}
	}
	if !bouncing {
		t.Fatal("machine never reached the locked and bouncing phase")
	}
	if !m.ResolvePending() {
		t.Error("Expected resolve pending while bouncing")
	}

	if m.Launch() {
		t.Error("launch must be rejected while the locked spin is unresolved")
	}
	if m.Session() != first {
		t.Error("rejected launch replaced the session")
	}

	settle(t, m, sched, 1000)
	if fires != 1 {
		t.Fatalf("Expected the bouncing spin to resolve once, got %d", fires)
	}
	if m.ResolvePending() {
		t.Error("Resolve should no longer be pending")
	}

	m.Reset()
	if !m.Launch() {
		t.Fatal("launch after resolve rejected")
	}
	settle(t, m, sched, 1000)
	if fires != 2 {
		t.Errorf("Expected one fire per accepted launch, got %d", fires)
	}
}

// Frame intervals vary from 1ms to 200ms with one long suspend in the middle of the spin
func TestSingleResolveUnderFrameJitter(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		m, sched, _ := newTestMachine(t)
		m.SetRandom(NewSeededRandom(seed))
		fires := 0
		m.OnResolve(func(*Session, []int) error { fires++; return nil })

		jitter := rand.New(rand.NewPCG(seed, seed*31))
		m.Launch()

		for i := range 2000 {
			gap := time.Duration(1+jitter.IntN(200)) * time.Millisecond
			if i == 5 {
				gap = 5 * time.Second
			}
			now := sched.Now() + gap
			sched.AdvanceTo(now)
			if _, err := m.Step(now); err != nil {
				t.Fatalf("seed %d step %d: %v", seed, i, err)
			}
		}

		if fires != 1 {
			t.Errorf("seed %d: expected single fire, got %d", seed, fires)
		}
		for i, r := range m.Reels() {
			if r.Position != float64(r.Target) {
				t.Errorf("seed %d reel %d: position %v, target %d", seed, i, r.Position, r.Target)
			}
			if r.Bounce != 0 {
				t.Errorf("seed %d reel %d: residual bounce %v", seed, i, r.Bounce)
			}
		}
	}
}

func TestNudge(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	m.SetRandom(NewScriptedRandom(7, 0, 4))

	m.Launch()
	if m.ApplyNudge(0) {
		t.Error("nudge while spinning must be rejected")
	}
	if m.NudgesRemaining() != 3 {
		t.Errorf("rejected nudge consumed allowance: %d", m.NudgesRemaining())
	}

	settle(t, m, sched, 1000)
	if !m.ApplyNudge(0) {
		t.Fatal("nudge after settle rejected")
	}
	r := m.Reels()[0]
	if r.Target != 0 || r.Position != 0 || r.State != reel.StateLocked || r.Bounce != 0 {
		t.Errorf("expected reel 0 wrapped to 0 and locked, got %+v", r)
	}
	if m.NudgesRemaining() != 2 {
		t.Errorf("expected 2 nudges left, got %d", m.NudgesRemaining())
	}

	m.ApplyNudge(2)
	m.ApplyNudge(2)
	if got := m.Reels()[2].Target; got != 6 {
		t.Errorf("expected reel 2 at 6 after two nudges, got %d", got)
	}

	before := m.Reels()
	if m.ApplyNudge(1) {
		t.Error("nudge with zero allowance must be rejected")
	}
	if m.Reels()[1] != before[1] || m.NudgesRemaining() != 0 {
		t.Error("rejected nudge changed state")
	}

	if m.ApplyNudge(-1) || m.ApplyNudge(3) {
		t.Error("out of range nudge accepted")
	}

	m.Reset()
	m.Launch()
	if m.NudgesRemaining() != 3 {
		t.Errorf("launch should restore nudges, got %d", m.NudgesRemaining())
	}
}

func TestRequestStopPreconditions(t *testing.T) {
	m, _, _ := newTestMachine(t)
	if m.RequestStop(0) {
		t.Error("stop before launch accepted")
	}
	m.Launch()
	if !m.RequestStop(1) {
		t.Fatal("stop on spinning reel rejected")
	}
	if m.RequestStop(1) {
		t.Error("second stop on the same reel accepted")
	}
	if m.RequestStop(5) {
		t.Error("out of range stop accepted")
	}
	if !m.Session().StopRequested[1] {
		t.Error("session did not record the stop")
	}
}

// chiSquare over counts with a uniform expectation
func chiSquare(counts []int, total int) float64 {
	exp := float64(total) / float64(len(counts))
	x := 0.0
	for _, c := range counts {
		d := float64(c) - exp
		x += d * d / exp
	}
	return x
}

func TestRequestStopUniform(t *testing.T) {
	// df=7 critical value at p=0.0001
	const critical = 29.88
	const samples = 10000

	sources := map[string]RandomSource{
		"crypto": DefaultRandom(),
		"seeded": NewSeededRandom(42),
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			m, _, cat := newTestMachine(t, time.Hour)
			m.SetRandom(src)
			counts := make([]int, cat.Len())

			for i := 0; i < samples; i++ {
				if !m.Launch() {
					t.Fatalf("launch %d rejected", i)
				}
				if !m.RequestStop(0) {
					t.Fatalf("stop %d rejected", i)
				}
				counts[m.Reels()[0].Target]++
				m.Reset()
			}

			if x := chiSquare(counts, samples); x > critical {
				t.Errorf("chi-square %.2f exceeds %.2f, counts %v", x, critical, counts)
			}
		})
	}
}

func TestCatalogGrowthKeepsIndices(t *testing.T) {
	m, sched, cat := newTestMachine(t)
	before := cat.Snapshot()

	m.OnResolve(func(*Session, []int) error {
		_, err := cat.Append(symbol.Symbol{ID: "insight_node", Label: "Insight", Icon: "✦", Color: "#ffffff"})
		return err
	})
	m.Launch()
	settle(t, m, sched, 1000)
	if cat.Len() != 9 {
		t.Fatalf("expected 9 symbols, got %d", cat.Len())
	}
	m.Reset()

	// Second spin lands reel 2 on the new symbol
	m.SetRandom(NewScriptedRandom(3, 5, 8))
	m.Launch()
	runUntil(t, m, sched, sched.Now()+900*time.Millisecond)

	for i, s := range before {
		got, ok := cat.At(i)
		if !ok || got != s {
			t.Errorf("index %d changed mid-spin: %+v -> %+v", i, s, got)
		}
		if cat.IndexOf(s.ID) != i {
			t.Errorf("id %s moved from %d to %d", s.ID, i, cat.IndexOf(s.ID))
		}
	}
	for i, r := range m.Reels() {
		if r.State == reel.StateSpinning {
			continue
		}
		if r.Target < 0 || r.Target >= cat.Len() {
			t.Errorf("reel %d target %d outside catalog", i, r.Target)
		}
	}

	settle(t, m, sched, 1000)
	landed := m.Landed()
	if landed[2] != 8 {
		t.Errorf("expected reel 2 on new symbol 8, got %d", landed[2])
	}
	if ids := cat.IDs(landed); ids[2] != "INSIGHT_NODE" {
		t.Errorf("expected INSIGHT_NODE, got %v", ids)
	}
}

func TestResolveErrorSurfacedAndGuardHeld(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	boom := errors.New("upstream down")
	calls := 0
	m.OnResolve(func(*Session, []int) error {
		calls++
		return boom
	})
	m.Launch()

	var got error
	for i := 0; i < 1000 && got == nil; i++ {
		now := sched.Now() + frame
		sched.AdvanceTo(now)
		_, got = m.Step(now)
	}
	if !errors.Is(got, boom) {
		t.Fatalf("expected wrapped resolve error, got %v", got)
	}
	if !m.Session().Resolved || !m.Settled() {
		t.Error("machine should stay settled with guard tripped")
	}

	runUntil(t, m, sched, sched.Now()+time.Second)
	if calls != 1 {
		t.Errorf("failing callback retried: %d calls", calls)
	}

	m.Reset()
	if !m.Launch() {
		t.Error("machine not relaunchable after resolve error")
	}
}

func TestCloseCancelsPendingStops(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	m.Launch()
	runUntil(t, m, sched, 500*time.Millisecond)

	m.Close()
	if sched.Pending() != 0 {
		t.Errorf("expected no pending stops after close, got %d", sched.Pending())
	}
	snapshot := m.Reels()
	sched.Advance(5 * time.Second)

	if m.Reels()[1] != snapshot[1] || m.Reels()[2] != snapshot[2] {
		t.Error("stop timer mutated reels after close")
	}
	if m.Launch() || m.ApplyNudge(0) || m.RequestStop(2) {
		t.Error("closed machine accepted a command")
	}
}

func TestStaleTimerIgnored(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	m.Launch()
	old := m.Session()
	// Session replaced without cancelling: timer liveness check must drop the old callbacks
	old.cancels = make([]func() bool, len(old.cancels))
	for i := range m.reels {
		m.reels[i].Rest()
	}
	m.Launch()
	fresh := m.Session()

	stopping := 0
	m.OnEvent(func(ev Event) {
		if ev.Kind == EventReelStopping {
			if ev.SessionID != fresh.ID {
				t.Errorf("stop delivered for stale session %s", ev.SessionID)
			}
			stopping++
		}
	})
	sched.Advance(2 * time.Second)
	if stopping != 3 {
		t.Errorf("expected exactly 3 stops for the fresh session, got %d", stopping)
	}
}

func TestEventsCarrySession(t *testing.T) {
	m, sched, _ := newTestMachine(t)
	kinds := map[EventKind]int{}
	m.OnEvent(func(ev Event) {
		kinds[ev.Kind]++
		if ev.SessionID != m.Session().ID {
			t.Errorf("event %v with wrong session", ev.Kind)
		}
	})
	m.Launch()
	settle(t, m, sched, 1000)

	if kinds[EventLaunch] != 1 || kinds[EventReelStopping] != 3 || kinds[EventReelLocked] != 3 || kinds[EventResolved] != 1 {
		t.Errorf("unexpected event counts %v", kinds)
	}
}
