package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/symbol"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	scr := tcell.NewSimulationScreen("UTF-8")
	if err := scr.Init(); err != nil {
		t.Fatalf("sim screen init: %v", err)
	}
	scr.SetSize(w, h)
	t.Cleanup(scr.Fini)
	return scr
}

// screenText returns the whole screen as newline-joined rows
func screenText(scr tcell.Screen) string {
	w, h := scr.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ch, _, _, _ := scr.GetContent(x, y)
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func testView() *View {
	reels := make([]reel.Reel, 3)
	reels[0].Relock(0)
	reels[1].Relock(2)
	reels[2].Relock(7)
	return &View{
		Reels:   reels,
		Symbols: symbol.Defaults(),
		Score:   5000,
		History: []int{0, 5000},
		Nudges:  3,
		Status:  "READY",
	}
}

func TestRenderFrameShowsPayline(t *testing.T) {
	scr := newSimScreen(t, 90, 20)
	r := NewRenderer(scr)
	r.RenderFrame(testView())

	text := screenText(scr)
	for _, want := range []string{"REEL CORTEX", "THE LEGEND SID", "ELITE AUTO.", "ELITE DASHBOARD", "SCORE 5000", "NUDGES 3", "READY", "1:locked"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q on screen\n%s", want, text)
		}
	}
	if !strings.ContainsRune(text, '▶') || !strings.ContainsRune(text, '◀') {
		t.Error("Expected payline markers")
	}
}

func TestRenderFrameNeighbourRows(t *testing.T) {
	scr := newSimScreen(t, 90, 20)
	r := NewRenderer(scr)
	v := testView()
	r.RenderFrame(v)

	// Reel 0 lands on index 0; neighbours wrap to 7 above and 1 below
	ox, oy := r.reelsOrigin(3)
	row := func(y int) string {
		var b strings.Builder
		for x := ox; x < ox+reelWidth; x++ {
			ch, _, _, _ := scr.GetContent(x, y)
			b.WriteRune(ch)
		}
		return b.String()
	}
	if !strings.Contains(row(oy+1), "DASHBOARD") {
		t.Errorf("Expected wrapped neighbour above payline, got %q", row(oy+1))
	}
	if !strings.Contains(row(oy+2), "LEGEND") {
		t.Errorf("Expected landed symbol on payline, got %q", row(oy+2))
	}
	if !strings.Contains(row(oy+3), "TEAM ENABLE") {
		t.Errorf("Expected next symbol below payline, got %q", row(oy+3))
	}
}

func TestRenderHintAndError(t *testing.T) {
	scr := newSimScreen(t, 90, 20)
	r := NewRenderer(scr)
	v := testView()
	v.Hint = "Automation and team vibes align on the payline"
	v.WinTier = "EPIC"
	v.Rationale = "two elite symbols"
	v.Muted = true
	r.RenderFrame(v)

	text := screenText(scr)
	for _, want := range []string{"[EPIC]", "Automation and team vibes", "two elite symbols", "muted"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q on screen", want)
		}
	}

	v.HintError = true
	v.Hint = "analysis failed"
	r.RenderFrame(v)
	text = screenText(scr)
	if !strings.Contains(text, "analysis failed") {
		t.Error("Expected error hint")
	}
}

func TestRenderSmallScreen(t *testing.T) {
	scr := newSimScreen(t, 20, 5)
	r := NewRenderer(scr)

	defer func() {
		if rec := recover(); rec != nil {
			t.Errorf("Render panicked on small screen: %v", rec)
		}
	}()
	v := testView()
	v.Hint = "a long hint that cannot possibly fit on such a tiny terminal"
	r.RenderFrame(v)
	r.RenderFrame(&View{})
}

func TestResize(t *testing.T) {
	scr := newSimScreen(t, 80, 24)
	r := NewRenderer(scr)
	scr.SetSize(100, 30)
	r.Resize()
	if r.width != 100 || r.height != 30 {
		t.Errorf("Expected 100x30, got %dx%d", r.width, r.height)
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Error("Expected empty sparkline")
	}
	if got := Sparkline([]int{0, 5000, 10000}); got != "▁▄█" {
		t.Errorf("Expected ▁▄█, got %s", got)
	}
	// Small flat histories stay low against the floor
	if got := Sparkline([]int{7, 7}); got != "▁▁" {
		t.Errorf("Expected low flat bars, got %s", got)
	}
	if got := Sparkline([]int{500, 1000, -20}); got != "▄█▁" {
		t.Errorf("Expected ▄█▁ against the floor, got %s", got)
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
	if got := wrap("abcdefghij", 4); len(got) != 3 || got[0] != "abcd" || got[2] != "ij" {
		t.Errorf("Expected hard split, got %v", got)
	}
}

func TestSymbolColorDims(t *testing.T) {
	full := symbolColor("#ffd700", 0)
	dim := symbolColor("#ffd700", 0.6)
	if full == dim {
		t.Error("Expected dimmed color to differ")
	}
	if symbolColor("not-a-color", 0) != RgbText {
		t.Error("Expected fallback color for bad hex")
	}
}
