package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/reel-cortex/reel"
	"github.com/lixenwraith/reel-cortex/symbol"
)

// View is the read-only snapshot drawn each frame
type View struct {
	Reels   []reel.Reel
	Symbols []symbol.Symbol

	Score   int
	History []int
	Nudges  int
	Muted   bool

	Status    string // READY, SPINNING, ANALYZING
	Hint      string
	Rationale string
	WinTier   string
	HintError bool
}

// Renderer draws the machine onto a tcell screen
type Renderer struct {
	screen tcell.Screen
	width  int
	height int
}

// NewRenderer creates a renderer sized to the screen
func NewRenderer(screen tcell.Screen) *Renderer {
	w, h := screen.Size()
	return &Renderer{screen: screen, width: w, height: h}
}

// Resize updates cached dimensions after a resize event
func (r *Renderer) Resize() {
	r.width, r.height = r.screen.Size()
	r.screen.Sync()
}

// RenderFrame renders the entire frame
func (r *Renderer) RenderFrame(v *View) {
	base := tcell.StyleDefault.Background(RgbBackground).Foreground(RgbText)
	r.screen.SetStyle(base)
	r.screen.Clear()

	r.drawHeader(v, base)
	r.drawReels(v, base)
	r.drawHint(v, base)
	r.drawStatusBar(v, base)

	r.screen.Show()
}

// drawHeader draws the title and score trend
func (r *Renderer) drawHeader(v *View, base tcell.Style) {
	title := "REEL CORTEX"
	r.drawCentered(0, 0, r.width, title, base.Foreground(RgbPayline).Bold(true))
	if spark := Sparkline(v.History); spark != "" {
		r.drawText(1, 0, spark, base.Foreground(RgbFrameHot), len(v.History))
	}
}

// drawHint draws the wrapped hint panel below the reels
func (r *Renderer) drawHint(v *View, base tcell.Style) {
	y := headerRows + reelBoxHeight + 1
	if y >= r.height-1 {
		return
	}
	width := min(r.width-4, 3*reelWidth+2*reelGap)
	x := (r.width - width) / 2
	if width <= 0 {
		return
	}

	style := base
	if v.HintError {
		style = base.Foreground(RgbError)
	}
	lines := wrap(v.Hint, width)
	if v.WinTier != "" && len(lines) > 0 {
		r.drawText(x, y, "["+v.WinTier+"]", base.Foreground(RgbPayline).Bold(true), width)
		y++
	}
	for i, line := range lines {
		if i >= hintRows-1 || y >= r.height-1 {
			break
		}
		r.drawText(x, y, line, style, width)
		y++
	}
	if v.Rationale != "" && y < r.height-1 {
		r.drawText(x, y, runewidth.Truncate(v.Rationale, width, "…"), base.Foreground(RgbDim).Italic(true), width)
	}
}

// drawStatusBar draws the bottom status line
func (r *Renderer) drawStatusBar(v *View, base tcell.Style) {
	y := r.height - 1
	if y < 0 {
		return
	}
	bar := base.Background(tcell.NewRGBColor(30, 30, 45))
	for x := 0; x < r.width; x++ {
		r.screen.SetContent(x, y, ' ', nil, bar)
	}

	sound := "♪"
	if v.Muted {
		sound = "muted"
	}
	left := fmt.Sprintf(" %s │ SCORE %d │ NUDGES %d │ %s ", v.Status, v.Score, v.Nudges, sound)
	used := r.drawText(0, y, left, bar.Bold(true), r.width)

	help := "SPACE spin  1-9 nudge  m mute  q quit "
	hw := runewidth.StringWidth(help)
	if r.width-hw > used {
		r.drawText(r.width-hw, y, help, bar.Foreground(RgbDim), hw)
	}
}

// wrap splits s into lines of at most width cells on spaces
func wrap(s string, width int) []string {
	if s == "" || width <= 0 {
		return nil
	}
	var lines []string
	line, lineW := "", 0
	word, wordW := "", 0
	flush := func() {
		if wordW == 0 {
			return
		}
		switch {
		case lineW == 0:
			line, lineW = word, wordW
		case lineW+1+wordW <= width:
			line += " " + word
			lineW += 1 + wordW
		default:
			lines = append(lines, line)
			line, lineW = word, wordW
		}
		for lineW > width {
			head := runewidth.Truncate(line, width, "")
			lines = append(lines, head)
			line = line[len(head):]
			lineW = runewidth.StringWidth(line)
		}
		word, wordW = "", 0
	}
	for _, ch := range s {
		if ch == ' ' || ch == '\n' {
			flush()
			continue
		}
		word += string(ch)
		wordW += runewidth.RuneWidth(ch)
	}
	flush()
	if lineW > 0 {
		lines = append(lines, line)
	}
	return lines
}
