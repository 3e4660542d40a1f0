package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/reel-cortex/reel"
)

// Layout constants
const (
	reelWidth     = 22
	reelGap       = 2
	reelRows      = 3 // symbols visible per reel, payline in the middle
	reelBoxHeight = reelRows + 2
	headerRows    = 2
	hintRows      = 4
)

var (
	RgbBackground = tcell.NewRGBColor(10, 10, 18)
	RgbFrame      = tcell.NewRGBColor(90, 90, 120)
	RgbFrameHot   = tcell.NewRGBColor(0, 242, 255)
	RgbPayline    = tcell.NewRGBColor(255, 215, 0)
	RgbText       = tcell.NewRGBColor(220, 220, 230)
	RgbDim        = tcell.NewRGBColor(110, 110, 130)
	RgbError      = tcell.NewRGBColor(255, 80, 80)
)

var bgColorful, _ = colorful.Hex("#0a0a12")

// symbolColor parses a catalog hex color, dimming rows off the payline
func symbolColor(hex string, dim float64) tcell.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return RgbText
	}
	if dim > 0 {
		c = c.BlendLab(bgColorful, dim).Clamped()
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// drawText writes s at (x, y) clipped to maxWidth cells, returns cells used
func (r *Renderer) drawText(x, y int, s string, style tcell.Style, maxWidth int) int {
	used := 0
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if maxWidth >= 0 && used+w > maxWidth {
			break
		}
		r.screen.SetContent(x+used, y, ch, nil, style)
		used += w
	}
	return used
}

// drawCentered writes s centered in [x, x+width)
func (r *Renderer) drawCentered(x, y, width int, s string, style tcell.Style) {
	sw := runewidth.StringWidth(s)
	if sw > width {
		s = runewidth.Truncate(s, width, "…")
		sw = runewidth.StringWidth(s)
	}
	r.drawText(x+(width-sw)/2, y, s, style, width)
}

// reelsOrigin returns the top-left corner of the reel row
func (r *Renderer) reelsOrigin(count int) (int, int) {
	total := count*reelWidth + (count-1)*reelGap
	x := (r.width - total) / 2
	if x < 0 {
		x = 0
	}
	return x, headerRows
}

// visibleRow returns the strip index shown offset rows away from the payline
// The strip scrolls upward as position grows
func visibleRow(rl reel.Reel, n, offset int) int {
	center := rl.Index(n)
	return ((center+offset)%n + n) % n
}

// drawReels draws every reel box with its three visible symbols
func (r *Renderer) drawReels(v *View, base tcell.Style) {
	n := len(v.Symbols)
	if n == 0 {
		return
	}
	ox, oy := r.reelsOrigin(len(v.Reels))

	for i, rl := range v.Reels {
		x := ox + i*(reelWidth+reelGap)
		frame := base.Foreground(RgbFrame)
		if rl.Moving() {
			frame = base.Foreground(RgbFrameHot)
		}
		r.drawBox(x, oy, reelWidth, reelBoxHeight, frame)

		// Bounce shows as a one-cell horizontal jitter on the payline
		jitter := 0
		if rl.State == reel.StateLocked && rl.Bounce > 0 {
			if d := rl.Position - float64(rl.Target); math.Abs(d) > 0.25 {
				jitter = int(math.Copysign(1, d))
			}
		}

		for row := 0; row < reelRows; row++ {
			offset := row - reelRows/2
			sym := v.Symbols[visibleRow(rl, n, offset)]
			dim := 0.0
			if offset != 0 {
				dim = 0.6
			}
			style := base.Foreground(symbolColor(sym.Color, dim))
			if offset == 0 && !rl.Moving() {
				style = style.Bold(true)
			}
			shift := 0
			if offset == 0 {
				shift = jitter
			}
			r.drawCentered(x+1+shift, oy+1+row, reelWidth-2, sym.Icon+" "+sym.Label, style)
		}

		label := fmt.Sprintf(" %d:%s ", i+1, rl.State)
		r.drawText(x+2, oy+reelBoxHeight-1, label, frame, reelWidth-4)
	}

	// Payline markers either side of the reel row
	pay := base.Foreground(RgbPayline)
	py := oy + 1 + reelRows/2
	total := len(v.Reels)*reelWidth + (len(v.Reels)-1)*reelGap
	if ox > 0 {
		r.screen.SetContent(ox-1, py, '▶', nil, pay)
	}
	if ox+total < r.width {
		r.screen.SetContent(ox+total, py, '◀', nil, pay)
	}
}

// drawBox draws a single-line frame
func (r *Renderer) drawBox(x, y, w, h int, style tcell.Style) {
	for i := 1; i < w-1; i++ {
		r.screen.SetContent(x+i, y, '─', nil, style)
		r.screen.SetContent(x+i, y+h-1, '─', nil, style)
	}
	for j := 1; j < h-1; j++ {
		r.screen.SetContent(x, y+j, '│', nil, style)
		r.screen.SetContent(x+w-1, y+j, '│', nil, style)
	}
	r.screen.SetContent(x, y, '┌', nil, style)
	r.screen.SetContent(x+w-1, y, '┐', nil, style)
	r.screen.SetContent(x, y+h-1, '└', nil, style)
	r.screen.SetContent(x+w-1, y+h-1, '┘', nil, style)
}

// sparkBlocks are the eighth-height bars used for the score trend
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SparkFloor is the smallest scale a trend is drawn against
const SparkFloor = 1000

// Sparkline maps values onto block characters scaled against the larger of their peak and SparkFloor
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	peak := SparkFloor
	for _, v := range values {
		peak = max(peak, v)
	}
	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range values {
		b.WriteRune(sparkBlocks[min(max(v*top/peak, 0), top)])
	}
	return b.String()
}
