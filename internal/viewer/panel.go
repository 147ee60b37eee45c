package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Squad-Command/internal/game"
)

const logLineHeight = 15

// speakerColors are the indicator dots in the dialogue panel.
var speakerColors = map[string]color.RGBA{
	game.SpeakerMarcus: colMarcus,
	"HUD":              {R: 200, G: 200, B: 120, A: 255},
}

// drawPanel renders the dialogue log down the right edge, newest at the
// bottom. Only the latest few lines are highlighted.
func (v *Viewer) drawPanel(screen *ebiten.Image, panelX int) {
	panelH := v.height
	px := float32(panelX)
	vector.FillRect(screen, px, 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, px, 0, px, float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	vector.FillRect(screen, px, 0, logPanelWidth, 18, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	v.label(screen, "SQUAD LOG", float64(panelX+8), 2, colText)
	vector.StrokeLine(screen, px, 18, px+logPanelWidth, 18, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := v.sim.Thoughts.Recent()
	maxVisible := (panelH - 26) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3

	y := 22
	for i, e := range entries {
		isRecent := i >= len(entries)-recent
		if isRecent {
			vector.FillRect(screen, px+2, float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		dot, ok := speakerColors[e.Speaker]
		if !ok {
			dot = colHostile
		}
		vector.FillRect(screen, px+5, float32(y+4), 3, 6, dot, false)

		c := colText
		if !isRecent {
			c.A = 150
		}
		line := fmt.Sprintf("%4d [%s] %s", e.Tick, e.Speaker, e.Message)
		v.label(screen, clip(line, (logPanelWidth-16)/7), float64(panelX+12), float64(y), c)
		y += logLineHeight
	}
}

// clip shortens s to n runes with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}
