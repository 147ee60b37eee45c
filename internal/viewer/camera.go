package viewer

import "github.com/Garsondee/Squad-Command/internal/game"

// camera maps the XZ ground plane onto the playfield rectangle. +Z points up
// the screen. The centre follows the player.
type camera struct {
	centre game.Vec3
	scale  float64 // pixels per metre
	viewW  float64
	viewH  float64
	offX   float64
	offY   float64
	jitX   float64
	jitY   float64
}

func (c camera) toScreen(p game.Vec3) (float32, float32) {
	x := c.offX + c.viewW/2 + (p.X-c.centre.X)*c.scale + c.jitX
	y := c.offY + c.viewH/2 - (p.Z-c.centre.Z)*c.scale + c.jitY
	return float32(x), float32(y)
}

func (c camera) toWorld(sx, sy float64) game.Vec3 {
	x := (sx-c.offX-c.viewW/2-c.jitX)/c.scale + c.centre.X
	z := -(sy-c.offY-c.viewH/2-c.jitY)/c.scale + c.centre.Z
	return game.V3(x, 0, z)
}

// metres converts a world length to pixels.
func (c camera) metres(m float64) float32 { return float32(m * c.scale) }
