package viewer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Squad-Command/internal/game"
)

var (
	colGround   = color.RGBA{R: 34, G: 46, B: 32, A: 255}
	colGrid     = color.RGBA{R: 48, G: 64, B: 46, A: 255}
	colObstacle = color.RGBA{R: 70, G: 70, B: 66, A: 255}
	colPlayer   = color.RGBA{R: 70, G: 140, B: 230, A: 255}
	colMarcus   = color.RGBA{R: 90, G: 200, B: 110, A: 255}
	colHostile  = color.RGBA{R: 210, G: 70, B: 60, A: 255}
	colPickup   = color.RGBA{R: 230, G: 200, B: 60, A: 255}
	colPath     = color.RGBA{R: 90, G: 200, B: 110, A: 140}
	colShell    = color.RGBA{R: 255, G: 170, B: 40, A: 255}
	colText     = color.RGBA{R: 210, G: 220, B: 210, A: 255}
)

// wraithColors tints the hull by state.
var wraithColors = map[game.WraithState]color.RGBA{
	game.WraithPatrol:    {R: 120, G: 90, B: 180, A: 255},
	game.WraithAlert:     {R: 200, G: 160, B: 60, A: 255},
	game.WraithCombat:    {R: 220, G: 70, B: 60, A: 255},
	game.WraithPursuit:   {R: 230, G: 110, B: 40, A: 255},
	game.WraithDamaged:   {R: 150, G: 60, B: 60, A: 255},
	game.WraithDestroyed: {R: 60, G: 60, B: 60, A: 255},
}

// markerColors tints order markers.
var markerColors = map[game.MarkerKind]color.RGBA{
	game.MarkerHold:     {R: 90, G: 200, B: 110, A: 200},
	game.MarkerAttack:   {R: 230, G: 60, B: 60, A: 220},
	game.MarkerSuppress: {R: 230, G: 140, B: 40, A: 200},
	game.MarkerScout:    {R: 80, G: 180, B: 230, A: 200},
	game.MarkerFlank:    {R: 200, G: 100, B: 220, A: 200},
}

// Draw renders the playfield, the dialogue panel and the HUD.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	v.cam.jitX, v.cam.jitY = 0, 0
	if v.shake > 0 {
		t := float64(v.sim.CurrentTick())
		v.cam.jitX = math.Sin(t*12.9) * v.shake * shakePx
		v.cam.jitY = math.Cos(t*7.3) * v.shake * shakePx
	}

	field := screen.SubImage(image.Rect(
		int(v.cam.offX), int(v.cam.offY),
		int(v.cam.offX+v.cam.viewW), int(v.cam.offY+v.cam.viewH),
	)).(*ebiten.Image)
	v.drawWorld(field)

	ox, oy := float32(v.cam.offX), float32(v.cam.offY)
	gw, gh := float32(v.cam.viewW), float32(v.cam.viewH)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)

	v.drawPanel(screen, int(v.cam.offX+v.cam.viewW)+borderWidth)
	if v.showHUD {
		v.drawHUD(screen)
	}
	v.drawNotice(screen)
}

func (v *Viewer) drawWorld(dst *ebiten.Image) {
	dst.Fill(colGround)
	v.drawGrid(dst, 10)

	for _, o := range v.sim.Obstacles() {
		x0, y0 := v.cam.toScreen(game.V3(o.MinX, 0, o.MaxZ))
		x1, y1 := v.cam.toScreen(game.V3(o.MaxX, 0, o.MinZ))
		vector.FillRect(dst, x0, y0, x1-x0, y1-y0, colObstacle, false)
	}

	for _, w := range v.sim.Wraiths {
		for _, c := range w.Craters() {
			x, y := v.cam.toScreen(c.Position)
			a := uint8(140 * c.Alpha())
			vector.FillCircle(dst, x, y, v.cam.metres(c.Radius*0.5), color.RGBA{R: 20, G: 16, B: 12, A: a}, true)
		}
	}

	v.drawMarkers(dst)
	if v.showPaths {
		v.drawMarcusRoute(dst)
	}

	for _, e := range v.sim.World.Select(nil) {
		if e.Has(game.TagVehicle) || e.ID == v.sim.MarcusID() || e.ID == v.sim.PlayerID() {
			continue
		}
		v.drawEntity(dst, e)
	}
	for _, w := range v.sim.Wraiths {
		v.drawWraith(dst, w)
	}
	v.drawMarcus(dst)
	v.drawPlayer(dst)

	for _, w := range v.sim.Wraiths {
		for _, m := range w.Mortars() {
			v.drawShell(dst, m)
		}
	}
	for _, b := range v.blasts {
		x, y := v.cam.toScreen(b.pos)
		k := b.age / b.life
		r := v.cam.metres(b.radius * (0.3 + 0.7*k))
		vector.StrokeCircle(dst, x, y, r, 3, color.RGBA{R: 255, G: 150, B: 40, A: uint8(255 * (1 - k))}, true)
	}
	for _, m := range v.muzzles {
		x0, y0 := v.cam.toScreen(m.pos)
		x1, y1 := v.cam.toScreen(m.pos.Add(m.dir.Scale(3)))
		vector.StrokeLine(dst, x0, y0, x1, y1, 2, color.RGBA{R: 255, G: 240, B: 160, A: 230}, true)
	}
	v.drawBubble(dst)
}

// drawGrid draws world-aligned lines every spacing metres.
func (v *Viewer) drawGrid(dst *ebiten.Image, spacing float64) {
	tl := v.cam.toWorld(v.cam.offX, v.cam.offY)
	br := v.cam.toWorld(v.cam.offX+v.cam.viewW, v.cam.offY+v.cam.viewH)
	for x := math.Floor(tl.X/spacing) * spacing; x <= br.X; x += spacing {
		sx, _ := v.cam.toScreen(game.V3(x, 0, 0))
		vector.StrokeLine(dst, sx, float32(v.cam.offY), sx, float32(v.cam.offY+v.cam.viewH), 1, colGrid, false)
	}
	for z := math.Floor(br.Z/spacing) * spacing; z <= tl.Z; z += spacing {
		_, sy := v.cam.toScreen(game.V3(0, 0, z))
		vector.StrokeLine(dst, float32(v.cam.offX), sy, float32(v.cam.offX+v.cam.viewW), sy, 1, colGrid, false)
	}
}

func (v *Viewer) drawMarkers(dst *ebiten.Image) {
	for kind, pos := range v.sim.Presenter.Markers {
		x, y := v.cam.toScreen(pos)
		c := markerColors[kind]
		r := float32(6)
		vector.StrokeLine(dst, x-r, y, x, y-r, 2, c, true)
		vector.StrokeLine(dst, x, y-r, x+r, y, 2, c, true)
		vector.StrokeLine(dst, x+r, y, x, y+r, 2, c, true)
		vector.StrokeLine(dst, x, y+r, x-r, y, 2, c, true)
		v.label(dst, kind.String(), float64(x)+8, float64(y)-6, c)
	}
}

func (v *Viewer) drawMarcusRoute(dst *ebiten.Image) {
	sq := v.sim.Squad
	if sq == nil {
		return
	}
	path := sq.Brain.Pathfinding()
	if path.Active {
		px, py := v.cam.toScreen(sq.Brain.Position())
		points := path.Path[min(path.WaypointIndex, len(path.Path)):]
		if path.Direct() {
			points = []game.Vec3{path.Destination}
		}
		for _, p := range points {
			x, y := v.cam.toScreen(p)
			vector.StrokeLine(dst, px, py, x, y, 1.5, colPath, true)
			vector.FillCircle(dst, x, y, 2, colPath, true)
			px, py = x, y
		}
	}
	if fl := sq.Brain.Flanking(); fl.Active {
		x, y := v.cam.toScreen(fl.TargetPosition)
		vector.StrokeCircle(dst, x, y, 5, 1.5, markerColors[game.MarkerFlank], true)
	}
}

func (v *Viewer) drawEntity(dst *ebiten.Image, e game.Entity) {
	x, y := v.cam.toScreen(e.Position)
	switch {
	case e.Has(game.TagCollectible) || e.Has(game.TagSecret):
		s := float32(4)
		vector.FillRect(dst, x-s, y-s, 2*s, 2*s, colPickup, false)
	case e.Has(game.TagEnemy):
		if !e.IsAlive() {
			vector.StrokeCircle(dst, x, y, v.cam.metres(0.6), 1, colHostile, true)
			return
		}
		r := v.cam.metres(0.6)
		if e.IsBoss() {
			r *= 1.6
		}
		vector.FillCircle(dst, x, y, r, v.tint(e.ID, colHostile), true)
		if sq := v.sim.Squad; sq != nil && sq.Brain.CurrentTarget() == e.ID {
			vector.StrokeCircle(dst, x, y, r+4, 1.5, color.RGBA{R: 255, G: 255, B: 255, A: 180}, true)
		}
		v.healthBar(dst, x, y-r-6, e.HealthFraction())
	case e.Has(game.TagAlly):
		vector.FillCircle(dst, x, y, v.cam.metres(0.6), colMarcus, true)
	}
}

func (v *Viewer) drawPlayer(dst *ebiten.Image) {
	p, ok := v.sim.Player()
	if !ok {
		return
	}
	x, y := v.cam.toScreen(p.Position)
	r := v.cam.metres(0.7)
	vector.FillCircle(dst, x, y, r, v.tint(p.ID, colPlayer), true)
	fx, fy := v.cam.toScreen(p.Position.Add(v.sim.PlayerFacing().Scale(2)))
	vector.StrokeLine(dst, x, y, fx, fy, 2, colPlayer, true)
	v.healthBar(dst, x, y-r-6, p.HealthFraction())
}

func (v *Viewer) drawMarcus(dst *ebiten.Image) {
	sq := v.sim.Squad
	if sq == nil {
		return
	}
	pos := sq.Brain.Position()
	x, y := v.cam.toScreen(pos)
	r := v.cam.metres(0.7)
	vector.FillCircle(dst, x, y, r, v.tint(v.sim.MarcusID(), colMarcus), true)
	fx, fy := v.cam.toScreen(pos.Add(sq.Brain.Facing().Scale(2)))
	vector.StrokeLine(dst, x, y, fx, fy, 2, colMarcus, true)

	if id := sq.Brain.CurrentTarget(); id != 0 {
		if t, ok := v.sim.World.Get(id); ok && t.IsAlive() {
			tx, ty := v.cam.toScreen(t.Position)
			vector.StrokeLine(dst, x, y, tx, ty, 1, color.RGBA{R: 230, G: 90, B: 60, A: 90}, true)
		}
	}
	if m, ok := v.sim.World.Get(v.sim.MarcusID()); ok {
		v.healthBar(dst, x, y-r-6, m.HealthFraction())
	}
	v.label(dst, sq.Brain.Mode().String(), float64(x)+10, float64(y)+4, colMarcus)
}

func (v *Viewer) drawWraith(dst *ebiten.Image, w *game.Wraith) {
	pos := w.Position()
	x, y := v.cam.toScreen(pos)
	c := wraithColors[w.State()]
	if w.Hijacked() {
		c = colPlayer
	}
	r := v.cam.metres(2.5)
	vector.FillCircle(dst, x, y, r, v.tint(w.ID(), c), true)

	hx, hy := v.cam.toScreen(pos.Add(game.HeadingVec(w.Yaw()).Scale(3.2)))
	vector.StrokeLine(dst, x, y, hx, hy, 3, color.RGBA{R: 30, G: 30, B: 30, A: 255}, true)
	tx, ty := v.cam.toScreen(pos.Add(game.HeadingVec(w.TurretYaw()).Scale(4)))
	vector.StrokeLine(dst, x, y, tx, ty, 1.5, colText, true)

	if w.State() == game.WraithDestroyed {
		return
	}
	v.healthBar(dst, x, y-r-8, w.Health().Fraction())
	if w.Charging() {
		bw := r * 2
		vector.FillRect(dst, x-r, y+r+4, bw, 3, color.RGBA{R: 40, G: 30, B: 20, A: 200}, false)
		vector.FillRect(dst, x-r, y+r+4, bw*float32(w.ChargeProgress()), 3, colShell, false)
	}
	tag := fmt.Sprintf("%s %s", w.Label(), w.State())
	if w.IsHijackable() {
		tag += " [E]"
	}
	v.label(dst, tag, float64(x+r)+4, float64(y)-6, c)
}

// drawShell draws a shell with a lifted sprite and a ground shadow, plus the
// remaining arc and the impact ring.
func (v *Viewer) drawShell(dst *ebiten.Image, m game.MortarProjectile) {
	lift := func(p game.Vec3) (float32, float32) {
		x, y := v.cam.toScreen(p)
		return x, y - float32(p.Y*v.cam.scale*0.5)
	}
	const steps = 16
	t0 := m.Progress()
	px, py := lift(m.Position)
	for i := 1; i <= steps; i++ {
		t := t0 + (1-t0)*float64(i)/steps
		x, y := lift(game.EvaluateArc(m.Origin, m.Target, t, m.Apex))
		vector.StrokeLine(dst, px, py, x, y, 1, color.RGBA{R: 255, G: 170, B: 40, A: 90}, true)
		px, py = x, y
	}
	ix, iy := v.cam.toScreen(m.Target)
	vector.StrokeCircle(dst, ix, iy, v.cam.metres(m.Radius), 1, color.RGBA{R: 255, G: 80, B: 40, A: 120}, true)

	sx, sy := v.cam.toScreen(m.Position)
	vector.FillCircle(dst, sx, sy, 2, color.RGBA{A: 120}, true)
	x, y := lift(m.Position)
	vector.FillCircle(dst, x, y, 3, colShell, true)
}

// drawBubble shows Marcus's latest line above him for a few seconds.
func (v *Viewer) drawBubble(dst *ebiten.Image) {
	const bubbleSecs = 3.0
	sq := v.sim.Squad
	if sq == nil {
		return
	}
	entries := v.sim.Thoughts.Recent()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Speaker != game.SpeakerMarcus {
			continue
		}
		age := float64(v.sim.CurrentTick()-e.Tick) * v.sim.TickDuration()
		if age > bubbleSecs {
			return
		}
		alpha := 1.0
		if age > bubbleSecs*0.7 {
			alpha = 1 - (age-bubbleSecs*0.7)/(bubbleSecs*0.3)
		}
		const padX, padY = 5, 3
		tw, th := text.Measure(e.Message, v.face, 0)
		x, y := v.cam.toScreen(sq.Brain.Position())
		bgW := float32(tw) + padX*2
		bgH := float32(th) + padY*2
		bgX := x - bgW/2
		bgY := y - v.cam.metres(0.7) - bgH - 8
		vector.FillRect(dst, bgX, bgY, bgW, bgH, color.RGBA{R: 20, G: 22, B: 20, A: uint8(210 * alpha)}, false)
		vector.FillRect(dst, bgX, bgY, 3, bgH, color.RGBA{R: 90, G: 200, B: 110, A: uint8(220 * alpha)}, false)
		c := colText
		c.A = uint8(255 * alpha)
		v.label(dst, e.Message, float64(bgX+padX), float64(bgY+padY), c)
		return
	}
}

func (v *Viewer) drawNotice(screen *ebiten.Image) {
	p := v.sim.Presenter
	if p.Notice == "" || v.sim.Now() > p.NoticeUntil {
		return
	}
	tw, _ := text.Measure(p.Notice, v.face, 0)
	x := v.cam.offX + v.cam.viewW/2 - tw/2
	vector.FillRect(screen, float32(x-8), float32(v.cam.offY+8), float32(tw+16), 22, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	v.label(screen, p.Notice, x, v.cam.offY+12, colText)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	speedStr := "1x"
	switch {
	case v.simSpeed == 0:
		speedStr = "PAUSED"
	case v.simSpeed != 1:
		speedStr = fmt.Sprintf("%gx", v.simSpeed)
	}
	snap := v.sim.Snapshot()
	lines := []string{
		fmt.Sprintf("T=%d (%.1fs)  SIM: %s  P=pause  ,/. speed", snap.Tick, snap.Now, speedStr),
		fmt.Sprintf("order=%s  mode=%s  scout=%s", snap.Order, snap.Mode, snap.Scout),
		"WASD move  mouse aim  click=shoot vehicle  E=hijack",
		"1 follow  2 hold  3 attack  4 suppress  5 flank  6 regroup  7 scout",
		"shift+2/7 at cursor  M move to cursor  C cancel  K copy report  F1 paths  Tab HUD",
	}
	if v.status != "" {
		lines = append(lines, "> "+v.status)
	}

	const lineH = 15
	const padX, padY = 6, 4
	maxW := 0.0
	for _, l := range lines {
		if w, _ := text.Measure(l, v.face, 0); w > maxW {
			maxW = w
		}
	}
	boxW := float32(maxW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(v.cam.offX + 4)
	by := float32(v.cam.offY+v.cam.viewH) - boxH - 4

	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	for i, l := range lines {
		v.label(screen, l, float64(bx)+padX, float64(by)+padY+float64(i*lineH), colText)
	}
}

func (v *Viewer) healthBar(dst *ebiten.Image, x, y float32, frac float64) {
	const w, h = 16, 3
	vector.FillRect(dst, x-w/2, y, w, h, color.RGBA{R: 40, G: 20, B: 20, A: 200}, false)
	c := color.RGBA{R: 90, G: 200, B: 90, A: 230}
	if frac < 0.5 {
		c = color.RGBA{R: 230, G: 160, B: 40, A: 230}
	}
	if frac <= 0.25 {
		c = color.RGBA{R: 230, G: 60, B: 50, A: 230}
	}
	vector.FillRect(dst, x-w/2, y, float32(w*frac), h, c, false)
}

// tint whitens an actor that was just hit.
func (v *Viewer) tint(id game.EntityID, c color.RGBA) color.RGBA {
	if _, ok := v.flashes[id]; ok {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return c
}

func (v *Viewer) label(dst *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, v.face, op)
}
