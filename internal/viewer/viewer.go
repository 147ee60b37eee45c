// Package viewer is a top-down ebiten sandbox around the squad simulation.
// The player walks with WASD, gives Marcus orders from the number row and
// shoots vehicles with the mouse.
package viewer

import (
	"fmt"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Squad-Command/internal/game"
)

const (
	// logPanelWidth is the pixel width of the dialogue panel on the right.
	logPanelWidth = 360
	// borderWidth is the pixel gap between the window edge and the playfield.
	borderWidth = 16

	playerSpeed  = 5.0  // m/s
	playerDamage = 25.0 // per click on a vehicle
	hijackReach  = 5.0  // m
	pickRadius   = 4.0  // m, cursor snap for targets

	shakeDecay = 3.0 // intensity per second
	shakePx    = 10.0
)

// speeds are the selectable sim speed multipliers; 0 is paused.
var speeds = []float64{0, 0.5, 1, 2, 4}

// Options configures the window.
type Options struct {
	Width  int     // playfield width in pixels
	Height int     // playfield height in pixels
	Scale  float64 // pixels per metre
	Logger zerolog.Logger
}

// Viewer implements ebiten.Game over a TestSim.
type Viewer struct {
	sim *game.TestSim
	log zerolog.Logger
	cam camera

	width  int
	height int
	face   text.Face

	simSpeed  float64
	tickAccum float64
	showHUD   bool
	showPaths bool

	shake   float64
	flashes map[game.EntityID]float64 // remaining flash time
	blasts  []blast
	muzzles []blast
	cursor  game.Vec3
	status  string
}

// blast is a short-lived explosion or muzzle ring.
type blast struct {
	pos    game.Vec3
	dir    game.Vec3
	radius float64
	age    float64
	life   float64
}

// New wraps ts in a viewer.
func New(ts *game.TestSim, o Options) *Viewer {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 840
	}
	if o.Scale <= 0 {
		o.Scale = 6
	}
	return &Viewer{
		sim:       ts,
		log:       o.Logger.With().Str("component", "viewer").Logger(),
		cam:       camera{scale: o.Scale, viewW: float64(o.Width), viewH: float64(o.Height), offX: borderWidth, offY: borderWidth},
		width:     borderWidth + o.Width + borderWidth + logPanelWidth,
		height:    borderWidth + o.Height + borderWidth,
		face:      text.NewGoXFace(basicfont.Face7x13),
		simSpeed:  1,
		showHUD:   true,
		showPaths: true,
		flashes:   make(map[game.EntityID]float64),
	}
}

// Update handles input every frame and advances the sim at the chosen speed.
// ebiten runs Update at 60 Hz; the sim advances one tick per 1/TickDuration
// of a second of wall time at 1x.
func (v *Viewer) Update() error {
	v.handleInput()

	frame := 1.0 / float64(ebiten.TPS())
	v.decayEffects(frame)
	if v.simSpeed <= 0 {
		return nil
	}
	v.tickAccum += frame * v.simSpeed
	for v.tickAccum >= v.sim.TickDuration() {
		v.tickAccum -= v.sim.TickDuration()
		v.sim.Step()
		v.absorbEffects()
	}
	return nil
}

// Layout fixes the logical screen size.
func (v *Viewer) Layout(_, _ int) (int, int) { return v.width, v.height }

// Size returns the window size the viewer wants.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

func (v *Viewer) handleInput() {
	if p, ok := v.sim.Player(); ok {
		v.cam.centre = p.Position
	}
	mx, my := ebiten.CursorPosition()
	v.cursor = v.cam.toWorld(float64(mx), float64(my))

	v.handleMovement()
	v.handleOrders()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		v.shoot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		v.tryHijack()
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		v.simSpeed = stepSpeed(v.simSpeed, -1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		v.simSpeed = stepSpeed(v.simSpeed, +1)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.showHUD = !v.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		v.showPaths = !v.showPaths
	}

	// Zoom: mouse wheel or =/- keys.
	const zoomMin, zoomMax = 2.0, 24.0
	_, wy := ebiten.Wheel()
	if wy != 0 {
		v.cam.scale *= math.Pow(1.12, wy)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		v.cam.scale *= 1.25
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		v.cam.scale /= 1.25
	}
	v.cam.scale = math.Max(zoomMin, math.Min(zoomMax, v.cam.scale))

	if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		v.copyReport()
	}
}

func (v *Viewer) handleMovement() {
	var dir game.Vec3
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		dir.Z++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		dir.Z--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		dir.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		dir.X--
	}
	v.sim.SetPlayerVelocity(dir.Normalize().Scale(playerSpeed))
	if p, ok := v.sim.Player(); ok {
		v.sim.SetPlayerFacing(v.cursor.Sub(p.Position))
	}
}

// orderKeys maps the number row to directives.
var orderKeys = []struct {
	key  ebiten.Key
	kind game.DirectiveKind
}{
	{ebiten.Key1, game.DirectiveFollowMe},
	{ebiten.Key2, game.DirectiveHoldPosition},
	{ebiten.Key3, game.DirectiveAttackTarget},
	{ebiten.Key4, game.DirectiveSuppressingFire},
	{ebiten.Key5, game.DirectiveFlankTarget},
	{ebiten.Key6, game.DirectiveRegroup},
	{ebiten.Key7, game.DirectiveScoutAhead},
}

func (v *Viewer) handleOrders() {
	if v.sim.Squad == nil {
		return
	}
	for _, ok := range orderKeys {
		if !inpututil.IsKeyJustPressed(ok.key) {
			continue
		}
		v.issue(ok.kind, ebiten.IsKeyPressed(ebiten.KeyShift))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		v.sim.Squad.CancelCommand()
		v.status = "order cancelled"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		if v.sim.Squad.MoveTo(v.cursor) {
			v.status = "moving to cursor"
		} else {
			v.status = "move refused: recon in progress"
		}
	}
}

// issue gives an order. Targeted orders use the hostile nearest the cursor;
// with atCursor the order's position is the cursor instead of the default.
func (v *Viewer) issue(kind game.DirectiveKind, atCursor bool) {
	var target game.EntityID
	var pos *game.Vec3
	switch kind {
	case game.DirectiveAttackTarget, game.DirectiveFlankTarget, game.DirectiveSuppressingFire:
		if e, ok := nearestHostile(v.sim.World, v.cursor, pickRadius*3); ok {
			target = e.ID
		} else if kind == game.DirectiveSuppressingFire {
			c := v.cursor
			pos = &c
		}
	case game.DirectiveScoutAhead, game.DirectiveHoldPosition:
		if atCursor {
			c := v.cursor
			pos = &c
		}
	}
	accepted := v.sim.Issue(kind, target, pos)
	v.status = fmt.Sprintf("%s: %s", kind, map[bool]string{true: "accepted", false: "refused"}[accepted])
	v.log.Debug().Str("kind", kind.String()).Int("target", int(target)).Bool("accepted", accepted).Msg("order")
}

// shoot hits the vehicle under the cursor from the player's position.
func (v *Viewer) shoot() {
	p, ok := v.sim.Player()
	if !ok {
		return
	}
	best, bestD := -1, pickRadius
	for i, w := range v.sim.Wraiths {
		if w.State() == game.WraithDestroyed {
			continue
		}
		if d := w.Position().DistXZ(v.cursor); d <= bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return
	}
	dealt := v.sim.DamageWraith(best, playerDamage, p.Position)
	v.muzzles = append(v.muzzles, blast{pos: p.Position, dir: v.cursor.Sub(p.Position).Normalize(), life: 0.1})
	v.status = fmt.Sprintf("hit %s for %.0f", v.sim.Wraiths[best].Label(), dealt)
}

func (v *Viewer) tryHijack() {
	p, ok := v.sim.Player()
	if !ok {
		return
	}
	for _, w := range v.sim.Wraiths {
		if w.Position().DistXZ(p.Position) > hijackReach {
			continue
		}
		if w.Hijack() {
			v.status = "hijacked " + w.Label()
			return
		}
	}
}

// copyReport puts the sim summary and the last log lines on the clipboard.
func (v *Viewer) copyReport() {
	report := buildReport(v.sim, 40)
	if err := clipboard.WriteAll(report); err != nil {
		v.log.Warn().Err(err).Msg("clipboard unavailable")
		v.status = "clipboard unavailable"
		return
	}
	v.status = "report copied"
}

// absorbEffects turns buffered effect requests into short animations.
func (v *Viewer) absorbEffects() {
	for _, ev := range v.sim.Effects.Drain() {
		switch ev.Kind {
		case "shake":
			v.shake = math.Max(v.shake, ev.Magnitude)
		case "explosion":
			v.blasts = append(v.blasts, blast{pos: ev.Position, radius: ev.Magnitude, life: 0.6})
		case "muzzle":
			v.muzzles = append(v.muzzles, blast{pos: ev.Position, dir: ev.Direction, life: 0.1})
		case "flash":
			v.flashes[ev.Target] = 0.25
		}
	}
}

func (v *Viewer) decayEffects(dt float64) {
	v.shake = math.Max(0, v.shake-shakeDecay*dt)
	for id, left := range v.flashes {
		if left -= dt; left <= 0 {
			delete(v.flashes, id)
		} else {
			v.flashes[id] = left
		}
	}
	v.blasts = ageBlasts(v.blasts, dt)
	v.muzzles = ageBlasts(v.muzzles, dt)
}

func ageBlasts(bs []blast, dt float64) []blast {
	kept := bs[:0]
	for _, b := range bs {
		b.age += dt
		if b.age < b.life {
			kept = append(kept, b)
		}
	}
	return kept
}

// stepSpeed moves one notch through speeds in direction dir.
func stepSpeed(cur float64, dir int) float64 {
	idx := 0
	for i, s := range speeds {
		if s <= cur {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(speeds) {
		idx = len(speeds) - 1
	}
	return speeds[idx]
}

// nearestHostile returns the living enemy closest to p within maxDist.
func nearestHostile(world *game.Registry, p game.Vec3, maxDist float64) (game.Entity, bool) {
	var best game.Entity
	found := false
	bestD := maxDist
	for _, e := range world.Select(func(e game.Entity) bool { return e.Has(game.TagEnemy) && e.IsAlive() }) {
		if d := e.Position.DistXZ(p); d <= bestD {
			best, bestD, found = e, d, true
		}
	}
	return best, found
}
