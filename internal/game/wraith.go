package game

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"
)

// WraithState is the hover-tank's behavior state.
type WraithState int

const (
	WraithPatrol WraithState = iota
	WraithAlert
	WraithCombat
	WraithPursuit
	WraithDamaged
	WraithDestroyed
)

func (s WraithState) String() string {
	switch s {
	case WraithPatrol:
		return "patrol"
	case WraithAlert:
		return "alert"
	case WraithCombat:
		return "combat"
	case WraithPursuit:
		return "pursuit"
	case WraithDamaged:
		return "damaged"
	case WraithDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// DamageEvent is damage the vehicle dealt this tick. The host applies it.
type DamageEvent struct {
	Target   EntityID
	Source   EntityID
	Amount   float64
	Position Vec3
	Weapon   string // "mortar" or "turret"
}

// DestroyedEvent is fired once when a vehicle dies or is taken over.
type DestroyedEvent struct {
	ID       EntityID
	Position Vec3
	Hijacked bool
}

// Wraith is a hostile hover-tank with a lobbed mortar and a rapid-fire
// turret.
type Wraith struct {
	id    EntityID
	label string
	cfg   WraithConfig

	effects   Effects
	presenter Presenter
	world     WorldQuery
	rng       *rand.Rand
	log       zerolog.Logger

	state     WraithState
	health    Health
	pos       Vec3
	yaw       float64
	turretYaw float64
	now       float64

	waypoints []Vec3
	wpIndex   int
	pause     float64

	playerID    EntityID
	playerPos   Vec3
	playerVel   Vec3
	playerKnown bool

	damagedOnce bool
	hijacked    bool

	charging       bool
	chargeTimer    float64
	mortarCooldown float64
	turretCooldown float64
	strafeDir      float64
	strafeTimer    float64

	mortars []*MortarProjectile
	craters []Crater

	onStateChange []func(from, to WraithState)
	onDestroyed   []func(DestroyedEvent)
	onMortar      []func(*MortarProjectile)
}

// NewWraith spawns a vehicle at pos that patrols waypoints in a loop. Health,
// damage, fire rate and detection range are scaled by deps.Difficulty.
func NewWraith(id EntityID, label string, pos Vec3, waypoints []Vec3, cfg WraithConfig, deps Deps) *Wraith {
	deps = deps.withDefaults()
	cfg = scaleWraithConfig(cfg, deps.Difficulty)
	return &Wraith{
		id:        id,
		label:     label,
		cfg:       cfg,
		effects:   deps.Effects,
		presenter: deps.Presenter,
		world:     deps.World,
		rng:       deps.Rand,
		log:       deps.Logger.With().Str("component", "wraith").Str("unit", label).Logger(),
		health:    Health{Current: cfg.MaxHealth, Max: cfg.MaxHealth},
		pos:       pos,
		waypoints: append([]Vec3(nil), waypoints...),
		strafeDir: 1,
	}
}

// scaleWraithConfig applies difficulty once, at construction.
func scaleWraithConfig(cfg WraithConfig, s Scaler) WraithConfig {
	cfg.MaxHealth = s.Health(cfg.MaxHealth)
	cfg.MortarMaxDamage = s.Damage(cfg.MortarMaxDamage)
	cfg.MortarMinDamage = s.Damage(cfg.MortarMinDamage)
	cfg.TurretDamage = s.Damage(cfg.TurretDamage)
	cfg.AlertRadius = s.DetectionRange(cfg.AlertRadius)
	cfg.MortarCooldown = scaleInterval(cfg.MortarCooldown, s)
	cfg.TurretCooldown = scaleInterval(cfg.TurretCooldown, s)
	return cfg
}

func (w *Wraith) OnStateChange(fn func(from, to WraithState)) {
	w.onStateChange = append(w.onStateChange, fn)
}

func (w *Wraith) OnDestroyed(fn func(DestroyedEvent)) {
	w.onDestroyed = append(w.onDestroyed, fn)
}

func (w *Wraith) OnMortarLaunched(fn func(*MortarProjectile)) {
	w.onMortar = append(w.onMortar, fn)
}

func (w *Wraith) ID() EntityID         { return w.id }
func (w *Wraith) Label() string        { return w.label }
func (w *Wraith) State() WraithState   { return w.state }
func (w *Wraith) Position() Vec3       { return w.pos }
func (w *Wraith) Yaw() float64         { return w.yaw }
func (w *Wraith) TurretYaw() float64   { return w.turretYaw }
func (w *Wraith) Health() Health       { return w.health }
func (w *Wraith) Config() WraithConfig { return w.cfg }
func (w *Wraith) Charging() bool       { return w.charging }
func (w *Wraith) Hijacked() bool       { return w.hijacked }
func (w *Wraith) Craters() []Crater    { return append([]Crater(nil), w.craters...) }

// Mortars returns copies of the shells in flight.
func (w *Wraith) Mortars() []MortarProjectile {
	out := make([]MortarProjectile, len(w.mortars))
	for i, m := range w.mortars {
		out[i] = *m
	}
	return out
}

// IsDamaged is the continuous "badly hurt" modifier.
func (w *Wraith) IsDamaged() bool {
	return w.health.Current > 0 && w.health.Fraction() <= w.cfg.DamagedThreshold
}

// IsHijackable reports whether the player can take the vehicle over.
func (w *Wraith) IsHijackable() bool {
	return w.state != WraithDestroyed && !w.hijacked &&
		w.health.Current > 0 && w.health.Fraction() <= w.cfg.HijackThreshold
}

// UpdatePlayerState pushes the player's latest pose. known=false means the
// player is not currently tracked (dead, hidden, gone).
func (w *Wraith) UpdatePlayerState(id EntityID, pos, vel Vec3, known bool) {
	w.playerID = id
	w.playerPos = pos
	w.playerVel = vel
	w.playerKnown = known
}

// Hijack hands the vehicle to the player. Only succeeds when hijackable;
// the hostile unit is destroyed as a result.
func (w *Wraith) Hijack() bool {
	if !w.IsHijackable() {
		return false
	}
	w.hijacked = true
	w.log.Info().Msg("hijacked")
	w.destroy()
	return true
}

// IsRearHit reports whether damage arriving from hitDir (pointing from the
// vehicle toward the source) strikes the rear armor.
func (w *Wraith) IsRearHit(hitDir Vec3) bool {
	h := hitDir.Flat().Normalize()
	if h.IsZero() {
		return false
	}
	return h.Dot(HeadingVec(w.yaw)) < w.cfg.RearDot
}

// ApplyDamage hurts the vehicle. hitDir points from the vehicle toward the
// source; rear hits are multiplied. Returns the damage actually taken.
func (w *Wraith) ApplyDamage(amount float64, hitDir Vec3) float64 {
	if w.state == WraithDestroyed || amount <= 0 {
		return 0
	}
	rear := w.IsRearHit(hitDir)
	if rear {
		amount *= w.cfg.RearMultiplier
	}
	dealt := math.Min(amount, w.health.Current)
	w.health.Current -= dealt
	metrics.damage(dealt, rear)
	w.effects.FlashDamage(w.id)
	w.log.Debug().Float64("dealt", dealt).Bool("rear", rear).Float64("hp", w.health.Current).Msg("hit")

	if w.health.Current <= 0 {
		w.health.Current = 0
		w.destroy()
		return dealt
	}
	if !w.damagedOnce && w.health.Fraction() <= w.cfg.DamagedThreshold {
		w.damagedOnce = true
		w.transition(WraithDamaged)
		w.transition(w.rerouteFromDamaged())
	}
	return dealt
}

// rerouteFromDamaged picks where to go after the damage check.
func (w *Wraith) rerouteFromDamaged() WraithState {
	d := w.pos.DistXZ(w.playerPos)
	switch {
	case w.playerKnown && d < w.cfg.CombatRange:
		return WraithCombat
	case w.playerKnown && d < w.cfg.AlertRadius:
		return WraithAlert
	default:
		return WraithPatrol
	}
}

// nextState evaluates the distance-driven transitions with hysteresis.
// Thresholds to leave a state are wider than to enter it.
func nextState(cfg WraithConfig, s WraithState, dist float64, known bool) WraithState {
	switch s {
	case WraithPatrol:
		if known && dist < cfg.AlertRadius {
			return WraithAlert
		}
	case WraithAlert:
		if !known || dist >= cfg.AlertRadius*cfg.AlertExitFactor {
			return WraithPatrol
		}
		if dist < cfg.CombatRange {
			return WraithCombat
		}
	case WraithCombat:
		if !known || dist > cfg.PursuitThreshold || dist > cfg.CombatRange*cfg.CombatExitFactor {
			return WraithPursuit
		}
	case WraithPursuit:
		if !known || dist > cfg.PursuitThreshold*cfg.PursuitExitFactor {
			return WraithPatrol
		}
		if dist < cfg.CombatRange {
			return WraithCombat
		}
	}
	return s
}

// Update runs one tick: act for the current state, fly shells, then
// evaluate transitions against the post-move distance. Returns the damage
// dealt this tick.
func (w *Wraith) Update(dt float64) []DamageEvent {
	w.now += dt
	w.tickCraters(dt)
	if w.state == WraithDestroyed {
		return nil
	}

	var events []DamageEvent
	w.turretCooldown = math.Max(0, w.turretCooldown-dt)

	switch w.state {
	case WraithPatrol:
		w.patrol(dt)
	case WraithAlert:
		w.trackPlayer(dt, true)
		events = append(events, w.fireTurret()...)
	case WraithCombat:
		w.strafe(dt)
		w.trackPlayer(dt, false)
		w.cycleMortar(dt)
		events = append(events, w.fireTurret()...)
	case WraithPursuit:
		w.chase(dt)
		w.trackPlayer(dt, false)
		events = append(events, w.fireTurret()...)
	}

	events = append(events, w.advanceMortars(dt)...)

	next := nextState(w.cfg, w.state, w.pos.DistXZ(w.playerPos), w.playerKnown)
	if next != w.state {
		w.transition(next)
	}
	return events
}

func (w *Wraith) speed() float64 {
	if w.IsDamaged() {
		return w.cfg.MoveSpeed * w.cfg.DamagedSpeedMul
	}
	return w.cfg.MoveSpeed
}

// moveToward steps up to maxStep toward p and turns the hull the same way.
func (w *Wraith) moveToward(p Vec3, maxStep, dt float64) {
	off := p.Sub(w.pos).Flat()
	d := off.Len()
	if d < 1e-9 {
		return
	}
	w.yaw = turnToward(w.yaw, off.Heading(), w.cfg.TurnRate*dt)
	w.pos = w.pos.Add(off.Scale(math.Min(maxStep, d) / d))
}

func (w *Wraith) patrol(dt float64) {
	if len(w.waypoints) == 0 {
		return
	}
	if w.pause > 0 {
		w.pause -= dt
		return
	}
	wp := w.waypoints[w.wpIndex]
	if w.pos.DistXZ(wp) < w.cfg.WaypointArrival {
		w.wpIndex = (w.wpIndex + 1) % len(w.waypoints)
		w.pause = secs(w.cfg.WaypointPause)
		return
	}
	w.moveToward(wp, w.speed()*dt, dt)
}

// trackPlayer swings the turret (and, when hull is set, the body) toward the
// player.
func (w *Wraith) trackPlayer(dt float64, hull bool) {
	bearing := w.playerPos.Sub(w.pos).Flat().Heading()
	w.turretYaw = turnToward(w.turretYaw, bearing, w.cfg.TurretTurnRate*dt)
	if hull {
		w.yaw = turnToward(w.yaw, bearing, w.cfg.TurnRate*dt)
	}
}

// strafe orbits the player at the middle of the engagement band, flipping
// direction on a timer.
func (w *Wraith) strafe(dt float64) {
	w.strafeTimer += dt
	if w.strafeTimer >= secs(w.cfg.StrafeFlipInterval) {
		w.strafeTimer = 0
		w.strafeDir = -w.strafeDir
	}
	toPlayer := w.playerPos.Sub(w.pos).Flat()
	d := toPlayer.Len()
	if d < 1e-9 {
		return
	}
	radial := toPlayer.Scale(1 / d)
	band := w.cfg.CombatRange * w.cfg.StrafeBandFraction
	corr := math.Max(-1, math.Min(1, (d-band)/band*4))
	v := radial.PerpXZ().Scale(w.strafeDir).Add(radial.Scale(corr)).Normalize()
	w.pos = w.pos.Add(v.Scale(w.speed() * dt))
	w.yaw = turnToward(w.yaw, radial.Heading(), w.cfg.TurnRate*dt)
}

func (w *Wraith) chase(dt float64) {
	w.moveToward(w.playerPos, w.speed()*dt, dt)
}

func (w *Wraith) transition(to WraithState) {
	from := w.state
	if from == to {
		return
	}
	w.state = to
	if from == WraithCombat && w.charging {
		w.charging = false
		w.log.Debug().Msg("mortar charge aborted")
	}
	w.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state")
	for _, fn := range w.onStateChange {
		notify(w.log, "wraith_state", func() { fn(from, to) })
	}
}

// destroy is terminal: shells are dropped and listeners told once.
func (w *Wraith) destroy() {
	if w.state == WraithDestroyed {
		return
	}
	w.mortars = nil
	w.charging = false
	w.transition(WraithDestroyed)
	w.effects.SpawnExplosion(w.pos, w.cfg.MortarRadius)
	ev := DestroyedEvent{ID: w.id, Position: w.pos, Hijacked: w.hijacked}
	for _, fn := range w.onDestroyed {
		notify(w.log, "wraith_destroyed", func() { fn(ev) })
	}
}
