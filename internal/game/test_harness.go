package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// pickupRadius is how close the player must walk to take a collectible.
const pickupRadius = 1.5

// TestSim is a headless simulation harness. It owns the world registry, the
// companion and any hostile vehicles, and steps them in a fixed order with
// deterministic seeding and structured logging. The headless report and the
// sandbox viewer drive the same loop.
type TestSim struct {
	Width     float64
	Depth     float64
	obstacles []Rect
	NavGrid   *NavGrid
	World     *Registry
	Squad     *SquadCommandSystem
	Wraiths   []*Wraith
	SimLog    *SimLog
	Thoughts  *ThoughtLog
	Presenter *LogPresenter
	Effects   *SimEffects
	Tuning    Tuning

	difficulty Scaler
	logger     zerolog.Logger
	rng        *rand.Rand
	useNav     bool
	dt         float64

	tick int
	now  float64

	nextID    EntityID
	playerID  EntityID
	marcusID  EntityID
	playerVel Vec3
	playerFwd Vec3
	wraithIDs map[*Wraith]EntityID
	damage    map[EntityID]float64

	companionAt *Vec3
	wraithSpecs []wraithSpec
}

type wraithSpec struct {
	label     string
	pos       Vec3
	waypoints []Vec3
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map, obstacles, seed, tuning, logging: applied first
	simOptActor                       // player, hostiles, pickups: applied once the world exists
	simOptSystem                      // companion, vehicles: applied once actors are placed
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapSize sets the playfield extent on X and Z.
func WithMapSize(w, d float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Width = w
		ts.Depth = d
	}}
}

// WithObstacle adds a blocking footprint and enables the nav grid.
func WithObstacle(minX, minZ, maxX, maxZ float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.obstacles = append(ts.obstacles, Rect{MinX: minX, MinZ: minZ, MaxX: maxX, MaxZ: maxZ})
		ts.useNav = true
	}}
}

// WithNavMesh forces the nav grid on or off. Off means every route is a
// straight line.
func WithNavMesh(on bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.useNav = on }}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- test harness
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.SimLog = NewSimLog(v)
	}}
}

// WithTickRate sets how many ticks make one simulated second.
func WithTickRate(hz float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		if hz > 0 {
			ts.dt = 1 / hz
		}
	}}
}

// WithTuning replaces the controller tuning.
func WithTuning(t Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.Tuning = t }}
}

// WithDifficulty scales hostile stats.
func WithDifficulty(s Scaler) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.difficulty = s }}
}

// WithLogger routes controller logs to l.
func WithLogger(l zerolog.Logger) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.logger = l }}
}

// WithPlayer places the player.
func WithPlayer(x, z float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.World.Mutate(ts.playerID, func(e *Entity) { e.Position = V3(x, 0, z) })
	}}
}

// WithPlayerVelocity makes the player walk at a constant velocity.
func WithPlayerVelocity(vx, vz float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) { ts.SetPlayerVelocity(V3(vx, 0, vz)) }}
}

// WithEnemy adds a hostile infantry unit.
func WithEnemy(x, z, hp float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.AddEntity(Entity{Position: V3(x, 0, z), Tags: TagEnemy, Health: &Health{Current: hp, Max: hp}})
	}}
}

// WithBoss adds a boss-tagged hostile.
func WithBoss(x, z, hp float64) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.AddEntity(Entity{Position: V3(x, 0, z), Tags: TagEnemy | TagBoss, Health: &Health{Current: hp, Max: hp}})
	}}
}

// WithCollectible adds a pickup of the given kind.
func WithCollectible(x, z float64, kind string) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.AddEntity(Entity{Position: V3(x, 0, z), Tags: TagCollectible, CollectibleKind: kind})
	}}
}

// WithSecret adds a hidden pickup.
func WithSecret(x, z float64, kind string) SimOption {
	return SimOption{simOptActor, func(ts *TestSim) {
		ts.AddEntity(Entity{Position: V3(x, 0, z), Tags: TagSecret, CollectibleKind: kind})
	}}
}

// WithCompanion spawns Marcus at (x,z).
func WithCompanion(x, z float64) SimOption {
	return SimOption{simOptSystem, func(ts *TestSim) {
		p := V3(x, 0, z)
		ts.companionAt = &p
	}}
}

// WithWraith spawns a hostile vehicle patrolling the given waypoints.
func WithWraith(x, z float64, waypoints ...Vec3) SimOption {
	return SimOption{simOptSystem, func(ts *TestSim) {
		ts.wraithSpecs = append(ts.wraithSpecs, wraithSpec{
			label:     fmt.Sprintf("W%d", len(ts.wraithSpecs)+1),
			pos:       V3(x, 0, z),
			waypoints: waypoints,
		})
	}}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (map, obstacles, seed, tuning, verbose)
//  2. Build world, sinks and NavGrid
//  3. Actors
//  4. Companion and vehicle specs, then spawn them
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		Width:      200,
		Depth:      200,
		SimLog:     NewSimLog(false),
		Thoughts:   NewThoughtLog(),
		Tuning:     DefaultTuning(),
		difficulty: FlatScaler{},
		logger:     zerolog.Nop(),
		rng:        rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
		dt:         1.0 / 10,
		playerFwd:  V3(0, 0, 1),
		wraithIDs:  make(map[*Wraith]EntityID),
		damage:     make(map[EntityID]float64),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	ts.World = NewRegistry()
	ts.Presenter = &LogPresenter{ts: ts, Markers: make(map[MarkerKind]Vec3)}
	ts.Effects = &SimEffects{ts: ts}
	if ts.useNav {
		ts.NavGrid = NewNavGrid(ts.Width, ts.Depth, ts.obstacles, 1)
	}
	ts.playerID = ts.AddEntity(Entity{Label: "Player", Tags: TagPlayer, Health: &Health{Current: 100, Max: 100}})

	for _, o := range opts {
		if o.kind == simOptActor {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptSystem {
			o.fn(ts)
		}
	}

	if ts.companionAt != nil {
		ts.marcusID = ts.AddEntity(Entity{
			Label:    SpeakerMarcus,
			Position: *ts.companionAt,
			Tags:     TagAlly,
			Health:   &Health{Current: 100, Max: 100},
		})
		ts.Squad = NewSquadCommandSystem(ts.Tuning, *ts.companionAt, ts.deps("squad"))
		ts.subscribeSquad()
	}
	for _, spec := range ts.wraithSpecs {
		ts.spawnWraith(spec)
	}
	return ts
}

// deps builds a controller's collaborators. Each controller gets its own
// rng stream derived from the sim seed.
func (ts *TestSim) deps(component string) Deps {
	d := Deps{
		Presenter:  ts.Presenter,
		Effects:    ts.Effects,
		World:      ts.World,
		Difficulty: ts.difficulty,
		Logger:     ts.logger.With().Str("sim", component).Logger(),
		Rand:       rand.New(rand.NewSource(ts.rng.Int63())), // #nosec G404 -- gameplay jitter
	}
	if ts.NavGrid != nil {
		d.Navigator = ts.NavGrid
	}
	return d
}

func (ts *TestSim) spawnWraith(spec wraithSpec) {
	w := NewWraith(0, spec.label, spec.pos, spec.waypoints, ts.Tuning.Wraith, ts.deps(spec.label))
	h := w.Health()
	id := ts.AddEntity(Entity{
		Label:    spec.label,
		Position: spec.pos,
		Tags:     TagEnemy | TagVehicle,
		Health:   &h,
	})
	w.id = id
	ts.wraithIDs[w] = id
	ts.Wraiths = append(ts.Wraiths, w)

	w.OnStateChange(func(from, to WraithState) {
		ts.SimLog.Add(ts.tick, spec.label, "hostile", "wraith", "state", fmt.Sprintf("%s → %s", from, to), 0)
	})
	w.OnMortarLaunched(func(m *MortarProjectile) {
		ts.SimLog.Add(ts.tick, spec.label, "hostile", "wraith", "mortar_launch",
			fmt.Sprintf("aim (%.1f,%.1f)", m.Target.X, m.Target.Z), m.FlightTime)
	})
	w.OnDestroyed(func(e DestroyedEvent) {
		ts.SimLog.Add(ts.tick, spec.label, "hostile", "wraith", "destroyed", fmt.Sprintf("hijacked=%v", e.Hijacked), 0)
	})
}

func (ts *TestSim) subscribeSquad() {
	sq := ts.Squad
	sq.Authority.OnIssued(func(d Directive) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "command", "issued", d.Kind.String(), d.ExpiresAt)
	})
	sq.Authority.OnExpired(func(d Directive) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "command", "expired", d.Kind.String(), 0)
	})
	sq.Authority.OnCancelled(func(d Directive) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "command", "cancelled", d.Kind.String(), 0)
	})
	sq.Authority.OnRejected(func(k DirectiveKind, reason string) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "command", "rejected", k.String()+": "+reason, 0)
	})
	sq.Scout.OnStateChange(func(from, to ScoutState) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "scout", "state", fmt.Sprintf("%s → %s", from, to), 0)
	})
	sq.Scout.OnIntel(func(r IntelReport) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "intel", r.Kind.String(), r.Description, float64(r.EnemyCount))
	})
	sq.Scout.OnComplete(func(m ScoutMission) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "scout", "complete", m.Summary, float64(len(m.CollectedIntel)))
	})
	sq.Brain.OnModeChange(func(from, to SteeringMode) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "steer", "mode_change", fmt.Sprintf("%s → %s", from, to), 0)
	})
	sq.Brain.OnTargetCallout(func(prev, next EntityID) {
		ts.SimLog.Add(ts.tick, SpeakerMarcus, "ally", "target", "switch", fmt.Sprintf("%d → %d", prev, next), float64(next))
	})
}

// AddEntity registers e with a fresh ID and returns it.
func (ts *TestSim) AddEntity(e Entity) EntityID {
	ts.nextID++
	e.ID = ts.nextID
	if e.Label == "" {
		e.Label = fmt.Sprintf("E%d", e.ID)
	}
	ts.World.Put(e)
	return e.ID
}

func (ts *TestSim) PlayerID() EntityID    { return ts.playerID }
func (ts *TestSim) MarcusID() EntityID    { return ts.marcusID }
func (ts *TestSim) CurrentTick() int      { return ts.tick }
func (ts *TestSim) Now() float64          { return ts.now }
func (ts *TestSim) TickDuration() float64 { return ts.dt }

// Obstacles returns the blocking footprints placed with WithObstacle.
func (ts *TestSim) Obstacles() []Rect { return append([]Rect(nil), ts.obstacles...) }

// Player returns the player entity.
func (ts *TestSim) Player() (Entity, bool) { return ts.World.Get(ts.playerID) }

// SetPlayerVelocity changes the player's walking velocity. A non-zero
// velocity also turns the player to face it.
func (ts *TestSim) SetPlayerVelocity(v Vec3) {
	ts.playerVel = v.Flat()
	if f := ts.playerVel.Normalize(); !f.IsZero() {
		ts.playerFwd = f
	}
}

// SetPlayerFacing turns the player without moving.
func (ts *TestSim) SetPlayerFacing(f Vec3) {
	if n := f.Flat().Normalize(); !n.IsZero() {
		ts.playerFwd = n
	}
}

// PlayerFacing is the player's unit forward vector.
func (ts *TestSim) PlayerFacing() Vec3 { return ts.playerFwd }

// MovePlayer teleports the player.
func (ts *TestSim) MovePlayer(p Vec3) {
	ts.World.Mutate(ts.playerID, func(e *Entity) { e.Position = p })
}

// Issue gives Marcus an order through the companion facade.
func (ts *TestSim) Issue(kind DirectiveKind, target EntityID, pos *Vec3) bool {
	if ts.Squad == nil {
		return false
	}
	ts.syncWorld()
	return ts.Squad.IssueCommand(kind, target, pos)
}

// DamageWraith hits vehicle i with amount from a source at from.
func (ts *TestSim) DamageWraith(i int, amount float64, from Vec3) float64 {
	w := ts.Wraiths[i]
	was := w.IsHijackable()
	dealt := w.ApplyDamage(amount, from.Sub(w.Position()))
	ts.syncWraith(w)
	ts.SimLog.Add(ts.tick, w.Label(), "hostile", "damage", "taken", fmt.Sprintf("%.1f", dealt), dealt)
	if !was && w.IsHijackable() {
		ts.SimLog.Add(ts.tick, w.Label(), "hostile", "wraith", "hijackable",
			fmt.Sprintf("hp %.0f", w.Health().Current), w.Health().Fraction())
	}
	return dealt
}

// DamageTaken returns the total damage applied to id so far.
func (ts *TestSim) DamageTaken(id EntityID) float64 { return ts.damage[id] }

// RunTicks advances the simulation n ticks, logging events to SimLog.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.runOneTick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.runOneTick()
		if predicate(ts) {
			return ts.tick
		}
	}
	return -1
}

// Step advances exactly one tick.
func (ts *TestSim) Step() { ts.runOneTick() }

// simFrame is the per-tick state compared to detect changes worth logging.
type simFrame struct {
	order    string
	target   EntityID
	playerHP float64
	marcusHP float64
}

func (ts *TestSim) frame() simFrame {
	var f simFrame
	if ts.Squad != nil {
		if d, ok := ts.Squad.ActiveCommand(); ok {
			f.order = d.Kind.String()
		}
		f.target = ts.Squad.Brain.CurrentTarget()
	}
	if p, ok := ts.World.Get(ts.playerID); ok {
		f.playerHP = p.Health.Current
	}
	if m, ok := ts.World.Get(ts.marcusID); ok {
		f.marcusHP = m.Health.Current
	}
	return f
}

// runOneTick: player motion, world sync, orders, recon and steering,
// vehicles, damage, then change logging.
func (ts *TestSim) runOneTick() {
	ts.tick++
	ts.now += ts.dt
	tick := ts.tick
	prev := ts.frame()

	// 1. PLAYER
	ts.World.Mutate(ts.playerID, func(e *Entity) {
		if e.IsAlive() {
			e.Position = e.Position.Add(ts.playerVel.Scale(ts.dt))
			e.Velocity = ts.playerVel
		} else {
			e.Velocity = Vec3{}
		}
	})

	ts.collectPickups()

	// 2. WORLD SYNC
	ts.syncWorld()

	// 3+4. ORDERS, RECON, STEERING
	if sq := ts.Squad; sq != nil {
		sq.Tick(ts.now)
		out := sq.SteeringMovementVector(ts.dt)
		ts.World.Mutate(ts.marcusID, func(e *Entity) {
			e.Position = sq.Brain.Position()
			e.Velocity = out.Velocity
		})
		ts.SimLog.AddVerbose(tick, SpeakerMarcus, "ally", "steer", "position",
			fmt.Sprintf("(%.1f,%.1f)", out.Velocity.X, out.Velocity.Z), out.Velocity.Len())
	}

	// 5. VEHICLES
	var events []DamageEvent
	for _, w := range ts.Wraiths {
		events = append(events, w.Update(ts.dt)...)
		ts.syncWraith(w)
	}

	// 6. DAMAGE
	for _, ev := range events {
		dealt := ts.World.ApplyDamage(ev.Target, ev.Amount)
		if dealt <= 0 {
			continue
		}
		ts.damage[ev.Target] += dealt
		e, _ := ts.World.Get(ev.Target)
		ts.SimLog.Add(tick, e.Label, sideOf(e), "damage", ev.Weapon, fmt.Sprintf("%.1f from %d", dealt, ev.Source), dealt)
	}

	// --- Post-tick logging ---
	cur := ts.frame()
	if cur.order != prev.order {
		ts.SimLog.Add(tick, SpeakerMarcus, "ally", "command", "order_change",
			fmt.Sprintf("%s → %s", orNone(prev.order), orNone(cur.order)), 0)
	}
	if cur.target != prev.target {
		ts.SimLog.Add(tick, SpeakerMarcus, "ally", "target", "current",
			fmt.Sprintf("%d → %d", prev.target, cur.target), float64(cur.target))
	}
	if cur.playerHP <= 0 && prev.playerHP > 0 {
		ts.SimLog.Add(tick, "Player", "player", "damage", "killed", "player down", 0)
	}
	if cur.marcusHP <= 0 && prev.marcusHP > 0 && ts.marcusID != 0 {
		ts.SimLog.Add(tick, SpeakerMarcus, "ally", "damage", "killed", "Marcus down", 0)
	}
	if p, ok := ts.World.Get(ts.playerID); ok {
		ts.SimLog.AddVerbose(tick, "Player", "player", "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", p.Position.X, p.Position.Z), 0)
	}
}

// collectPickups removes collectibles and secrets the living player stands
// on.
func (ts *TestSim) collectPickups() {
	p, ok := ts.World.Get(ts.playerID)
	if !ok || !p.IsAlive() {
		return
	}
	for _, e := range ts.World.EntitiesInRadius(p.Position, pickupRadius, func(e Entity) bool {
		return e.Has(TagCollectible) || e.Has(TagSecret)
	}) {
		ts.World.Remove(e.ID)
		ts.SimLog.Add(ts.tick, "Player", "player", "world", "pickup", e.CollectibleKind, float64(e.ID))
	}
}

// syncWorld pushes fresh snapshots into the companion and the vehicles.
func (ts *TestSim) syncWorld() {
	player, _ := ts.World.Get(ts.playerID)
	if ts.Squad != nil {
		ts.Squad.UpdatePlayerState(player.Position, ts.playerFwd, player.Velocity)
		ts.Squad.SetEnemies(ts.World.Select(func(e Entity) bool { return e.Has(TagEnemy) && e.IsAlive() }))
		ts.Squad.SetCollectibles(ts.World.Select(func(e Entity) bool {
			return e.Has(TagCollectible) || e.Has(TagSecret)
		}))
	}
	for _, w := range ts.Wraiths {
		w.UpdatePlayerState(ts.playerID, player.Position, player.Velocity, player.IsAlive())
	}
}

// syncWraith mirrors a vehicle's pose and health into its registry entry.
// A hijacked vehicle changes sides.
func (ts *TestSim) syncWraith(w *Wraith) {
	ts.World.Mutate(ts.wraithIDs[w], func(e *Entity) {
		e.Position = w.Position()
		h := w.Health()
		e.Health = &h
		if w.Hijacked() {
			e.Tags = e.Tags&^TagEnemy | TagAlly
		}
	})
}

func sideOf(e Entity) string {
	switch {
	case e.Has(TagPlayer):
		return "player"
	case e.Has(TagAlly):
		return "ally"
	case e.Has(TagEnemy):
		return "hostile"
	default:
		return "--"
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// --- presentation and effects sinks ---

// LogPresenter routes dialogue into the ThoughtLog and everything into the
// SimLog. Markers are kept for the viewer.
type LogPresenter struct {
	ts          *TestSim
	Markers     map[MarkerKind]Vec3
	Notice      string
	NoticeUntil float64
}

func (p *LogPresenter) Say(speaker, line string) {
	p.ts.Thoughts.Add(p.ts.tick, speaker, line)
	p.ts.SimLog.Add(p.ts.tick, speaker, "ally", "voice", "say", line, 0)
}

func (p *LogPresenter) Notify(text string, d time.Duration) {
	p.Notice = text
	p.NoticeUntil = p.ts.now + d.Seconds()
	p.ts.Thoughts.Add(p.ts.tick, "HUD", text)
	p.ts.SimLog.Add(p.ts.tick, "--", "--", "ui", "notify", text, d.Seconds())
}

func (p *LogPresenter) PlaceMarker(kind MarkerKind, pos Vec3) {
	p.Markers[kind] = pos
	p.ts.SimLog.AddVerbose(p.ts.tick, "--", "--", "ui", "marker", fmt.Sprintf("%s at (%.1f,%.1f)", kind, pos.X, pos.Z), 0)
}

func (p *LogPresenter) ClearMarker(kind MarkerKind) {
	delete(p.Markers, kind)
}

// FxEvent is one cosmetic request, kept for the viewer to animate.
type FxEvent struct {
	Tick      int
	Kind      string // explosion, shake, crater, flash, muzzle
	Position  Vec3
	Direction Vec3
	Magnitude float64
	Target    EntityID
}

// SimEffects buffers cosmetic requests until the viewer drains them.
type SimEffects struct {
	ts     *TestSim
	events []FxEvent
	Counts map[string]int
}

func (fx *SimEffects) add(ev FxEvent) {
	ev.Tick = fx.ts.tick
	if fx.Counts == nil {
		fx.Counts = make(map[string]int)
	}
	fx.Counts[ev.Kind]++
	// The headless report never drains; keep the buffer bounded.
	if len(fx.events) >= 256 {
		fx.events = fx.events[1:]
	}
	fx.events = append(fx.events, ev)
}

func (fx *SimEffects) SpawnExplosion(pos Vec3, radius float64) {
	fx.add(FxEvent{Kind: "explosion", Position: pos, Magnitude: radius})
	fx.ts.SimLog.Add(fx.ts.tick, "--", "--", "fx", "explosion", fmt.Sprintf("(%.1f,%.1f) r=%.0f", pos.X, pos.Z, radius), radius)
}

func (fx *SimEffects) ScreenShake(intensity float64) {
	fx.add(FxEvent{Kind: "shake", Magnitude: intensity})
	fx.ts.SimLog.Add(fx.ts.tick, "--", "--", "fx", "shake", fmt.Sprintf("%.2f", intensity), intensity)
}

func (fx *SimEffects) SpawnCrater(pos Vec3, radius float64) {
	fx.add(FxEvent{Kind: "crater", Position: pos, Magnitude: radius})
}

func (fx *SimEffects) FlashDamage(id EntityID) {
	fx.add(FxEvent{Kind: "flash", Target: id})
}

func (fx *SimEffects) MuzzleFlash(pos, dir Vec3) {
	fx.add(FxEvent{Kind: "muzzle", Position: pos, Direction: dir})
}

// Drain returns and clears buffered events.
func (fx *SimEffects) Drain() []FxEvent {
	out := fx.events
	fx.events = nil
	return out
}

// --- snapshots ---

// SimSnapshot captures a lightweight state summary.
type SimSnapshot struct {
	Tick    int
	Now     float64
	Actors  []ActorSnapshot
	Order   string
	Mode    string
	Scout   string
	Wraiths []WraithSnapshot
}

// ActorSnapshot is a lightweight copy of an entity at a tick.
type ActorSnapshot struct {
	ID     EntityID
	Label  string
	Side   string
	X, Z   float64
	Health float64
}

// WraithSnapshot is a lightweight copy of a vehicle at a tick.
type WraithSnapshot struct {
	Label      string
	State      WraithState
	X, Z       float64
	Health     float64
	Hijackable bool
	Shells     int
}

// Snapshot returns the current state of every actor.
func (ts *TestSim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: ts.tick, Now: ts.now, Order: "none", Mode: "-", Scout: "-"}
	for _, e := range ts.World.Select(nil) {
		a := ActorSnapshot{ID: e.ID, Label: e.Label, Side: sideOf(e), X: e.Position.X, Z: e.Position.Z}
		if e.HasHealth() {
			a.Health = e.Health.Current
		}
		snap.Actors = append(snap.Actors, a)
	}
	if sq := ts.Squad; sq != nil {
		if d, ok := sq.ActiveCommand(); ok {
			snap.Order = d.Kind.String()
		}
		snap.Mode = sq.Brain.Mode().String()
		snap.Scout = sq.Scout.State().String()
	}
	for _, w := range ts.Wraiths {
		p := w.Position()
		snap.Wraiths = append(snap.Wraiths, WraithSnapshot{
			Label:      w.Label(),
			State:      w.State(),
			X:          p.X,
			Z:          p.Z,
			Health:     w.Health().Current,
			Hijackable: w.IsHijackable(),
			Shells:     len(w.Mortars()),
		})
	}
	return snap
}
