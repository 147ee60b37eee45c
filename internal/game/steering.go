package game

import (
	"github.com/rs/zerolog"
)

// SteeringMode selects the behavior bundle the brain runs each tick.
type SteeringMode int

const (
	ModeIdle SteeringMode = iota
	ModeFollow
	ModeHold
	ModeAttack
	ModeSuppression
	ModeRegroup
	ModeFlank
	ModeScout
	ModeScoutFlank
	ModePathfinding
)

func (m SteeringMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeFollow:
		return "follow"
	case ModeHold:
		return "hold"
	case ModeAttack:
		return "attack"
	case ModeSuppression:
		return "suppression"
	case ModeRegroup:
		return "regroup"
	case ModeFlank:
		return "flank"
	case ModeScout:
		return "scout"
	case ModeScoutFlank:
		return "scout_flank"
	case ModePathfinding:
		return "pathfinding"
	default:
		return "unknown"
	}
}

// modeFor maps a directive to the mode that carries it out.
func modeFor(k DirectiveKind) SteeringMode {
	switch k {
	case DirectiveFollowMe:
		return ModeFollow
	case DirectiveHoldPosition:
		return ModeHold
	case DirectiveAttackTarget:
		return ModeAttack
	case DirectiveSuppressingFire:
		return ModeSuppression
	case DirectiveRegroup:
		return ModeRegroup
	case DirectiveScoutAhead:
		return ModeScout
	case DirectiveFlankTarget:
		return ModeFlank
	default:
		return ModeIdle
	}
}

// FlankSide is which side of the issuer the flank point sits on.
type FlankSide int

const (
	FlankLeft FlankSide = iota
	FlankRight
)

func (s FlankSide) String() string {
	if s == FlankRight {
		return "right"
	}
	return "left"
}

// PathKind records why a route was planned.
type PathKind int

const (
	PathDirect PathKind = iota
	PathScout
	PathFlank
	PathRegroup
)

func (k PathKind) String() string {
	switch k {
	case PathDirect:
		return "direct"
	case PathScout:
		return "scout"
	case PathFlank:
		return "flank"
	case PathRegroup:
		return "regroup"
	default:
		return "unknown"
	}
}

// FlankingState caches the last flank point so it is not recomputed every
// tick.
type FlankingState struct {
	Active         bool
	TargetPosition Vec3
	Side           FlankSide
	CalculatedAt   float64
	TargetID       EntityID
}

// PathfindingState is the route currently being followed. An empty Path
// with Active set means no route was available and the brain is heading
// straight for Destination.
type PathfindingState struct {
	Active        bool
	Path          []Vec3
	WaypointIndex int
	Destination   Vec3
	Kind          PathKind
}

// Direct reports whether the brain fell back to straight-line movement.
func (p PathfindingState) Direct() bool { return p.Active && len(p.Path) == 0 }

// SteeringOutput is the brain's per-tick result.
type SteeringOutput struct {
	Velocity        Vec3
	FacingDirection Vec3
	Mode            SteeringMode
	IsMoving        bool
}

// SteeringBrain turns the active directive into Marcus's motion. It is the
// only writer of his position.
type SteeringBrain struct {
	cfg       SteeringConfig
	nav       Navigator
	voice     *VoiceLines
	presenter Presenter
	log       zerolog.Logger
	deps      Deps

	mode   SteeringMode
	pos    Vec3
	vel    Vec3
	facing Vec3
	now    float64

	command     Directive
	hasCommand  bool
	override    Vec3
	hasOverride bool

	playerPos     Vec3
	playerForward Vec3
	playerVel     Vec3

	enemies       []Entity
	currentTarget EntityID
	markedTarget  EntityID
	callout       cooldownGate

	flank       FlankingState
	path        PathfindingState
	wanderAngle float64

	onTargetCallout []func(prev, next EntityID)
	onModeChange    []func(from, to SteeringMode)
}

// NewSteeringBrain places Marcus at pos in Idle mode.
func NewSteeringBrain(cfg SteeringConfig, pos Vec3, deps Deps) *SteeringBrain {
	deps = deps.withDefaults()
	return &SteeringBrain{
		cfg:           cfg,
		nav:           deps.Navigator,
		voice:         NewVoiceLines(deps.Rand),
		presenter:     deps.Presenter,
		log:           deps.Logger.With().Str("component", "steering").Logger(),
		deps:          deps,
		pos:           pos,
		facing:        V3(0, 0, 1),
		playerForward: V3(0, 0, 1),
		callout:       cooldownGate{interval: secs(cfg.CalloutCooldown)},
	}
}

func (b *SteeringBrain) OnTargetCallout(fn func(prev, next EntityID)) {
	b.onTargetCallout = append(b.onTargetCallout, fn)
}

func (b *SteeringBrain) OnModeChange(fn func(from, to SteeringMode)) {
	b.onModeChange = append(b.onModeChange, fn)
}

func (b *SteeringBrain) Mode() SteeringMode      { return b.mode }
func (b *SteeringBrain) Position() Vec3          { return b.pos }
func (b *SteeringBrain) Velocity() Vec3          { return b.vel }
func (b *SteeringBrain) Facing() Vec3            { return b.facing }
func (b *SteeringBrain) CurrentTarget() EntityID { return b.currentTarget }
func (b *SteeringBrain) MarkedTarget() EntityID  { return b.markedTarget }
func (b *SteeringBrain) Flanking() FlankingState { return b.flank }

// Pathfinding returns a copy of the route state.
func (b *SteeringBrain) Pathfinding() PathfindingState {
	p := b.path
	p.Path = append([]Vec3(nil), p.Path...)
	return p
}

// UpdatePlayerState pushes the issuer's pose.
func (b *SteeringBrain) UpdatePlayerState(pos, forward, vel Vec3) {
	b.playerPos = pos
	if f := forward.Flat().Normalize(); !f.IsZero() {
		b.playerForward = f
	}
	b.playerVel = vel
}

// SetMovementOverride is fed from the command authority every tick.
func (b *SteeringBrain) SetMovementOverride(p Vec3, ok bool) {
	b.override, b.hasOverride = p, ok
}

// SetCommand switches to the mode for d, or Idle when d is nil. Any route in
// progress is dropped.
func (b *SteeringBrain) SetCommand(d *Directive) {
	b.path = PathfindingState{}
	if d == nil {
		b.hasCommand = false
		b.flank.Active = false
		b.setMode(ModeIdle)
		return
	}
	b.command = *d
	b.hasCommand = true
	if d.Kind != DirectiveFlankTarget {
		b.flank.Active = false
	}
	if d.Kind == DirectiveAttackTarget && d.TargetEntity != 0 {
		b.MarkTarget(d.TargetEntity)
	}
	b.setMode(modeFor(d.Kind))
}

// ResumeCommand restores the mode of the held directive without replanning.
func (b *SteeringBrain) ResumeCommand() {
	if b.hasCommand {
		b.setMode(modeFor(b.command.Kind))
	}
}

// MarkTarget pins a target that wins selection while it stays alive.
func (b *SteeringBrain) MarkTarget(id EntityID) { b.markedTarget = id }

// UpdateTargetSelection picks the target to engage. A live marked target is
// kept; otherwise candidates are scored on proximity to the player, boss
// status and missing health.
func (b *SteeringBrain) UpdateTargetSelection(enemies []Entity) {
	b.enemies = enemies
	prev := b.currentTarget

	var next EntityID
	if b.markedTarget != 0 {
		if e, ok := findEntity(enemies, b.markedTarget); ok && e.IsAlive() {
			next = e.ID
		} else {
			b.markedTarget = 0
		}
	}
	if next == 0 {
		best := 0.0
		for _, e := range enemies {
			if !e.IsAlive() || !e.Has(TagEnemy) {
				continue
			}
			s := TargetScore(e, b.playerPos)
			if next == 0 || s > best {
				next, best = e.ID, s
			}
		}
	}
	b.currentTarget = next

	if prev != 0 && next != 0 && next != prev && b.callout.try(b.now) {
		tgt, _ := findEntity(enemies, next)
		b.presenter.Say(SpeakerMarcus, b.voice.TargetSwitch(tgt))
		b.log.Debug().Int("from", int(prev)).Int("to", int(next)).Msg("target switch")
		for _, fn := range b.onTargetCallout {
			notify(b.log, "target_callout", func() { fn(prev, next) })
		}
	}
}

// TargetScore ranks a candidate: closer to the player is better, bosses
// count double, wounded targets get a bonus.
func TargetScore(e Entity, playerPos Vec3) float64 {
	bossMul := 1.0
	if e.IsBoss() {
		bossMul = 2
	}
	return (100-e.Position.DistXZ(playerPos))*bossMul + (1-e.HealthFraction())*30
}

// ComputeFlankPosition returns a point beside the target, perpendicular to
// the target→player line, on the side opposite where the target sits in the
// player's view. The result is reused for the same target until the
// recompute interval has passed.
func (b *SteeringBrain) ComputeFlankPosition(id EntityID, targetPos Vec3) Vec3 {
	if b.flank.Active && b.flank.TargetID == id && b.now-b.flank.CalculatedAt < secs(b.cfg.FlankRecalc) {
		return b.flank.TargetPosition
	}

	toPlayer := b.playerPos.Sub(targetPos).Flat().Normalize()
	if toPlayer.IsZero() {
		toPlayer = b.playerForward.Scale(-1)
	}
	perp := toPlayer.PerpXZ()
	right := Vec3{X: b.playerForward.Z, Z: -b.playerForward.X}

	// Target right of the player's facing: go left, and vice versa. Dead
	// ahead defaults to left.
	wantRight := targetPos.Sub(b.playerPos).Flat().Dot(right) < 0
	if (perp.Dot(right) > 0) != wantRight {
		perp = perp.Scale(-1)
	}
	side := FlankLeft
	if wantRight {
		side = FlankRight
	}

	fp := targetPos.Flat().Add(perp.Scale(b.cfg.FlankDistance))
	b.flank = FlankingState{
		Active:         true,
		TargetPosition: fp,
		Side:           side,
		CalculatedAt:   b.now,
		TargetID:       id,
	}
	b.log.Debug().Str("side", side.String()).Float64("x", fp.X).Float64("z", fp.Z).Msg("flank point")
	return fp
}

// ScoutAheadPoint is the default scouting destination in front of the player.
func (b *SteeringBrain) ScoutAheadPoint() Vec3 {
	return b.playerPos.Add(b.playerForward.Scale(b.cfg.ScoutDistance))
}

// StartPath routes to dest in Pathfinding mode.
func (b *SteeringBrain) StartPath(dest Vec3) {
	b.plan(dest, PathDirect)
	b.setMode(ModePathfinding)
}

// StartScout routes to a scouting destination.
func (b *SteeringBrain) StartScout(dest Vec3) {
	b.plan(dest, PathScout)
	b.setMode(ModeScout)
}

// StartFlankPath routes to the flank point of a target.
func (b *SteeringBrain) StartFlankPath(id EntityID, targetPos Vec3) {
	fp := b.ComputeFlankPosition(id, targetPos)
	b.plan(fp, PathFlank)
	b.setMode(ModeScoutFlank)
}

// StartRegroupPath routes back to the player.
func (b *SteeringBrain) StartRegroupPath() {
	b.plan(b.playerPos, PathRegroup)
	b.setMode(ModePathfinding)
}

// plan asks the navigator for a route. No navigator or no route leaves an
// empty path, which is followed as a straight line.
func (b *SteeringBrain) plan(dest Vec3, kind PathKind) {
	var route []Vec3
	if b.nav != nil {
		route = b.nav.FindPath(b.pos, dest)
	}
	b.path = PathfindingState{
		Active:      true,
		Path:        route,
		Destination: dest,
		Kind:        kind,
	}
	b.log.Debug().Str("kind", kind.String()).Int("nodes", len(route)).Msg("path planned")
}

// Halt drops any route and stands still until told otherwise.
func (b *SteeringBrain) Halt() {
	b.path = PathfindingState{}
	b.setMode(ModeHold)
}

// SetPosition teleports Marcus. Only the host should call this, and only
// when spawning.
func (b *SteeringBrain) SetPosition(p Vec3) { b.pos = p }

// Update runs one tick of the active behavior, applies separation and the
// speed limits, and integrates position.
func (b *SteeringBrain) Update(dt float64) SteeringOutput {
	b.now += dt

	var desired Vec3
	switch b.mode {
	case ModeIdle:
		desired = b.idle()
	case ModeFollow:
		desired = b.follow()
	case ModeHold:
		desired = b.hold()
	case ModeAttack:
		desired = b.attack()
	case ModeSuppression:
		desired = Vec3{}
	case ModeRegroup:
		desired = b.arrive(b.playerPos)
	case ModeFlank:
		desired = b.flankSeek()
	case ModeScout, ModeScoutFlank, ModePathfinding:
		desired = b.followPath()
	}

	desired = desired.Add(b.separation()).Flat().ClampLen(b.cfg.MaxSpeed)
	if b.mode == ModeRegroup || (b.path.Active && b.path.Kind == PathRegroup) {
		desired = desired.Scale(b.cfg.RegroupSpeedMultiplier)
	}

	b.vel = desired
	b.pos = b.pos.Add(b.vel.Scale(dt))

	moving := b.vel.Len() > 0.05
	switch {
	case moving:
		b.facing = b.vel.Normalize()
	case b.mode == ModeSuppression && b.hasCommand && !b.command.Direction.IsZero():
		b.facing = b.command.Direction
	case b.mode == ModeAttack:
		if tp, ok := b.targetPosition(); ok {
			if f := tp.Sub(b.pos).Flat().Normalize(); !f.IsZero() {
				b.facing = f
			}
		}
	}

	return SteeringOutput{
		Velocity:        b.vel,
		FacingDirection: b.facing,
		Mode:            b.mode,
		IsMoving:        moving,
	}
}

// --- behaviors ---

// seek heads for p at full speed.
func (b *SteeringBrain) seek(p Vec3) Vec3 {
	return p.Sub(b.pos).Flat().Normalize().Scale(b.cfg.MaxSpeed)
}

// arrive heads for p, slowing linearly inside the arrive radius.
func (b *SteeringBrain) arrive(p Vec3) Vec3 {
	off := p.Sub(b.pos).Flat()
	d := off.Len()
	if d < 1e-6 {
		return Vec3{}
	}
	speed := b.cfg.MaxSpeed
	if d < b.cfg.ArriveRadius {
		speed *= d / b.cfg.ArriveRadius
	}
	return off.Scale(speed / d)
}

func (b *SteeringBrain) seekOrArrive(p Vec3) Vec3 {
	if b.pos.DistXZ(p) > b.cfg.ArriveRadius {
		return b.seek(p)
	}
	return b.arrive(p)
}

func (b *SteeringBrain) idle() Vec3 {
	if b.pos.DistXZ(b.playerPos) > b.cfg.IdleLeash {
		return b.arrive(b.playerPos).Scale(0.5)
	}
	b.wanderAngle = wrapAngle(b.wanderAngle + (b.deps.Rand.Float64()*2-1)*0.5)
	return HeadingVec(b.wanderAngle).Scale(b.cfg.WanderSpeed)
}

// follow is offset pursuit: match the player's velocity and close the
// remaining gap to the slot behind them with arrive damping.
func (b *SteeringBrain) follow() Vec3 {
	slot := b.playerPos.Sub(b.playerForward.Scale(b.cfg.FollowDistance))
	if b.hasOverride {
		slot = b.override
	}
	return b.playerVel.Flat().Add(b.arrive(slot))
}

func (b *SteeringBrain) hold() Vec3 {
	if !b.hasOverride || b.override.DistXZ(b.pos) < 1e-6 {
		return Vec3{}
	}
	return b.arrive(b.override)
}

func (b *SteeringBrain) targetPosition() (Vec3, bool) {
	if e, ok := findEntity(b.enemies, b.currentTarget); ok && b.currentTarget != 0 {
		return e.Position, true
	}
	if b.hasCommand && b.command.HasTargetPosition {
		return b.command.TargetPosition, true
	}
	return Vec3{}, false
}

// attack closes to the engagement band, backs off when too close and holds
// inside it.
func (b *SteeringBrain) attack() Vec3 {
	if b.hasOverride {
		return b.arrive(b.override)
	}
	tp, ok := b.targetPosition()
	if !ok {
		return Vec3{}
	}
	d := b.pos.DistXZ(tp)
	switch {
	case d > b.cfg.AttackMaxRange:
		return b.seek(tp)
	case d < b.cfg.AttackMinRange:
		away := b.pos.Sub(tp).Flat().Normalize()
		if away.IsZero() {
			away = b.playerForward.Scale(-1)
		}
		return b.arrive(tp.Add(away.Scale(b.cfg.AttackMinRange)))
	}
	return Vec3{}
}

func (b *SteeringBrain) flankSeek() Vec3 {
	var id EntityID
	tp, ok := Vec3{}, false
	if b.hasCommand {
		id = b.command.TargetEntity
		if e, found := findEntity(b.enemies, id); found && id != 0 {
			tp, ok = e.Position, true
		} else if b.command.HasTargetPosition {
			tp, ok = b.command.TargetPosition, true
		}
	}
	if !ok {
		return Vec3{}
	}
	return b.seekOrArrive(b.ComputeFlankPosition(id, tp))
}

// followPath walks the planned route. With no route it heads straight for
// the destination and counts arrival at twice the usual tolerance.
func (b *SteeringBrain) followPath() Vec3 {
	p := &b.path
	if !p.Active {
		b.setMode(ModeIdle)
		return Vec3{}
	}
	if len(p.Path) == 0 {
		if b.pos.DistXZ(p.Destination) < 2*b.cfg.PathArrival {
			b.finishPath()
			return Vec3{}
		}
		return b.seekOrArrive(p.Destination)
	}
	for p.WaypointIndex < len(p.Path) && b.pos.DistXZ(p.Path[p.WaypointIndex]) < b.cfg.PathArrival {
		p.WaypointIndex++
	}
	if p.WaypointIndex >= len(p.Path) {
		b.finishPath()
		return Vec3{}
	}
	node := p.Path[p.WaypointIndex]
	if p.WaypointIndex == len(p.Path)-1 {
		return b.seekOrArrive(node)
	}
	return b.seek(node)
}

func (b *SteeringBrain) finishPath() {
	b.log.Debug().Str("kind", b.path.Kind.String()).Msg("path complete")
	b.path = PathfindingState{}
	b.setMode(ModeIdle)
}

// separation pushes Marcus out of the player's personal space.
func (b *SteeringBrain) separation() Vec3 {
	away := b.pos.Sub(b.playerPos).Flat()
	d := away.Len()
	if d >= b.cfg.SeparationRadius || d < 1e-6 {
		return Vec3{}
	}
	return away.Scale(b.cfg.SeparationStrength * (1 - d/b.cfg.SeparationRadius) / d)
}

func (b *SteeringBrain) setMode(m SteeringMode) {
	if b.mode == m {
		return
	}
	from := b.mode
	b.mode = m
	b.log.Debug().Str("from", from.String()).Str("to", m.String()).Msg("steering mode")
	for _, fn := range b.onModeChange {
		notify(b.log, "mode_change", func() { fn(from, m) })
	}
}
