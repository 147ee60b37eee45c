package game

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DirectiveKind is an order the player can give Marcus.
type DirectiveKind int

const (
	DirectiveFollowMe DirectiveKind = iota
	DirectiveHoldPosition
	DirectiveAttackTarget
	DirectiveSuppressingFire
	DirectiveRegroup
	DirectiveScoutAhead
	DirectiveFlankTarget
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveFollowMe:
		return "follow_me"
	case DirectiveHoldPosition:
		return "hold_position"
	case DirectiveAttackTarget:
		return "attack_target"
	case DirectiveSuppressingFire:
		return "suppressing_fire"
	case DirectiveRegroup:
		return "regroup"
	case DirectiveScoutAhead:
		return "scout_ahead"
	case DirectiveFlankTarget:
		return "flank_target"
	default:
		return "unknown"
	}
}

// needsTarget reports whether the directive is meaningless without a target.
func (k DirectiveKind) needsTarget() bool {
	return k == DirectiveAttackTarget || k == DirectiveFlankTarget
}

// FireMode is how the companion's weapon should behave.
type FireMode int

const (
	FireModeAuto FireMode = iota
	FireModeFocus
	FireModeSuppress
	FireModeHoldFire
)

func (f FireMode) String() string {
	switch f {
	case FireModeAuto:
		return "auto"
	case FireModeFocus:
		return "focus"
	case FireModeSuppress:
		return "suppress"
	case FireModeHoldFire:
		return "hold_fire"
	default:
		return "unknown"
	}
}

// Directive is a standing order. Times are seconds on the simulation clock.
type Directive struct {
	Kind              DirectiveKind
	IssuedAt          float64
	ExpiresAt         float64
	TargetEntity      EntityID
	TargetPosition    Vec3
	HasTargetPosition bool
	// Direction is the suppression bearing (refreshed every tick).
	Direction Vec3
	// Anchor is where HoldPosition was given.
	Anchor Vec3
}

// CommandAuthority holds Marcus's single active directive, enforces its
// expiry and derives per-mode movement overrides from it.
type CommandAuthority struct {
	cfg       CommandConfig
	presenter Presenter
	voice     *VoiceLines
	log       zerolog.Logger

	active    Directive
	hasActive bool
	now       float64
	ack       cooldownGate

	playerPos     Vec3
	playerForward Vec3
	playerVel     Vec3
	agentPos      Vec3
	enemies       []Entity

	onIssued    []func(Directive)
	onExpired   []func(Directive)
	onCancelled []func(Directive)
	onRejected  []func(DirectiveKind, string)
}

// NewCommandAuthority builds an authority with the given collaborators.
func NewCommandAuthority(cfg CommandConfig, deps Deps) *CommandAuthority {
	deps = deps.withDefaults()
	return &CommandAuthority{
		cfg:           cfg,
		presenter:     deps.Presenter,
		voice:         NewVoiceLines(deps.Rand),
		log:           deps.Logger.With().Str("component", "command").Logger(),
		ack:           cooldownGate{interval: secs(cfg.AckCooldown)},
		playerForward: V3(0, 0, 1),
	}
}

// OnIssued registers a listener for accepted directives.
func (ca *CommandAuthority) OnIssued(fn func(Directive)) { ca.onIssued = append(ca.onIssued, fn) }

// OnExpired registers a listener for directives that timed out.
func (ca *CommandAuthority) OnExpired(fn func(Directive)) { ca.onExpired = append(ca.onExpired, fn) }

// OnCancelled registers a listener for explicit cancellations.
func (ca *CommandAuthority) OnCancelled(fn func(Directive)) {
	ca.onCancelled = append(ca.onCancelled, fn)
}

// OnRejected registers a listener for refused orders.
func (ca *CommandAuthority) OnRejected(fn func(DirectiveKind, string)) {
	ca.onRejected = append(ca.onRejected, fn)
}

// UpdatePlayerState pushes the issuer's pose.
func (ca *CommandAuthority) UpdatePlayerState(pos, forward, vel Vec3) {
	ca.playerPos = pos
	if f := forward.Flat().Normalize(); !f.IsZero() {
		ca.playerForward = f
	}
	ca.playerVel = vel
}

// UpdateMarcusPosition pushes the companion's current position.
func (ca *CommandAuthority) UpdateMarcusPosition(pos Vec3) { ca.agentPos = pos }

// SetEnemies pushes the latest hostile snapshot used to resolve target
// entities.
func (ca *CommandAuthority) SetEnemies(enemies []Entity) { ca.enemies = enemies }

// Now returns the authority's clock.
func (ca *CommandAuthority) Now() float64 { return ca.now }

// Active returns a copy of the current directive.
func (ca *CommandAuthority) Active() (Directive, bool) {
	return ca.active, ca.hasActive
}

// Issue replaces the current directive. target may be zero and pos may be
// nil; AttackTarget and FlankTarget require one of them.
func (ca *CommandAuthority) Issue(kind DirectiveKind, target EntityID, pos *Vec3) bool {
	if kind.needsTarget() && target == 0 && pos == nil {
		ca.Reject(kind, "no_target")
		return false
	}

	d := Directive{
		Kind:         kind,
		IssuedAt:     ca.now,
		ExpiresAt:    ca.now + secs(ca.cfg.Duration),
		TargetEntity: target,
		Anchor:       ca.agentPos,
	}
	if pos != nil {
		d.TargetPosition = *pos
		d.HasTargetPosition = true
	} else if e, ok := findEntity(ca.enemies, target); ok {
		d.TargetPosition = e.Position
		d.HasTargetPosition = true
	}
	if kind == DirectiveHoldPosition && pos != nil {
		d.Anchor = *pos
	}
	if kind == DirectiveSuppressingFire {
		d.Direction = ca.playerForward
		if !d.HasTargetPosition {
			d.TargetPosition = ca.playerPos.Add(ca.playerForward.Scale(ca.cfg.SuppressionRange))
			d.HasTargetPosition = true
		}
	}

	ca.clearMarkers()
	ca.active = d
	ca.hasActive = true
	ca.placeMarker(d)

	ca.presenter.Notify("Order: "+kind.String(), ca.cfg.NotifyDuration)
	if ca.ack.try(ca.now) {
		ca.presenter.Say(SpeakerMarcus, ca.voice.Ack(kind))
	}
	metrics.commandIssued(kind)
	ca.log.Debug().Str("kind", kind.String()).Float64("expires_at", d.ExpiresAt).Msg("directive issued")

	for _, fn := range ca.onIssued {
		notify(ca.log, "issued", func() { fn(d) })
	}
	return true
}

// Reject reports a refused order to the player and listeners.
func (ca *CommandAuthority) Reject(kind DirectiveKind, reason string) {
	ca.presenter.Notify(fmt.Sprintf("Cannot %s: %s", kind, reason), ca.cfg.NotifyDuration)
	ca.presenter.Say(SpeakerMarcus, ca.voice.Rejection(reason))
	ca.log.Info().Str("kind", kind.String()).Str("reason", reason).Msg("directive rejected")
	for _, fn := range ca.onRejected {
		notify(ca.log, "rejected", func() { fn(kind, reason) })
	}
}

// Cancel drops the current directive. No-op when nothing is active.
func (ca *CommandAuthority) Cancel() {
	if !ca.hasActive {
		return
	}
	d := ca.active
	ca.clear()
	ca.presenter.Notify("Order cancelled", ca.cfg.NotifyDuration)
	ca.log.Debug().Str("kind", d.Kind.String()).Msg("directive cancelled")
	for _, fn := range ca.onCancelled {
		notify(ca.log, "cancelled", func() { fn(d) })
	}
}

// Release clears the directive without a cancellation when it is of kind.
// Used when a directive completes on its own.
func (ca *CommandAuthority) Release(kind DirectiveKind) bool {
	if !ca.hasActive || ca.active.Kind != kind {
		return false
	}
	ca.clear()
	ca.log.Debug().Str("kind", kind.String()).Msg("directive released")
	return true
}

// Tick advances the clock, enforces expiry and refreshes per-mode state.
func (ca *CommandAuthority) Tick(now float64) {
	ca.now = now
	if !ca.hasActive {
		return
	}
	if now >= ca.active.ExpiresAt {
		d := ca.active
		ca.clear()
		ca.presenter.Notify("Order expired: "+d.Kind.String(), ca.cfg.NotifyDuration)
		ca.log.Debug().Str("kind", d.Kind.String()).Msg("directive expired")
		for _, fn := range ca.onExpired {
			notify(ca.log, "expired", func() { fn(d) })
		}
		return
	}

	switch ca.active.Kind {
	case DirectiveSuppressingFire:
		ca.active.Direction = ca.playerForward
		ca.active.TargetPosition = ca.playerPos.Add(ca.playerForward.Scale(ca.cfg.SuppressionRange))
		ca.presenter.PlaceMarker(MarkerSuppress, ca.active.TargetPosition)
	case DirectiveAttackTarget, DirectiveFlankTarget:
		if e, ok := findEntity(ca.enemies, ca.active.TargetEntity); ok && e.IsAlive() {
			ca.active.TargetPosition = e.Position
			ca.active.HasTargetPosition = true
		}
	case DirectiveRegroup:
		if ca.agentPos.DistXZ(ca.playerPos) < ca.cfg.RegroupNearDistance {
			ca.Issue(DirectiveFollowMe, 0, nil)
		}
	}
}

// MovementOverride returns where the directive wants the agent to go.
func (ca *CommandAuthority) MovementOverride(agentPos Vec3) (Vec3, bool) {
	if !ca.hasActive {
		return Vec3{}, false
	}
	d := ca.active
	switch d.Kind {
	case DirectiveFollowMe:
		return ca.playerPos.Sub(ca.playerForward.Scale(ca.cfg.FollowDistance)), true
	case DirectiveHoldPosition:
		if agentPos.DistXZ(d.Anchor) > ca.cfg.HoldTolerance {
			return d.Anchor, true
		}
		return agentPos, true
	case DirectiveAttackTarget:
		if !d.HasTargetPosition {
			return Vec3{}, false
		}
		dist := agentPos.DistXZ(d.TargetPosition)
		if dist <= ca.cfg.AttackCloseDistance {
			return Vec3{}, false
		}
		back := agentPos.Sub(d.TargetPosition).Flat().Normalize()
		return d.TargetPosition.Add(back.Scale(ca.cfg.AttackCloseDistance)), true
	case DirectiveSuppressingFire:
		return agentPos, true
	case DirectiveRegroup:
		return ca.playerPos, true
	}
	return Vec3{}, false
}

// TargetOverride returns the entity the directive wants engaged.
func (ca *CommandAuthority) TargetOverride() (EntityID, bool) {
	if !ca.hasActive || !ca.active.Kind.needsTarget() || ca.active.TargetEntity == 0 {
		return 0, false
	}
	return ca.active.TargetEntity, true
}

// FireModeOverride returns how the directive wants the weapon used.
func (ca *CommandAuthority) FireModeOverride() (FireMode, bool) {
	if !ca.hasActive {
		return FireModeAuto, false
	}
	switch ca.active.Kind {
	case DirectiveSuppressingFire:
		return FireModeSuppress, true
	case DirectiveAttackTarget, DirectiveFlankTarget:
		return FireModeFocus, true
	case DirectiveScoutAhead, DirectiveRegroup:
		return FireModeHoldFire, true
	}
	return FireModeAuto, false
}

func (ca *CommandAuthority) clear() {
	ca.clearMarkers()
	ca.active = Directive{}
	ca.hasActive = false
}

func (ca *CommandAuthority) placeMarker(d Directive) {
	switch d.Kind {
	case DirectiveHoldPosition:
		ca.presenter.PlaceMarker(MarkerHold, d.Anchor)
	case DirectiveAttackTarget:
		if d.HasTargetPosition {
			ca.presenter.PlaceMarker(MarkerAttack, d.TargetPosition)
		}
	case DirectiveSuppressingFire:
		ca.presenter.PlaceMarker(MarkerSuppress, d.TargetPosition)
	case DirectiveFlankTarget:
		if d.HasTargetPosition {
			ca.presenter.PlaceMarker(MarkerFlank, d.TargetPosition)
		}
	}
}

func (ca *CommandAuthority) clearMarkers() {
	if !ca.hasActive {
		return
	}
	switch ca.active.Kind {
	case DirectiveHoldPosition:
		ca.presenter.ClearMarker(MarkerHold)
	case DirectiveAttackTarget:
		ca.presenter.ClearMarker(MarkerAttack)
	case DirectiveSuppressingFire:
		ca.presenter.ClearMarker(MarkerSuppress)
	case DirectiveFlankTarget:
		ca.presenter.ClearMarker(MarkerFlank)
	}
}
