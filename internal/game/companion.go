package game

import (
	"github.com/rs/zerolog"
)

// SquadCommandSystem wires the command authority, the scout controller and
// the steering brain into one companion. The host pushes world state in,
// calls Tick then SteeringMovementVector once per frame, and reads Marcus's
// motion back out.
type SquadCommandSystem struct {
	Authority *CommandAuthority
	Scout     *ScoutController
	Brain     *SteeringBrain

	log         zerolog.Logger
	hasNav      bool
	now         float64
	scoutReject string
}

// NewSquadCommandSystem builds the three controllers with shared deps and
// subscribes them to each other.
func NewSquadCommandSystem(t Tuning, marcusPos Vec3, deps Deps) *SquadCommandSystem {
	deps = deps.withDefaults()
	s := &SquadCommandSystem{
		Authority: NewCommandAuthority(t.Command, deps),
		Scout:     NewScoutController(t.Scout, deps),
		Brain:     NewSteeringBrain(t.Steering, marcusPos, deps),
		log:       deps.Logger.With().Str("component", "squad").Logger(),
		hasNav:    deps.Navigator != nil,
	}
	s.Authority.UpdateMarcusPosition(marcusPos)
	s.Scout.UpdateMarcusPosition(marcusPos)

	s.Authority.OnIssued(s.onIssued)
	s.Authority.OnExpired(s.onEnded)
	s.Authority.OnCancelled(s.onEnded)
	s.Scout.OnRejected(func(reason string) { s.scoutReject = reason })
	s.Scout.OnComplete(s.onScoutComplete)
	return s
}

// IssueCommand gives Marcus an order. ScoutAhead must first be accepted by
// the scout controller; pos overrides the default point ahead of the player.
// Any other order supersedes a running recon.
func (s *SquadCommandSystem) IssueCommand(kind DirectiveKind, target EntityID, pos *Vec3) bool {
	if kind == DirectiveScoutAhead {
		dest := s.Brain.ScoutAheadPoint()
		if pos != nil {
			dest = *pos
		}
		s.scoutReject = ""
		if !s.Scout.StartScoutAhead(dest) {
			s.Authority.Reject(kind, s.scoutReject)
			return false
		}
		return s.Authority.Issue(kind, target, &dest)
	}
	if kind.needsTarget() && target == 0 && pos == nil {
		s.Authority.Reject(kind, "no_target")
		return false
	}
	s.Scout.Abort()
	return s.Authority.Issue(kind, target, pos)
}

// MoveTo sends Marcus to dest along the nav grid. The standing order, if
// any, resumes on arrival. Refused while a recon is running.
func (s *SquadCommandSystem) MoveTo(dest Vec3) bool {
	if s.Scout.Busy() {
		return false
	}
	s.Brain.StartPath(dest)
	s.log.Debug().Float64("x", dest.X).Float64("z", dest.Z).Msg("move to")
	return true
}

// CancelCommand drops the current order. A running recon turns for home.
func (s *SquadCommandSystem) CancelCommand() { s.Authority.Cancel() }

// ActiveCommand returns the current directive, if any.
func (s *SquadCommandSystem) ActiveCommand() (Directive, bool) { return s.Authority.Active() }

func (s *SquadCommandSystem) MovementOverride() (Vec3, bool) {
	return s.Authority.MovementOverride(s.Brain.Position())
}

func (s *SquadCommandSystem) TargetOverride() (EntityID, bool)   { return s.Authority.TargetOverride() }
func (s *SquadCommandSystem) FireModeOverride() (FireMode, bool) { return s.Authority.FireModeOverride() }

// UpdatePlayerState pushes the player's pose to every controller.
func (s *SquadCommandSystem) UpdatePlayerState(pos, forward, vel Vec3) {
	s.Authority.UpdatePlayerState(pos, forward, vel)
	s.Scout.UpdatePlayerPosition(pos)
	s.Brain.UpdatePlayerState(pos, forward, vel)
}

// UpdateMarcusPosition teleports Marcus, e.g. on respawn.
func (s *SquadCommandSystem) UpdateMarcusPosition(pos Vec3) {
	s.Brain.SetPosition(pos)
	s.syncMarcus()
}

// SetEnemies pushes the hostile snapshot and reselects Marcus's target.
func (s *SquadCommandSystem) SetEnemies(enemies []Entity) {
	s.Authority.SetEnemies(enemies)
	s.Scout.SetEnemies(enemies)
	s.Brain.UpdateTargetSelection(enemies)
}

func (s *SquadCommandSystem) SetCollectibles(items []Entity) { s.Scout.SetCollectibles(items) }

// MarkTarget pins a target for Marcus regardless of score.
func (s *SquadCommandSystem) MarkTarget(id EntityID) { s.Brain.MarkTarget(id) }

// Tick advances the order and recon clocks to now (seconds).
func (s *SquadCommandSystem) Tick(now float64) {
	dt := now - s.now
	if dt < 0 {
		dt = 0
	}
	s.now = now
	s.syncMarcus()
	s.Authority.Tick(now)
	s.Scout.Update(dt)
	s.driveScout()
}

// SteeringMovementVector runs the brain for dt seconds and returns Marcus's
// motion for the frame.
func (s *SquadCommandSystem) SteeringMovementVector(dt float64) SteeringOutput {
	s.Brain.SetMovementOverride(s.Authority.MovementOverride(s.Brain.Position()))
	out := s.Brain.Update(dt)
	s.syncMarcus()

	// A finished route falls back to the standing order.
	if out.Mode == ModeIdle && !s.Scout.Busy() {
		if d, ok := s.Authority.Active(); ok && d.Kind != DirectiveScoutAhead {
			s.Brain.ResumeCommand()
		}
	}
	return out
}

func (s *SquadCommandSystem) syncMarcus() {
	p := s.Brain.Position()
	s.Authority.UpdateMarcusPosition(p)
	s.Scout.UpdateMarcusPosition(p)
}

// driveScout keeps the brain's route in step with the recon phase.
func (s *SquadCommandSystem) driveScout() {
	if !s.Scout.Busy() {
		return
	}
	path := s.Brain.Pathfinding()
	switch s.Scout.State() {
	case ScoutMovingToPosition:
		dest, _ := s.Scout.Destination()
		if !path.Active || path.Kind != PathScout || path.Destination != dest {
			s.Brain.StartScout(dest)
		}
	case ScoutScanning, ScoutReporting:
		if s.Brain.Mode() != ModeHold {
			s.Brain.Halt()
		}
	case ScoutReturning:
		if !path.Active || path.Kind != PathRegroup {
			s.Brain.StartRegroupPath()
		}
	}
}

func (s *SquadCommandSystem) onIssued(d Directive) {
	s.Brain.SetCommand(&d)
	switch d.Kind {
	case DirectiveScoutAhead:
		if dest, ok := s.Scout.Destination(); ok {
			s.Brain.StartScout(dest)
		}
	case DirectiveFlankTarget:
		if d.HasTargetPosition {
			s.Brain.StartFlankPath(d.TargetEntity, d.TargetPosition)
		}
	case DirectiveRegroup:
		if s.hasNav {
			s.Brain.StartRegroupPath()
		}
	}
}

// onEnded handles expiry and cancellation alike.
func (s *SquadCommandSystem) onEnded(d Directive) {
	s.Brain.SetCommand(nil)
	if d.Kind == DirectiveScoutAhead {
		s.Scout.CancelMission()
		s.driveScout()
	}
}

func (s *SquadCommandSystem) onScoutComplete(m ScoutMission) {
	s.Authority.Release(DirectiveScoutAhead)
	if d, ok := s.Authority.Active(); ok {
		s.Brain.SetCommand(&d)
	} else {
		s.Brain.SetCommand(nil)
	}
	s.log.Info().Str("mission", m.ID).Str("summary", m.Summary).Msg("recon debrief")
}
