package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScoutState is the recon mission phase.
type ScoutState int

const (
	ScoutIdle ScoutState = iota
	ScoutMovingToPosition
	ScoutScanning
	ScoutReturning
	ScoutReporting
)

func (s ScoutState) String() string {
	switch s {
	case ScoutIdle:
		return "idle"
	case ScoutMovingToPosition:
		return "moving"
	case ScoutScanning:
		return "scanning"
	case ScoutReturning:
		return "returning"
	case ScoutReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// ScoutWaypoint is one stop on a recon route.
type ScoutWaypoint struct {
	Position     Vec3
	Scanned      bool
	Intel        []IntelReport
	ArrivalTime  float64
	HasArrived   bool
	ScanDuration float64
}

// ScoutMission is the full record of a recon run.
type ScoutMission struct {
	ID             string
	Waypoints      []ScoutWaypoint
	CurrentIndex   int
	CollectedIntel []IntelReport
	State          ScoutState
	StartedAt      float64
	ReportingSince float64
	Summary        string
}

// ScoutController runs recon missions: walk to each waypoint, scan, come
// back, report. Positions are pushed in; the steering brain does the moving.
type ScoutController struct {
	cfg       ScoutConfig
	presenter Presenter
	voice     *VoiceLines
	log       zerolog.Logger

	mission       ScoutMission
	now           float64
	completedAt   float64
	completedOnce bool
	voiceGate     cooldownGate
	reported      map[EntityID]bool

	agentPos     Vec3
	playerPos    Vec3
	enemies      []Entity
	collectibles []Entity

	onIntel       []func(IntelReport)
	onComplete    []func(ScoutMission)
	onStateChange []func(from, to ScoutState)
	onRejected    []func(reason string)
}

// NewScoutController builds an idle controller.
func NewScoutController(cfg ScoutConfig, deps Deps) *ScoutController {
	deps = deps.withDefaults()
	return &ScoutController{
		cfg:       cfg,
		presenter: deps.Presenter,
		voice:     NewVoiceLines(deps.Rand),
		log:       deps.Logger.With().Str("component", "scout").Logger(),
		voiceGate: cooldownGate{interval: secs(cfg.VoiceCooldown)},
	}
}

func (sc *ScoutController) OnIntel(fn func(IntelReport))     { sc.onIntel = append(sc.onIntel, fn) }
func (sc *ScoutController) OnComplete(fn func(ScoutMission)) { sc.onComplete = append(sc.onComplete, fn) }
func (sc *ScoutController) OnStateChange(fn func(from, to ScoutState)) {
	sc.onStateChange = append(sc.onStateChange, fn)
}
func (sc *ScoutController) OnRejected(fn func(reason string)) {
	sc.onRejected = append(sc.onRejected, fn)
}

func (sc *ScoutController) UpdateMarcusPosition(pos Vec3)  { sc.agentPos = pos }
func (sc *ScoutController) UpdatePlayerPosition(pos Vec3)  { sc.playerPos = pos }
func (sc *ScoutController) SetEnemies(enemies []Entity)    { sc.enemies = enemies }
func (sc *ScoutController) SetCollectibles(items []Entity) { sc.collectibles = items }

// State returns the current phase.
func (sc *ScoutController) State() ScoutState { return sc.mission.State }

// Busy is true whenever a mission is underway.
func (sc *ScoutController) Busy() bool { return sc.mission.State != ScoutIdle }

// Mission returns a copy of the current (or last reset) mission.
func (sc *ScoutController) Mission() ScoutMission {
	m := sc.mission
	m.Waypoints = append([]ScoutWaypoint(nil), m.Waypoints...)
	m.CollectedIntel = append([]IntelReport(nil), m.CollectedIntel...)
	return m
}

// Destination is where Marcus should be heading for the current phase.
func (sc *ScoutController) Destination() (Vec3, bool) {
	switch sc.mission.State {
	case ScoutMovingToPosition:
		return sc.mission.Waypoints[sc.mission.CurrentIndex].Position, true
	case ScoutReturning:
		return sc.playerPos, true
	}
	return Vec3{}, false
}

// StartScoutAhead starts a single-waypoint mission to target.
func (sc *ScoutController) StartScoutAhead(target Vec3) bool {
	return sc.StartMission([]Vec3{target})
}

// StartMission starts a mission through waypoints in order. The distance
// guard applies to the first waypoint.
func (sc *ScoutController) StartMission(waypoints []Vec3) bool {
	if reason := sc.checkStart(waypoints); reason != "" {
		sc.presenter.Notify(fmt.Sprintf("Scout rejected: %s", reason), 0)
		sc.log.Info().Str("reason", reason).Msg("scout mission rejected")
		for _, fn := range sc.onRejected {
			notify(sc.log, "scout_rejected", func() { fn(reason) })
		}
		return false
	}

	wps := make([]ScoutWaypoint, len(waypoints))
	for i, p := range waypoints {
		wps[i] = ScoutWaypoint{Position: p, ScanDuration: secs(sc.cfg.ScanDuration)}
	}
	sc.mission = ScoutMission{
		ID:        uuid.NewString(),
		Waypoints: wps,
		StartedAt: sc.now,
	}
	sc.reported = make(map[EntityID]bool)
	sc.presenter.PlaceMarker(MarkerScout, waypoints[0])
	sc.log.Info().Str("mission", sc.mission.ID).Int("waypoints", len(wps)).Msg("scout mission started")
	sc.setState(ScoutMovingToPosition)
	return true
}

// checkStart returns a rejection reason, or "" if a mission may start.
func (sc *ScoutController) checkStart(waypoints []Vec3) string {
	switch {
	case sc.Busy():
		return "busy"
	case sc.completedOnce && sc.now-sc.completedAt < secs(sc.cfg.Cooldown):
		return "cooldown"
	case len(waypoints) == 0:
		return "no_target"
	}
	// Bounds are measured from the player who gave the order.
	d := sc.playerPos.DistXZ(waypoints[0])
	switch {
	case d < sc.cfg.MinDistance:
		return "too_close"
	case d > sc.cfg.MaxDistance:
		return "too_far"
	}
	return ""
}

// CancelMission aborts the outbound leg and sends Marcus home. Ignored when
// idle or already on the way back.
func (sc *ScoutController) CancelMission() {
	switch sc.mission.State {
	case ScoutMovingToPosition, ScoutScanning:
		sc.log.Info().Str("mission", sc.mission.ID).Msg("scout mission cancelled")
		sc.setState(ScoutReturning)
	}
}

// Abort drops the mission on the spot with no report and no cooldown. Used
// when another order supersedes the recon.
func (sc *ScoutController) Abort() {
	if !sc.Busy() {
		return
	}
	sc.log.Info().Str("mission", sc.mission.ID).Str("state", sc.mission.State.String()).Msg("scout mission aborted")
	sc.presenter.ClearMarker(MarkerScout)
	sc.setState(ScoutIdle)
	sc.mission = ScoutMission{}
}

// Update advances the mission by dt seconds.
func (sc *ScoutController) Update(dt float64) {
	sc.now += dt
	m := &sc.mission

	switch m.State {
	case ScoutMovingToPosition:
		wp := &m.Waypoints[m.CurrentIndex]
		if sc.agentPos.DistXZ(wp.Position) < sc.cfg.ArrivalRadius {
			wp.HasArrived = true
			wp.ArrivalTime = sc.now
			sc.setState(ScoutScanning)
		}

	case ScoutScanning:
		wp := &m.Waypoints[m.CurrentIndex]
		sc.scan(wp)
		if sc.now-wp.ArrivalTime >= wp.ScanDuration {
			if len(wp.Intel) == 0 {
				sc.emit(wp, IntelReport{
					Kind:        IntelAreaClear,
					Position:    wp.Position,
					Description: "area clear",
					Timestamp:   sc.now,
				})
			}
			wp.Scanned = true
			if m.CurrentIndex+1 < len(m.Waypoints) {
				m.CurrentIndex++
				sc.presenter.PlaceMarker(MarkerScout, m.Waypoints[m.CurrentIndex].Position)
				sc.setState(ScoutMovingToPosition)
			} else {
				sc.setState(ScoutReturning)
			}
		}

	case ScoutReturning:
		if sc.agentPos.DistXZ(sc.playerPos) < sc.cfg.ReturnRadius {
			m.Summary = SummarizeIntel(m.CollectedIntel)
			m.ReportingSince = sc.now
			sc.presenter.Say(SpeakerMarcus, sc.voice.Report(m.Summary))
			sc.setState(ScoutReporting)
		}

	case ScoutReporting:
		if sc.now-m.ReportingSince >= secs(sc.cfg.ReportHold) {
			sc.complete()
		}
	}
}

// scan looks for new hostiles and pickups around the agent.
func (sc *ScoutController) scan(wp *ScoutWaypoint) {
	var visible []Entity
	for _, e := range sc.enemies {
		if e.IsAlive() && e.Has(TagEnemy) && e.Position.DistXZ(sc.agentPos) <= sc.cfg.DetectionRadius {
			visible = append(visible, e)
		}
	}
	for _, g := range groupByCell(visible, sc.cfg.GroupCellSize) {
		fresh := false
		for _, m := range g.members {
			if !sc.reported[m.ID] {
				fresh = true
				break
			}
		}
		if !fresh {
			continue
		}
		for _, m := range g.members {
			sc.reported[m.ID] = true
		}
		n := len(g.members)
		threat := classifyThreat(g.members, sc.cfg.ToughnessBaseline)
		kind := groupKind(n, threat, sc.cfg.DangerGroupSize)
		pos := g.centroid()
		sc.emit(wp, IntelReport{
			Kind:        kind,
			Position:    pos,
			Description: describeGroup(kind, n, threat, compassName(sc.playerPos, pos)),
			EnemyCount:  n,
			Threat:      threat,
			Timestamp:   sc.now,
			EntityIDs:   g.ids(),
		})
	}

	for _, c := range sc.collectibles {
		if sc.reported[c.ID] || c.Position.DistXZ(sc.agentPos) > sc.cfg.CollectibleRadius {
			continue
		}
		if !c.Has(TagCollectible) && !c.Has(TagSecret) {
			continue
		}
		sc.reported[c.ID] = true
		kind := IntelCollectible
		desc := "pickup: " + c.CollectibleKind
		if c.Has(TagSecret) {
			kind = IntelSecret
			desc = "hidden stash"
		}
		sc.emit(wp, IntelReport{
			Kind:            kind,
			Position:        c.Position,
			Description:     desc,
			Timestamp:       sc.now,
			CollectibleKind: c.CollectibleKind,
			EntityIDs:       []EntityID{c.ID},
		})
	}
}

// emit files a report on the waypoint and mission, shouts it if the voice
// gate allows, and notifies listeners.
func (sc *ScoutController) emit(wp *ScoutWaypoint, r IntelReport) {
	wp.Intel = append(wp.Intel, r)
	sc.mission.CollectedIntel = append(sc.mission.CollectedIntel, r)
	if sc.voiceGate.try(sc.now) {
		sc.presenter.Say(SpeakerMarcus, sc.voice.Intel(r))
	}
	metrics.intel(r.Kind)
	sc.log.Debug().Str("kind", r.Kind.String()).Int("count", r.EnemyCount).Msg("intel")
	for _, fn := range sc.onIntel {
		notify(sc.log, "intel", func() { fn(r) })
	}
}

func (sc *ScoutController) complete() {
	done := sc.Mission()
	sc.completedAt = sc.now
	sc.completedOnce = true
	sc.presenter.ClearMarker(MarkerScout)
	sc.log.Info().Str("mission", done.ID).Int("intel", len(done.CollectedIntel)).
		Str("summary", done.Summary).Msg("scout mission complete")
	sc.setState(ScoutIdle)
	done.State = ScoutIdle
	sc.mission = ScoutMission{}
	for _, fn := range sc.onComplete {
		notify(sc.log, "scout_complete", func() { fn(done) })
	}
}

func (sc *ScoutController) setState(to ScoutState) {
	from := sc.mission.State
	if from == to {
		return
	}
	sc.mission.State = to
	sc.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("scout state")
	for _, fn := range sc.onStateChange {
		notify(sc.log, "scout_state", func() { fn(from, to) })
	}
}
