package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// SpeakerMarcus is the speaker label used for the companion's voice lines.
const SpeakerMarcus = "Marcus"

// MarkerKind identifies a world-space marker drawn by the presentation layer.
type MarkerKind int

const (
	MarkerHold MarkerKind = iota
	MarkerAttack
	MarkerSuppress
	MarkerScout
	MarkerFlank
)

func (m MarkerKind) String() string {
	switch m {
	case MarkerHold:
		return "hold"
	case MarkerAttack:
		return "attack"
	case MarkerSuppress:
		return "suppress"
	case MarkerScout:
		return "scout"
	case MarkerFlank:
		return "flank"
	default:
		return "unknown"
	}
}

// Presenter receives dialogue, HUD notifications and markers. Controllers
// call it; they never touch UI state themselves.
type Presenter interface {
	Say(speaker, line string)
	Notify(text string, d time.Duration)
	PlaceMarker(kind MarkerKind, pos Vec3)
	ClearMarker(kind MarkerKind)
}

// Effects receives cosmetic requests: explosions, shakes, decals.
type Effects interface {
	SpawnExplosion(pos Vec3, radius float64)
	ScreenShake(intensity float64)
	SpawnCrater(pos Vec3, radius float64)
	FlashDamage(id EntityID)
	MuzzleFlash(pos, dir Vec3)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) Say(string, string)           {}
func (NopPresenter) Notify(string, time.Duration) {}
func (NopPresenter) PlaceMarker(MarkerKind, Vec3) {}
func (NopPresenter) ClearMarker(MarkerKind)       {}

// NopEffects discards everything.
type NopEffects struct{}

func (NopEffects) SpawnExplosion(Vec3, float64) {}
func (NopEffects) ScreenShake(float64)          {}
func (NopEffects) SpawnCrater(Vec3, float64)    {}
func (NopEffects) FlashDamage(EntityID)         {}
func (NopEffects) MuzzleFlash(Vec3, Vec3)       {}

// Deps bundles the collaborators injected into every controller.
type Deps struct {
	Presenter  Presenter
	Effects    Effects
	Navigator  Navigator
	World      WorldQuery
	Difficulty Scaler
	Logger     zerolog.Logger
	Rand       *rand.Rand
}

// withDefaults fills unset collaborators with inert implementations so a
// zero Deps is usable in tests.
func (d Deps) withDefaults() Deps {
	if d.Presenter == nil {
		d.Presenter = NopPresenter{}
	}
	if d.Effects == nil {
		d.Effects = NopEffects{}
	}
	if d.Difficulty == nil {
		d.Difficulty = FlatScaler{}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(1)) // #nosec G404 -- gameplay jitter, not security
	}
	return d
}

// Scaler applies difficulty to base stats. Implementations decide how the
// difficulty level maps to multipliers.
type Scaler interface {
	Health(base float64) float64
	Damage(base float64) float64
	FireRate(base float64) float64
	DetectionRange(base float64) float64
}

// FlatScaler leaves every stat unchanged.
type FlatScaler struct{}

func (FlatScaler) Health(b float64) float64         { return b }
func (FlatScaler) Damage(b float64) float64         { return b }
func (FlatScaler) FireRate(b float64) float64       { return b }
func (FlatScaler) DetectionRange(b float64) float64 { return b }

// notify invokes a listener, recovering and logging a panic so one bad
// subscriber cannot stall the tick.
func notify(log zerolog.Logger, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", event).Err(fmt.Errorf("%v", r)).Msg("listener panicked")
		}
	}()
	fn()
}

// cooldownGate rate-limits an action on the simulation clock.
type cooldownGate struct {
	interval float64
	last     float64
	used     bool
}

// ready reports whether the gate is open at now without consuming it.
func (g *cooldownGate) ready(now float64) bool {
	return !g.used || now-g.last >= g.interval
}

// try consumes the gate if open.
func (g *cooldownGate) try(now float64) bool {
	if !g.ready(now) {
		return false
	}
	g.used = true
	g.last = now
	return true
}
