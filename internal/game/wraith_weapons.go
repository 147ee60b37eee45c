package game

import (
	"math"
	"time"
)

// Crater is a scorch mark left by a mortar. It fades out over the last
// part of its lifetime.
type Crater struct {
	Position Vec3
	Radius   float64
	Age      float64
	Lifetime float64
	Fade     float64
}

// Alpha is the crater's opacity in [0,1].
func (c Crater) Alpha() float64 {
	fadeStart := c.Lifetime - c.Fade
	if c.Age <= fadeStart || c.Fade <= 0 {
		return 1
	}
	return clamp01(1 - (c.Age-fadeStart)/c.Fade)
}

// scaleInterval converts a cooldown through the difficulty's fire-rate
// multiplier: a higher rate means a shorter wait.
func scaleInterval(d time.Duration, s Scaler) time.Duration {
	if d <= 0 {
		return d
	}
	rate := s.FireRate(1 / d.Seconds())
	if rate <= 0 {
		return d
	}
	return time.Duration(float64(time.Second) / rate)
}

func (w *Wraith) tickCraters(dt float64) {
	kept := w.craters[:0]
	for _, c := range w.craters {
		c.Age += dt
		if c.Age >= c.Lifetime {
			continue
		}
		kept = append(kept, c)
	}
	w.craters = kept
}

// cycleMortar runs cooldown, then charge, then launch.
func (w *Wraith) cycleMortar(dt float64) {
	if w.mortarCooldown > 0 {
		w.mortarCooldown -= dt
		return
	}
	if !w.charging {
		w.charging = true
		w.chargeTimer = secs(w.cfg.MortarCharge)
		w.log.Debug().Msg("mortar charging")
		return
	}
	w.chargeTimer -= dt
	if w.chargeTimer > 1e-9 {
		return
	}
	w.charging = false
	w.mortarCooldown = secs(w.cfg.MortarCooldown)
	w.launchMortar()
}

// ChargeProgress is how far the current mortar charge has built, in [0,1].
func (w *Wraith) ChargeProgress() float64 {
	if !w.charging {
		return 0
	}
	total := secs(w.cfg.MortarCharge)
	if total <= 0 {
		return 1
	}
	return clamp01(1 - w.chargeTimer/total)
}

func (w *Wraith) launchMortar() {
	flight := secs(w.cfg.MortarFlight)
	aim := PredictLead(w.playerPos, w.playerVel, flight)

	scatter := w.cfg.MortarScatter
	if w.IsDamaged() {
		scatter *= w.cfg.DamagedScatterMul
	}
	ang := w.rng.Float64() * 2 * math.Pi
	r := math.Sqrt(w.rng.Float64()) * scatter
	target := Vec3{X: aim.X + math.Cos(ang)*r, Y: w.playerPos.Y, Z: aim.Z + math.Sin(ang)*r}

	origin := w.pos.Add(Vec3{Y: w.cfg.MortarMuzzleHeight})
	m := NewMortarProjectile(origin, target, flight, w.cfg.MortarApex)
	m.Damage = w.cfg.MortarMaxDamage
	m.Radius = w.cfg.MortarRadius
	w.mortars = append(w.mortars, m)

	metrics.mortarLaunched(w.state)
	w.effects.MuzzleFlash(origin, Vec3{Y: 1})
	w.log.Debug().Float64("x", target.X).Float64("z", target.Z).Msg("mortar away")
	for _, fn := range w.onMortar {
		notify(w.log, "mortar_launched", func() { fn(m) })
	}
}

// advanceMortars flies every shell and detonates arrivals exactly once.
// Spent shells linger for the grace window before removal.
func (w *Wraith) advanceMortars(dt float64) []DamageEvent {
	var events []DamageEvent
	grace := secs(w.cfg.MortarGrace)
	kept := w.mortars[:0]
	for _, m := range w.mortars {
		m.Advance(dt)
		if m.Arrived() && m.MarkDetonated() {
			events = append(events, w.detonate(m)...)
		}
		if m.Expired(grace) {
			continue
		}
		kept = append(kept, m)
	}
	w.mortars = kept
	return events
}

// detonate applies linear-falloff splash to friendlies in the blast radius,
// shakes the camera by player proximity and leaves a crater.
func (w *Wraith) detonate(m *MortarProjectile) []DamageEvent {
	at := m.Target
	var victims []Entity
	if w.world != nil {
		victims = w.world.EntitiesInRadius(at, m.Radius, func(e Entity) bool {
			return e.IsAlive() && (e.Has(TagPlayer) || e.Has(TagAlly))
		})
	} else if w.playerKnown && w.playerPos.DistXZ(at) <= m.Radius {
		victims = []Entity{{ID: w.playerID, Position: w.playerPos, Tags: TagPlayer}}
	}

	events := make([]DamageEvent, 0, len(victims))
	for _, v := range victims {
		frac := clamp01(v.Position.DistXZ(at) / m.Radius)
		dmg := lerp(w.cfg.MortarMaxDamage, w.cfg.MortarMinDamage, frac)
		events = append(events, DamageEvent{
			Target:   v.ID,
			Source:   w.id,
			Amount:   dmg,
			Position: at,
			Weapon:   "mortar",
		})
		w.effects.FlashDamage(v.ID)
	}

	if d := w.playerPos.DistXZ(at); w.playerKnown && d < w.cfg.ShakeRadius {
		w.effects.ScreenShake(w.cfg.ShakeMax * (1 - d/w.cfg.ShakeRadius))
	}
	w.effects.SpawnExplosion(at, m.Radius)
	w.effects.SpawnCrater(at, m.Radius)
	w.craters = append(w.craters, Crater{
		Position: at,
		Radius:   m.Radius,
		Lifetime: secs(w.cfg.CraterLifetime),
		Fade:     secs(w.cfg.CraterFade),
	})
	w.log.Debug().Int("victims", len(events)).Msg("mortar impact")
	return events
}

// fireTurret shoots at the player when in range and off cooldown.
// Each shot rolls an angular error; a miss distance under the hit radius
// connects.
func (w *Wraith) fireTurret() []DamageEvent {
	if !w.playerKnown || w.turretCooldown > 0 {
		return nil
	}
	off := w.playerPos.Sub(w.pos).Flat()
	dist := off.Len()
	if dist > w.cfg.TurretRange || dist < 1e-9 {
		return nil
	}
	w.turretCooldown = secs(w.cfg.TurretCooldown)

	errAng := (w.rng.Float64()*2 - 1) * w.cfg.TurretScatter
	muzzle := w.pos.Add(Vec3{Y: w.cfg.MortarMuzzleHeight * 0.6})
	w.effects.MuzzleFlash(muzzle, HeadingVec(off.Heading()+errAng))
	if math.Abs(math.Sin(errAng))*dist > w.cfg.TurretHitRadius {
		return nil
	}
	return []DamageEvent{{
		Target:   w.playerID,
		Source:   w.id,
		Amount:   w.cfg.TurretDamage,
		Position: w.playerPos,
		Weapon:   "turret",
	}}
}
