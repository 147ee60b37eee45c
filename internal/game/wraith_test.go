package game

import (
	"math"
	"testing"
)

const wraithDT = 0.1

func newTestWraith(pos Vec3, waypoints []Vec3) (*Wraith, *recEffects) {
	fx := &recEffects{}
	deps := testDeps(newRecPresenter())
	deps.Effects = fx
	return NewWraith(50, "wraith", pos, waypoints, DefaultWraithConfig(), deps), fx
}

func TestWraithState_Transitions(t *testing.T) {
	cfg := DefaultWraithConfig()
	cases := []struct {
		name  string
		from  WraithState
		dist  float64
		known bool
		want  WraithState
	}{
		{"patrol at radius", WraithPatrol, 60, true, WraithPatrol},
		{"patrol inside radius", WraithPatrol, 59.99, true, WraithAlert},
		{"patrol unknown player", WraithPatrol, 10, false, WraithPatrol},
		{"alert hysteresis holds", WraithAlert, 71.9, true, WraithAlert},
		{"alert exit", WraithAlert, 72, true, WraithPatrol},
		{"alert to combat", WraithAlert, 39.9, true, WraithCombat},
		{"alert lost player", WraithAlert, 20, false, WraithPatrol},
		{"combat hysteresis holds", WraithCombat, 52, true, WraithCombat},
		{"combat to pursuit", WraithCombat, 52.01, true, WraithPursuit},
		{"combat lost player", WraithCombat, 20, false, WraithPursuit},
		{"pursuit holds at exit", WraithPursuit, 82.5, true, WraithPursuit},
		{"pursuit gives up", WraithPursuit, 82.6, true, WraithPatrol},
		{"pursuit re-engages", WraithPursuit, 39.9, true, WraithCombat},
		{"pursuit lost player", WraithPursuit, 45, false, WraithPatrol},
		{"destroyed is terminal", WraithDestroyed, 1, true, WraithDestroyed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextState(cfg, tc.from, tc.dist, tc.known); got != tc.want {
				t.Fatalf("%s at %.2f: want %s got %s", tc.from, tc.dist, tc.want, got)
			}
		})
	}
}

func TestWraith_AlertAtBoundaryWhenPatrolClosesIn(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), []Vec3{V3(0, 0, 50)})
	w.UpdatePlayerState(1, V3(0, 0, 60), Vec3{}, true)

	w.Update(wraithDT)
	if w.State() != WraithAlert {
		t.Fatalf("patrol step toward a player on the boundary should alert, got %s", w.State())
	}
}

func TestWraith_StationaryAtBoundaryStaysPatrol(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 60), Vec3{}, true)

	for i := 0; i < 10; i++ {
		w.Update(wraithDT)
	}
	if w.State() != WraithPatrol {
		t.Fatalf("distance == alert radius must not alert, got %s", w.State())
	}

	w.UpdatePlayerState(1, V3(0, 0, 59.99), Vec3{}, true)
	w.Update(wraithDT)
	if w.State() != WraithAlert {
		t.Fatalf("just inside the radius should alert, got %s", w.State())
	}
}

func TestWraith_RearHitMultiplier(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil) // facing +Z

	if got := w.ApplyDamage(10, V3(0, 0, -1)); !approx(got, 20, 1e-9) {
		t.Fatalf("rear hit should double, got %.2f", got)
	}
	if got := w.ApplyDamage(10, V3(0, 0, 1)); !approx(got, 10, 1e-9) {
		t.Fatalf("frontal hit should be unscaled, got %.2f", got)
	}
	if got := w.ApplyDamage(10, V3(1, 0, 0)); !approx(got, 10, 1e-9) {
		t.Fatalf("side hit should be unscaled, got %.2f", got)
	}
}

func TestWraith_RearThresholdBracket(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	if !w.IsRearHit(V3(4, 0, -3)) { // dot = -0.6
		t.Fatal("dot -0.6 should count as rear")
	}
	if w.IsRearHit(V3(4, 0, -2)) { // dot ~ -0.447
		t.Fatal("dot -0.447 should not count as rear")
	}
	if w.IsRearHit(Vec3{}) {
		t.Fatal("zero hit direction has no side")
	}
}

func TestWraith_HijackThreshold(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	front := V3(0, 0, 1)

	w.ApplyDamage(296, front) // 104/400 = 0.26
	if w.IsHijackable() {
		t.Fatal("0.26 health should not be hijackable")
	}
	if w.Hijack() {
		t.Fatal("hijack should fail above the threshold")
	}
	w.ApplyDamage(4, front) // exactly 0.25
	if !w.IsHijackable() {
		t.Fatal("0.25 health should be hijackable")
	}

	var events []DestroyedEvent
	w.OnDestroyed(func(e DestroyedEvent) { events = append(events, e) })
	if !w.Hijack() {
		t.Fatal("hijack should succeed")
	}
	if w.State() != WraithDestroyed || len(events) != 1 || !events[0].Hijacked {
		t.Fatalf("hijack should destroy once with the hijacked flag, state=%s events=%+v", w.State(), events)
	}
	if w.IsHijackable() || w.Hijack() {
		t.Fatal("a taken vehicle cannot be hijacked again")
	}
}

func TestWraith_ZeroHealthNotHijackable(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	var events []DestroyedEvent
	w.OnDestroyed(func(e DestroyedEvent) { events = append(events, e) })

	if got := w.ApplyDamage(1000, V3(0, 0, 1)); !approx(got, 400, 1e-9) {
		t.Fatalf("damage should be capped at remaining health, got %.2f", got)
	}
	if w.IsHijackable() || w.State() != WraithDestroyed {
		t.Fatalf("dead vehicle: hijackable=%v state=%s", w.IsHijackable(), w.State())
	}
	if w.ApplyDamage(10, V3(0, 0, 1)) != 0 {
		t.Fatal("destroyed vehicle takes no further damage")
	}
	if len(events) != 1 || events[0].Hijacked {
		t.Fatalf("expected one non-hijack destruction, got %+v", events)
	}
}

func TestWraith_DamagedReroutes(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 30), Vec3{}, true)

	var seen []WraithState
	w.OnStateChange(func(_, to WraithState) { seen = append(seen, to) })
	w.ApplyDamage(200, V3(0, 0, 1))

	if len(seen) != 2 || seen[0] != WraithDamaged || seen[1] != WraithCombat {
		t.Fatalf("expected Damaged then Combat, got %v", seen)
	}
	if !w.IsDamaged() {
		t.Fatal("damaged modifier should stay on")
	}

	w.ApplyDamage(10, V3(0, 0, 1))
	if len(seen) != 2 {
		t.Fatalf("damaged transition fires once, got %v", seen)
	}
}

func TestWraith_DamagedSlowsMovement(t *testing.T) {
	cfg := DefaultWraithConfig()
	step := func(damage float64) float64 {
		w, _ := newTestWraith(V3(0, 0, 0), nil)
		w.UpdatePlayerState(1, V3(0, 0, 70), Vec3{}, true)
		if damage > 0 {
			w.ApplyDamage(damage, V3(0, 0, 1))
		}
		w.transition(WraithPursuit)
		before := w.Position()
		w.Update(wraithDT)
		return w.Position().DistXZ(before)
	}
	if got := step(0); !approx(got, cfg.MoveSpeed*wraithDT, 1e-9) {
		t.Fatalf("healthy chase step: want %.2f got %.3f", cfg.MoveSpeed*wraithDT, got)
	}
	if got := step(250); !approx(got, cfg.MoveSpeed*cfg.DamagedSpeedMul*wraithDT, 1e-9) {
		t.Fatalf("damaged chase step: want %.2f got %.3f", cfg.MoveSpeed*cfg.DamagedSpeedMul*wraithDT, got)
	}
}

func TestWraith_MortarCycle(t *testing.T) {
	w, fx := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 30), Vec3{}, true)

	var combatAt, launchAt, impactAt float64
	w.OnStateChange(func(_, to WraithState) {
		if to == WraithCombat && combatAt == 0 {
			combatAt = w.now
		}
	})
	w.OnMortarLaunched(func(*MortarProjectile) {
		if launchAt == 0 {
			launchAt = w.now
		}
	})

	var hit DamageEvent
	for i := 0; i < 100 && impactAt == 0; i++ {
		for _, ev := range w.Update(wraithDT) {
			if ev.Weapon == "mortar" {
				hit = ev
				impactAt = w.now
			}
		}
	}
	if combatAt == 0 || launchAt == 0 || impactAt == 0 {
		t.Fatalf("cycle incomplete: combat=%.1f launch=%.1f impact=%.1f", combatAt, launchAt, impactAt)
	}
	if charge := launchAt - combatAt; charge < 2.0-1e-9 || charge > 2.2+1e-9 {
		t.Fatalf("launch should follow a 2s charge, took %.2f", charge)
	}
	if flight := impactAt - launchAt; flight < 1.3 || flight > 1.6 {
		t.Fatalf("impact should follow a ~1.5s flight, took %.2f", flight)
	}
	if hit.Target != 1 || hit.Source != 50 {
		t.Fatalf("unexpected mortar event %+v", hit)
	}
	// Scatter is at most 2m on a stationary target: falloff keeps damage high.
	if hit.Amount < 32.5-1e-9 || hit.Amount > 40 {
		t.Fatalf("falloff damage out of range: %.2f", hit.Amount)
	}
	if len(fx.explosions) != 1 || len(fx.craters) != 1 || len(fx.shakes) != 1 {
		t.Fatalf("impact effects: explosions=%d craters=%d shakes=%d", len(fx.explosions), len(fx.craters), len(fx.shakes))
	}
	if fx.shakes[0] <= 0 || fx.shakes[0] > 1 {
		t.Fatalf("shake intensity out of range: %.2f", fx.shakes[0])
	}
	if len(w.Craters()) != 1 {
		t.Fatal("impact should leave a crater")
	}
}

func TestWraith_DamageRerouteAbortsCharge(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 20), Vec3{}, true)
	w.transition(WraithCombat)
	for i := 0; i < 40 && w.ChargeProgress() < 0.8; i++ {
		w.Update(wraithDT)
	}
	if w.ChargeProgress() < 0.8 {
		t.Fatalf("charge should have built up, got %.2f", w.ChargeProgress())
	}

	// Player slips out to alert range as a heavy hit lands.
	w.UpdatePlayerState(1, w.Position().Add(V3(0, 0, 45)), Vec3{}, true)
	w.ApplyDamage(250, HeadingVec(w.Yaw()))
	if w.State() != WraithAlert {
		t.Fatalf("expected reroute to alert, got %s", w.State())
	}
	if w.Charging() || w.ChargeProgress() != 0 {
		t.Fatalf("leaving combat must drop the charge, progress=%.2f", w.ChargeProgress())
	}

	// Back in range: the next shell needs a full charge again.
	w.UpdatePlayerState(1, w.Position().Add(V3(0, 0, 20)), Vec3{}, true)
	var combatAt, launchAt float64
	w.OnStateChange(func(_, to WraithState) {
		if to == WraithCombat && combatAt == 0 {
			combatAt = w.now
		}
	})
	w.OnMortarLaunched(func(*MortarProjectile) {
		if launchAt == 0 {
			launchAt = w.now
		}
	})
	for i := 0; i < 60 && launchAt == 0; i++ {
		w.Update(wraithDT)
	}
	if combatAt == 0 || launchAt == 0 {
		t.Fatalf("expected re-entry and a launch: combat=%.2f launch=%.2f", combatAt, launchAt)
	}
	if charge := launchAt - combatAt; charge < 2.0-1e-9 {
		t.Fatalf("launch after re-entry took only %.2fs of charge", charge)
	}
}

func TestWraith_MortarDetonatesOnce(t *testing.T) {
	w, fx := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 5), Vec3{}, true)
	w.mortars = append(w.mortars, NewMortarProjectile(V3(0, 2.5, 0), V3(0, 0, 5), 0.2, 15))
	w.mortars[0].Damage, w.mortars[0].Radius = 40, 8

	n := 0
	for i := 0; i < 10; i++ {
		for _, ev := range w.advanceMortars(wraithDT) {
			if ev.Weapon == "mortar" {
				n++
			}
		}
	}
	if n != 1 || len(fx.explosions) != 1 {
		t.Fatalf("expected one detonation, got %d events %d explosions", n, len(fx.explosions))
	}
	if len(w.Mortars()) != 0 {
		t.Fatal("spent shell should be removed after the grace window")
	}
}

func TestWraith_FalloffEdges(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 20), Vec3{}, true)

	center := w.detonate(&MortarProjectile{Target: V3(0, 0, 20), Radius: 8})
	edge := w.detonate(&MortarProjectile{Target: V3(8, 0, 20), Radius: 8})
	outside := w.detonate(&MortarProjectile{Target: V3(8.5, 0, 20), Radius: 8})
	if len(center) != 1 || !approx(center[0].Amount, 40, 1e-9) {
		t.Fatalf("direct hit should deal max damage, got %+v", center)
	}
	if len(edge) != 1 || !approx(edge[0].Amount, 10, 1e-9) {
		t.Fatalf("edge hit should deal min damage, got %+v", edge)
	}
	if len(outside) != 0 {
		t.Fatalf("outside the radius should be safe, got %+v", outside)
	}
}

func TestWraith_DestroyedStopsEverything(t *testing.T) {
	w, _ := newTestWraith(V3(0, 0, 0), []Vec3{V3(0, 0, 50)})
	w.UpdatePlayerState(1, V3(0, 0, 20), Vec3{}, true)
	w.mortars = append(w.mortars, NewMortarProjectile(V3(0, 2.5, 0), V3(0, 0, 20), 1.5, 15))

	w.ApplyDamage(1000, V3(0, 0, 1))
	if len(w.Mortars()) != 0 {
		t.Fatal("destruction should clear shells in flight")
	}
	pos := w.Position()
	for i := 0; i < 50; i++ {
		if ev := w.Update(wraithDT); len(ev) != 0 {
			t.Fatalf("destroyed vehicle dealt damage: %+v", ev)
		}
	}
	if w.Position() != pos || w.State() != WraithDestroyed {
		t.Fatalf("destroyed vehicle moved or changed state: %+v %s", w.Position(), w.State())
	}
}

func TestWraith_TurretFiresInRangeOnCooldown(t *testing.T) {
	w, fx := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 20), Vec3{}, true)
	w.transition(WraithCombat)
	w.mortarCooldown = 100 // isolate the turret

	hits := 0
	for i := 0; i < 30; i++ {
		for _, ev := range w.Update(wraithDT) {
			if ev.Weapon == "turret" {
				hits++
				if !approx(ev.Amount, DefaultWraithConfig().TurretDamage, 1e-9) {
					t.Fatalf("unexpected turret damage %.2f", ev.Amount)
				}
			}
		}
	}
	// 3s at a 0.25s cooldown with 0.1s ticks: a shot every 3rd tick.
	if fx.muzzles < 8 || fx.muzzles > 10 {
		t.Fatalf("expected ~10 turret shots, got %d", fx.muzzles)
	}
	if hits == 0 {
		t.Fatal("some shots should connect at 20m")
	}
}

func TestWraith_TurretIgnoresTraverse(t *testing.T) {
	w, fx := newTestWraith(V3(0, 0, 0), nil)
	// Directly behind: the turret cannot swing round in one tick.
	w.UpdatePlayerState(1, V3(0, 0, -20), Vec3{}, true)
	w.transition(WraithAlert)
	w.Update(wraithDT)
	if math.Abs(wrapAngle(w.TurretYaw()-math.Pi)) < 1 {
		t.Fatalf("turret should still be slewing, yaw=%.2f", w.TurretYaw())
	}
	if fx.muzzles != 1 {
		t.Fatalf("in range and off cooldown should fire at once, got %d shots", fx.muzzles)
	}
}

func TestWraith_TurretOutOfRangeHoldsFire(t *testing.T) {
	w, fx := newTestWraith(V3(0, 0, 0), nil)
	w.UpdatePlayerState(1, V3(0, 0, 45), Vec3{}, true)
	w.transition(WraithAlert)
	for i := 0; i < 10; i++ {
		w.Update(wraithDT)
	}
	if fx.muzzles != 0 {
		t.Fatalf("turret fired beyond range: %d", fx.muzzles)
	}
}

func TestCrater_Fade(t *testing.T) {
	c := Crater{Lifetime: 8, Fade: 2}
	if c.Alpha() != 1 {
		t.Fatal("fresh crater should be opaque")
	}
	c.Age = 7
	if !approx(c.Alpha(), 0.5, 1e-9) {
		t.Fatalf("halfway through the fade expected 0.5, got %.2f", c.Alpha())
	}

	w, _ := newTestWraith(V3(0, 0, 0), nil)
	w.craters = []Crater{{Lifetime: 8, Fade: 2}}
	w.Update(7.9)
	if len(w.Craters()) != 1 {
		t.Fatal("crater removed early")
	}
	w.Update(0.2)
	if len(w.Craters()) != 0 {
		t.Fatal("crater should be gone after its lifetime")
	}
}

type doubleScaler struct{ FlatScaler }

func (doubleScaler) Health(b float64) float64   { return 2 * b }
func (doubleScaler) FireRate(b float64) float64 { return 2 * b }

func TestWraith_DifficultyScaling(t *testing.T) {
	deps := testDeps(newRecPresenter())
	deps.Difficulty = doubleScaler{}
	w := NewWraith(1, "w", Vec3{}, nil, DefaultWraithConfig(), deps)
	if w.Health().Max != 800 {
		t.Fatalf("expected doubled health, got %.0f", w.Health().Max)
	}
	if got := secs(w.Config().MortarCooldown); math.Abs(got-2) > 1e-6 {
		t.Fatalf("doubled fire rate should halve the cooldown, got %.3f", got)
	}
}
