package game

import (
	"math"
	"testing"
)

const steerDT = 0.1

func newTestBrain(pos Vec3, nav Navigator) (*SteeringBrain, *recPresenter) {
	p := newRecPresenter()
	deps := testDeps(p)
	deps.Navigator = nav
	return NewSteeringBrain(DefaultSteeringConfig(), pos, deps), p
}

func TestSteering_FollowConvergesWithoutOvershoot(t *testing.T) {
	b, _ := newTestBrain(V3(2, 0, 0), nil)
	b.SetCommand(&Directive{Kind: DirectiveFollowMe})

	player := V3(0, 0, 12)
	vel := V3(0, 0, 3)
	fwd := V3(0, 0, 1)
	for i := 0; i < 40; i++ {
		player = player.Add(vel.Scale(steerDT))
		b.UpdatePlayerState(player, fwd, vel)
		b.Update(steerDT)
		if ahead := b.Position().Sub(player).Dot(fwd); ahead >= 0 {
			t.Fatalf("tick %d: companion overshot the player (ahead by %.2f)", i, ahead)
		}
	}
	d := b.Position().DistXZ(player)
	want := DefaultSteeringConfig().FollowDistance
	if math.Abs(d-want) > 0.5 {
		t.Fatalf("expected to settle ~%.1f behind the player, got %.2f", want, d)
	}
}

func TestSteering_RegroupSpeedMultiplier(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 50), V3(0, 0, 1), Vec3{})
	b.SetCommand(&Directive{Kind: DirectiveRegroup})

	out := b.Update(steerDT)
	cfg := DefaultSteeringConfig()
	want := cfg.MaxSpeed * cfg.RegroupSpeedMultiplier
	if !approx(out.Velocity.Len(), want, 1e-9) {
		t.Fatalf("expected regroup speed %.2f, got %.2f", want, out.Velocity.Len())
	}
	if out.Mode != ModeRegroup || !out.IsMoving {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestSteering_SeparationPushesAwayFromPlayer(t *testing.T) {
	b, _ := newTestBrain(V3(1, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})
	b.SetCommand(&Directive{Kind: DirectiveHoldPosition})
	b.SetMovementOverride(V3(1, 0, 0), true)

	out := b.Update(steerDT)
	if out.Velocity.X <= 0 {
		t.Fatalf("expected separation to push +X, got %+v", out.Velocity)
	}
}

func TestSteering_SuppressionHoldsAndFacesDirection(t *testing.T) {
	b, _ := newTestBrain(V3(10, 0, 10), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})
	b.SetCommand(&Directive{Kind: DirectiveSuppressingFire, Direction: V3(1, 0, 0)})

	out := b.Update(steerDT)
	if out.IsMoving {
		t.Fatalf("suppression should hold ground, got %+v", out.Velocity)
	}
	if out.FacingDirection != V3(1, 0, 0) {
		t.Fatalf("expected to face the suppression bearing, got %+v", out.FacingDirection)
	}
}

func TestSteering_TargetScoreOrdering(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})

	near := enemy(1, 0, 10, 100, 100)  // 90
	wounded := enemy(2, 0, 5, 10, 100) // 95 + 27 = 122
	boss := enemy(3, 0, 30, 500, 500)  // 70 * 2 = 140
	boss.Tags |= TagBoss

	b.UpdateTargetSelection([]Entity{near, wounded})
	if b.CurrentTarget() != 2 {
		t.Fatalf("wounded close target should win, got %d", b.CurrentTarget())
	}
	b.UpdateTargetSelection([]Entity{near, wounded, boss})
	if b.CurrentTarget() != 3 {
		t.Fatalf("boss doubling should win, got %d", b.CurrentTarget())
	}
	if s := TargetScore(boss, V3(0, 0, 0)); !approx(s, 140, 1e-9) {
		t.Fatalf("expected boss score 140, got %.2f", s)
	}
}

func TestSteering_MarkedTargetIsSticky(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})

	far := enemy(1, 0, 80, 100, 100)
	close := enemy(2, 0, 5, 100, 100)
	b.MarkTarget(1)
	b.UpdateTargetSelection([]Entity{far, close})
	if b.CurrentTarget() != 1 {
		t.Fatalf("marked target should win over a better score, got %d", b.CurrentTarget())
	}

	far.Health.Current = 0
	b.UpdateTargetSelection([]Entity{far, close})
	if b.CurrentTarget() != 2 || b.MarkedTarget() != 0 {
		t.Fatalf("dead mark should clear, got current=%d marked=%d", b.CurrentTarget(), b.MarkedTarget())
	}
}

func TestSteering_TargetCalloutOnlyOnSwitchAndRateLimited(t *testing.T) {
	b, p := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})
	callouts := 0
	b.OnTargetCallout(func(_, _ EntityID) { callouts++ })

	a := enemy(1, 0, 5, 100, 100)
	c := enemy(2, 0, 40, 100, 100)
	b.UpdateTargetSelection([]Entity{a, c})
	if callouts != 0 || len(p.said) != 0 {
		t.Fatal("first acquisition must be silent")
	}

	a.Health.Current = 0
	b.UpdateTargetSelection([]Entity{a, c})
	if callouts != 1 {
		t.Fatalf("switch should call out once, got %d", callouts)
	}

	d := enemy(3, 0, 2, 100, 100)
	b.UpdateTargetSelection([]Entity{a, c, d})
	if b.CurrentTarget() != 3 {
		t.Fatalf("expected switch to 3, got %d", b.CurrentTarget())
	}
	if callouts != 1 {
		t.Fatalf("second switch inside the cooldown must stay quiet, got %d", callouts)
	}
}

func TestSteering_FlankPositionSideAndThrottle(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})

	target := V3(10, 0, 30)
	fp := b.ComputeFlankPosition(7, target)
	if !approx(fp.X, 10-15*3/math.Sqrt(10), 1e-6) || !approx(fp.Z, 30+15/math.Sqrt(10), 1e-6) {
		t.Fatalf("unexpected flank point %+v", fp)
	}
	if b.Flanking().Side != FlankLeft {
		t.Fatalf("target right of the player should flank left, got %s", b.Flanking().Side)
	}
	if !approx(fp.DistXZ(target), DefaultSteeringConfig().FlankDistance, 1e-9) {
		t.Fatalf("flank point should sit at flank distance, got %.2f", fp.DistXZ(target))
	}

	b.UpdatePlayerState(V3(20, 0, 0), V3(0, 0, 1), Vec3{})
	for i := 0; i < 10; i++ {
		b.Update(steerDT)
	}
	if again := b.ComputeFlankPosition(7, target); again != fp {
		t.Fatalf("recompute within the throttle window: %+v vs %+v", again, fp)
	}
	for i := 0; i < 11; i++ {
		b.Update(steerDT)
	}
	if again := b.ComputeFlankPosition(7, target); again == fp {
		t.Fatal("flank point should be recomputed after the throttle window")
	}
}

func TestSteering_DirectFallbackArrivesAtDoubleTolerance(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, -50), V3(0, 0, 1), Vec3{})
	dest := V3(0, 0, 30)
	b.StartScout(dest)
	if !b.Pathfinding().Direct() {
		t.Fatal("with no navigator the brain should fall back to direct movement")
	}

	for i := 0; i < 200 && b.Mode() != ModeIdle; i++ {
		b.Update(steerDT)
	}
	if b.Mode() != ModeIdle {
		t.Fatalf("expected Idle after arrival, still %s", b.Mode())
	}
	tol := DefaultSteeringConfig().PathArrival
	d := b.Position().DistXZ(dest)
	if d >= 2*tol {
		t.Fatalf("should stop within 2x tolerance, got %.2f", d)
	}
	if d < tol {
		t.Fatalf("direct movement should stop at the wider tolerance, got %.2f", d)
	}
}

func TestSteering_PathFollowAroundWall(t *testing.T) {
	wall := Rect{MinX: 40, MinZ: 0, MaxX: 44, MaxZ: 60}
	ng := NewNavGrid(100, 80, []Rect{wall}, 1)
	b, _ := newTestBrain(V3(20, 0, 10), ng)
	b.UpdatePlayerState(V3(0, 0, -50), V3(0, 0, 1), Vec3{})

	dest := V3(70, 0, 10)
	b.StartPath(dest)
	if b.Pathfinding().Direct() {
		t.Fatal("expected a planned route")
	}
	for i := 0; i < 600 && b.Mode() != ModeIdle; i++ {
		b.Update(steerDT)
		if wall.Contains(b.Position()) {
			t.Fatalf("tick %d: walked into the wall at %+v", i, b.Position())
		}
	}
	if b.Mode() != ModeIdle {
		t.Fatalf("path should be exhausted, still %s", b.Mode())
	}
	if d := b.Position().DistXZ(dest); d >= DefaultSteeringConfig().PathArrival {
		t.Fatalf("expected to finish near the goal, %.2f away", d)
	}
}

func TestSteering_AttackBands(t *testing.T) {
	b, _ := newTestBrain(V3(0, 0, 0), nil)
	b.UpdatePlayerState(V3(0, 0, -20), V3(0, 0, 1), Vec3{})
	b.SetCommand(&Directive{Kind: DirectiveAttackTarget, TargetEntity: 4})

	b.UpdateTargetSelection([]Entity{enemy(4, 0, 50, 100, 100)})
	if out := b.Update(steerDT); out.Velocity.Z <= 0 {
		t.Fatalf("out of range should close in, got %+v", out.Velocity)
	}

	b.SetPosition(V3(0, 0, 38))
	if out := b.Update(steerDT); out.IsMoving {
		t.Fatalf("inside the band should hold, got %+v", out.Velocity)
	}
	if b.Facing().Z <= 0 {
		t.Fatalf("should face the target while holding, got %+v", b.Facing())
	}

	b.SetPosition(V3(0, 0, 47))
	if out := b.Update(steerDT); out.Velocity.Z >= 0 {
		t.Fatalf("too close should back off, got %+v", out.Velocity)
	}
}
