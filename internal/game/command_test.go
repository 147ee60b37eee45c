package game

import (
	"testing"
)

func newTestAuthority() (*CommandAuthority, *recPresenter) {
	p := newRecPresenter()
	ca := NewCommandAuthority(DefaultCommandConfig(), testDeps(p))
	ca.UpdatePlayerState(V3(0, 0, 0), V3(0, 0, 1), Vec3{})
	ca.Tick(0)
	return ca, p
}

func TestCommand_ExpiresExactlyOnceAtDuration(t *testing.T) {
	ca, _ := newTestAuthority()
	expired := 0
	ca.OnExpired(func(Directive) { expired++ })

	if !ca.Issue(DirectiveFollowMe, 0, nil) {
		t.Fatal("FollowMe should be accepted")
	}
	d, _ := ca.Active()
	if d.ExpiresAt != 30 {
		t.Fatalf("expected expiry at 30s, got %.2f", d.ExpiresAt)
	}

	ca.Tick(29.9)
	if _, ok := ca.Active(); !ok {
		t.Fatal("directive should still be active at 29.9s")
	}
	ca.Tick(30)
	if _, ok := ca.Active(); ok {
		t.Fatal("directive should be cleared at 30s")
	}
	ca.Tick(31)
	ca.Tick(45)
	if expired != 1 {
		t.Fatalf("expected exactly one expiry event, got %d", expired)
	}
}

func TestCommand_IssueReplacesSilently(t *testing.T) {
	ca, _ := newTestAuthority()
	cancelled := 0
	ca.OnCancelled(func(Directive) { cancelled++ })

	ca.Issue(DirectiveFollowMe, 0, nil)
	ca.Tick(5)
	ca.Issue(DirectiveHoldPosition, 0, nil)

	d, ok := ca.Active()
	if !ok || d.Kind != DirectiveHoldPosition {
		t.Fatalf("expected HoldPosition active, got %v ok=%v", d.Kind, ok)
	}
	if d.IssuedAt != 5 || d.ExpiresAt != 35 {
		t.Fatalf("expected issued=5 expires=35, got %.1f %.1f", d.IssuedAt, d.ExpiresAt)
	}
	if cancelled != 0 {
		t.Fatalf("replacement must not emit a cancellation, got %d", cancelled)
	}
}

func TestCommand_AckVoiceLineCooldown(t *testing.T) {
	ca, p := newTestAuthority()

	ca.Issue(DirectiveFollowMe, 0, nil)
	ca.Tick(1)
	ca.Issue(DirectiveHoldPosition, 0, nil)
	if len(p.said) != 1 {
		t.Fatalf("expected one ack within the cooldown, got %d: %v", len(p.said), p.said)
	}
	if len(p.notices) != 2 {
		t.Fatalf("every issuance should notify, got %d", len(p.notices))
	}

	ca.Tick(2.0)
	ca.Issue(DirectiveRegroup, 0, nil)
	if len(p.said) != 2 {
		t.Fatalf("expected a second ack once the cooldown elapsed, got %d", len(p.said))
	}
}

func TestCommand_AttackWithoutTargetRejected(t *testing.T) {
	ca, p := newTestAuthority()
	var reasons []string
	ca.OnRejected(func(_ DirectiveKind, reason string) { reasons = append(reasons, reason) })

	if ca.Issue(DirectiveAttackTarget, 0, nil) {
		t.Fatal("AttackTarget without target must be rejected")
	}
	if ca.Issue(DirectiveFlankTarget, 0, nil) {
		t.Fatal("FlankTarget without target must be rejected")
	}
	if _, ok := ca.Active(); ok {
		t.Fatal("no directive should be active after rejections")
	}
	if len(reasons) != 2 || reasons[0] != "no_target" {
		t.Fatalf("unexpected rejection reasons: %v", reasons)
	}
	if len(p.notices) != 2 {
		t.Fatalf("each rejection should notify, got %d", len(p.notices))
	}
}

func TestCommand_HoldToleranceBoundary(t *testing.T) {
	ca, _ := newTestAuthority()
	anchor := V3(10, 0, 10)
	ca.Issue(DirectiveHoldPosition, 0, &anchor)
	tol := DefaultCommandConfig().HoldTolerance

	inside := V3(10+tol, 0, 10)
	got, ok := ca.MovementOverride(inside)
	if !ok || got != inside {
		t.Fatalf("exactly at tolerance should return own position, got %+v", got)
	}

	outside := V3(10+tol+0.01, 0, 10)
	got, ok = ca.MovementOverride(outside)
	if !ok || got != anchor {
		t.Fatalf("beyond tolerance should return the anchor, got %+v", got)
	}
}

func TestCommand_FollowOverrideBehindPlayer(t *testing.T) {
	ca, _ := newTestAuthority()
	ca.UpdatePlayerState(V3(0, 0, 20), V3(0, 0, 1), V3(0, 0, 3))
	ca.Issue(DirectiveFollowMe, 0, nil)

	got, ok := ca.MovementOverride(V3(0, 0, 0))
	if !ok {
		t.Fatal("FollowMe should always override movement")
	}
	want := V3(0, 0, 20-DefaultCommandConfig().FollowDistance)
	if !approx(got.Z, want.Z, 1e-9) || !approx(got.X, want.X, 1e-9) {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestCommand_AttackOverrideStopsAtCloseDistance(t *testing.T) {
	ca, _ := newTestAuthority()
	target := V3(0, 0, 50)
	ca.Issue(DirectiveAttackTarget, 0, &target)

	got, ok := ca.MovementOverride(V3(0, 0, 0))
	if !ok {
		t.Fatal("far from target should yield an intermediate point")
	}
	if !approx(got.Z, 50-DefaultCommandConfig().AttackCloseDistance, 1e-9) {
		t.Fatalf("expected point at close distance from target, got %+v", got)
	}
	if _, ok := ca.MovementOverride(V3(0, 0, 40)); ok {
		t.Fatal("within close distance there should be no override")
	}
}

func TestCommand_SuppressionDirectionTracksPlayer(t *testing.T) {
	ca, _ := newTestAuthority()
	ca.Issue(DirectiveSuppressingFire, 0, nil)
	ca.UpdatePlayerState(V3(0, 0, 0), V3(1, 0, 0), Vec3{})
	ca.Tick(1)

	d, _ := ca.Active()
	if !approx(d.Direction.X, 1, 1e-9) {
		t.Fatalf("direction should follow player facing, got %+v", d.Direction)
	}
	if !approx(d.TargetPosition.X, DefaultCommandConfig().SuppressionRange, 1e-9) {
		t.Fatalf("suppression point should sit at range along facing, got %+v", d.TargetPosition)
	}
	if mode, ok := ca.FireModeOverride(); !ok || mode != FireModeSuppress {
		t.Fatalf("expected suppress fire mode, got %v", mode)
	}
}

func TestCommand_RegroupReissuesFollowWhenClose(t *testing.T) {
	ca, _ := newTestAuthority()
	ca.UpdateMarcusPosition(V3(20, 0, 0))
	ca.Issue(DirectiveRegroup, 0, nil)
	ca.Tick(1)
	if d, _ := ca.Active(); d.Kind != DirectiveRegroup {
		t.Fatalf("still far away, expected Regroup, got %v", d.Kind)
	}

	ca.UpdateMarcusPosition(V3(1, 0, 0))
	ca.Tick(2)
	if d, _ := ca.Active(); d.Kind != DirectiveFollowMe {
		t.Fatalf("expected automatic FollowMe once regrouped, got %v", d.Kind)
	}
}

func TestCommand_CancelEmitsOnce(t *testing.T) {
	ca, p := newTestAuthority()
	cancelled := 0
	ca.OnCancelled(func(Directive) { cancelled++ })

	ca.Cancel()
	if cancelled != 0 {
		t.Fatal("cancel with nothing active must be a no-op")
	}
	anchor := V3(1, 0, 1)
	ca.Issue(DirectiveHoldPosition, 0, &anchor)
	if _, ok := p.markers[MarkerHold]; !ok {
		t.Fatal("hold should place a marker")
	}
	ca.Cancel()
	ca.Cancel()
	if cancelled != 1 {
		t.Fatalf("expected one cancellation, got %d", cancelled)
	}
	if _, ok := p.markers[MarkerHold]; ok {
		t.Fatal("cancel should clear the hold marker")
	}
}

func TestCommand_ListenerPanicIsContained(t *testing.T) {
	ca, _ := newTestAuthority()
	reached := false
	ca.OnIssued(func(Directive) { panic("boom") })
	ca.OnIssued(func(Directive) { reached = true })

	if !ca.Issue(DirectiveFollowMe, 0, nil) {
		t.Fatal("issue should succeed despite a panicking listener")
	}
	if !reached {
		t.Fatal("later listeners should still run")
	}
}

func TestCommand_TargetOverride(t *testing.T) {
	ca, _ := newTestAuthority()
	ca.SetEnemies([]Entity{enemy(9, 0, 30, 100, 100)})
	ca.Issue(DirectiveAttackTarget, 9, nil)

	id, ok := ca.TargetOverride()
	if !ok || id != 9 {
		t.Fatalf("expected target override 9, got %d ok=%v", id, ok)
	}
	d, _ := ca.Active()
	if !d.HasTargetPosition || d.TargetPosition.Z != 30 {
		t.Fatalf("target position should resolve from the snapshot, got %+v", d.TargetPosition)
	}
}
