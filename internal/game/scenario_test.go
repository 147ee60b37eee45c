package game

import (
	"math"
	"strings"
	"testing"
	"time"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

// dumpSummary prints the scenario summary block.
func dumpSummary(t *testing.T, ts *TestSim) {
	t.Helper()
	t.Log(ts.SimLog.Summary(ts))
}

// --- Scenario: Follow a walking player ---

func TestScenario_FollowWalkingPlayer(t *testing.T) {
	t.Log("=== TestScenario_FollowWalkingPlayer ===")
	t.Log("--- Setup: player walks +Z at 3m/s, Marcus starts 10m behind ---")

	ts := NewTestSim(
		WithSeed(42),
		WithPlayer(0, 10),
		WithPlayerVelocity(0, 3),
		WithCompanion(2, 0),
	)
	if !ts.Issue(DirectiveFollowMe, 0, nil) {
		t.Fatal("follow should be accepted")
	}

	want := ts.Tuning.Steering.FollowDistance
	for i := 0; i < 40; i++ {
		ts.Step()
		p, _ := ts.Player()
		if ahead := ts.Squad.Brain.Position().Z - p.Position.Z; ahead >= 0 {
			dumpLog(t, ts)
			t.Fatalf("tick %d: Marcus overshot the player by %.2f", ts.CurrentTick(), ahead)
		}
	}
	dumpSummary(t, ts)

	p, _ := ts.Player()
	d := ts.Squad.Brain.Position().DistXZ(p.Position)
	if math.Abs(d-want) > 0.5 {
		dumpLog(t, ts)
		t.Fatalf("expected Marcus to settle ~%.1fm behind, got %.2f", want, d)
	}
	if ts.Squad.Brain.Mode() != ModeFollow {
		t.Fatalf("expected follow mode, got %s", ts.Squad.Brain.Mode())
	}
}

// --- Scenario: Scout an empty area ---

func TestScenario_ScoutEmptyArea(t *testing.T) {
	t.Log("=== TestScenario_ScoutEmptyArea ===")
	t.Log("--- Setup: player idle at origin, Marcus beside, nothing ahead ---")

	ts := NewTestSim(
		WithSeed(42),
		WithCompanion(2, 0),
	)
	if !ts.Issue(DirectiveScoutAhead, 0, nil) {
		t.Fatal("scout should be accepted")
	}

	done := ts.RunUntil(func(ts *TestSim) bool {
		return ts.SimLog.HasEntry("scout", "complete", "")
	}, 400)
	dumpLog(t, ts)
	dumpSummary(t, ts)
	if done < 0 {
		t.Fatal("recon never completed")
	}

	if n := ts.SimLog.CountCategory("intel", ""); n != 1 {
		t.Fatalf("expected exactly one intel report, got %d", n)
	}
	if !ts.SimLog.HasEntry("intel", IntelAreaClear.String(), "") {
		t.Fatal("the single report should be an all-clear")
	}
	outbound := 0
	for _, e := range ts.SimLog.Filter("scout", "state") {
		if strings.HasSuffix(e.Value, "→ moving") {
			outbound++
		}
	}
	if outbound != 1 {
		t.Fatalf("expected one outbound leg, got %d", outbound)
	}
	for _, want := range []string{"→ returning", "→ reporting", "→ idle"} {
		if !ts.SimLog.HasEntry("scout", "state", want) {
			t.Fatalf("missing transition %q", want)
		}
	}
	if _, ok := ts.Squad.ActiveCommand(); ok {
		t.Fatal("completed recon should release the order")
	}
}

// --- Scenario: Scout finds a squad ---

func TestScenario_ScoutFindsHostiles(t *testing.T) {
	t.Log("=== TestScenario_ScoutFindsHostiles ===")
	t.Log("--- Setup: three hostiles clustered 30m ahead ---")

	ts := NewTestSim(
		WithSeed(42),
		WithCompanion(2, 0),
		WithEnemy(1, 31, 100),
		WithEnemy(3, 33, 100),
		WithEnemy(2, 36, 100),
	)
	if !ts.Issue(DirectiveScoutAhead, 0, nil) {
		t.Fatal("scout should be accepted")
	}
	ts.RunUntil(func(ts *TestSim) bool { return ts.SimLog.HasEntry("scout", "complete", "") }, 400)
	dumpLog(t, ts)

	if !ts.SimLog.HasEntry("intel", IntelEnemyGroup.String(), "") {
		t.Fatal("expected the cluster to be reported as a group")
	}
	if ts.SimLog.HasEntry("intel", IntelAreaClear.String(), "") {
		t.Fatal("hostiles were seen; no all-clear")
	}
	last, ok := ts.SimLog.LastOf("scout", "complete")
	if !ok || !strings.Contains(last.Value, "3 hostiles") {
		t.Fatalf("summary should count the hostiles, got %+v", last)
	}
}

// --- Scenario: Wraith at the alert boundary ---

func TestScenario_WraithAlertBoundary(t *testing.T) {
	t.Log("=== TestScenario_WraithAlertBoundary ===")

	patrolling := NewTestSim(
		WithPlayer(0, 60),
		WithWraith(0, 0, V3(0, 0, 50)),
	)
	patrolling.Step()
	dumpLog(t, patrolling)
	if s := patrolling.Wraiths[0].State(); s != WraithAlert {
		t.Fatalf("patrolling vehicle should alert on the next tick, got %s", s)
	}

	parked := NewTestSim(
		WithPlayer(0, 60),
		WithWraith(0, 0),
	)
	parked.RunTicks(5)
	if s := parked.Wraiths[0].State(); s != WraithPatrol {
		t.Fatalf("distance equal to the alert radius must not alert, got %s", s)
	}
}

// --- Scenario: Wraith engagement and takeover ---

func TestScenario_WraithEngageAndHijack(t *testing.T) {
	t.Log("=== TestScenario_WraithEngageAndHijack ===")
	t.Log("--- Setup: wraith parked 35m ahead, Marcus at the player's side ---")

	ts := NewTestSim(
		WithSeed(7),
		WithCompanion(2, -2),
		WithWraith(0, 35),
	)
	ts.RunTicks(40)
	dumpLog(t, ts)
	dumpSummary(t, ts)

	w := ts.Wraiths[0]
	if w.State() != WraithCombat {
		t.Fatalf("expected combat, got %s", w.State())
	}
	if !ts.SimLog.HasEntry("wraith", "mortar_launch", "") {
		t.Fatal("expected a mortar launch within 4s of combat")
	}
	if ts.DamageTaken(ts.PlayerID()) <= 0 {
		t.Fatal("the player should have taken fire")
	}
	if ts.Squad.Brain.CurrentTarget() != ts.wraithIDs[w] {
		t.Fatalf("Marcus should target the vehicle, got %d", ts.Squad.Brain.CurrentTarget())
	}

	// Hit it from the far side: rear armor takes double.
	p, _ := ts.Player()
	behind := w.Position().Add(w.Position().Sub(p.Position).Flat().Normalize().Scale(10))
	if dealt := ts.DamageWraith(0, 150, behind); math.Abs(dealt-300) > 1e-9 {
		t.Fatalf("rear hit should deal 300, got %.1f", dealt)
	}
	if !ts.SimLog.HasEntry("wraith", "hijackable", "") {
		t.Fatal("vehicle at a quarter health should be flagged hijackable")
	}
	if !w.Hijack() {
		t.Fatal("hijack should succeed")
	}
	ts.Step()
	if !ts.SimLog.HasEntry("wraith", "destroyed", "hijacked=true") {
		t.Fatal("hijack should be logged as the vehicle's end")
	}
	if e, _ := ts.World.Get(ts.wraithIDs[w]); e.Has(TagEnemy) || !e.Has(TagAlly) {
		t.Fatalf("a taken vehicle should switch sides, tags=%b", e.Tags)
	}
}

// --- Scenario: Hold survives player movement ---

func TestScenario_HoldStaysPut(t *testing.T) {
	ts := NewTestSim(
		WithSeed(3),
		WithCompanion(2, 0),
		WithPlayerVelocity(0, 4),
	)
	ts.Issue(DirectiveHoldPosition, 0, nil)
	ts.RunTicks(50)

	if d := ts.Squad.Brain.Position().DistXZ(V3(2, 0, 0)); d > ts.Tuning.Command.HoldTolerance {
		dumpLog(t, ts)
		t.Fatalf("Marcus drifted %.2fm from the hold point", d)
	}
}

// --- Scenario: Orders expire ---

func TestScenario_OrderExpires(t *testing.T) {
	tun := DefaultTuning()
	tun.Command.Duration = 2 * time.Second
	ts := NewTestSim(
		WithTuning(tun),
		WithCompanion(2, 0),
	)
	ts.Issue(DirectiveHoldPosition, 0, nil)
	ts.RunTicks(25)

	if n := ts.SimLog.CountCategory("command", "expired"); n != 1 {
		dumpLog(t, ts)
		t.Fatalf("expected exactly one expiry, got %d", n)
	}
	if ts.Squad.Brain.Mode() != ModeIdle {
		t.Fatalf("expired order should leave Marcus idle, got %s", ts.Squad.Brain.Mode())
	}
}

// --- Scenario: Player picks up a collectible ---

func TestScenario_PlayerPicksUpCollectible(t *testing.T) {
	ts := NewTestSim(
		WithCompanion(2, 0),
		WithCollectible(0, 5, "ammo"),
		WithPlayerVelocity(0, 2),
	)
	before := ts.World.Len()
	ts.RunTicks(30)

	if n := ts.SimLog.CountCategory("world", "pickup"); n != 1 {
		dumpLog(t, ts)
		t.Fatalf("expected one pickup, got %d", n)
	}
	if !ts.SimLog.HasEntry("world", "pickup", "ammo") {
		t.Fatal("pickup should name the item")
	}
	if ts.World.Len() != before-1 {
		t.Fatalf("picked item should leave the world: %d → %d", before, ts.World.Len())
	}
	left := ts.World.Select(func(e Entity) bool { return e.Has(TagCollectible) })
	if len(left) != 0 {
		t.Fatalf("collectible still present: %+v", left)
	}
}
