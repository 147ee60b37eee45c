package game

import (
	"math"
	"testing"
)

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestEvaluateArc_Endpoints(t *testing.T) {
	o := V3(0, 2, 0)
	g := V3(10, 1, 20)
	p0 := EvaluateArc(o, g, 0, 15)
	p1 := EvaluateArc(o, g, 1, 15)
	if p0 != o {
		t.Fatalf("t=0 should return origin, got %+v", p0)
	}
	if p1 != g {
		t.Fatalf("t=1 should return target, got %+v", p1)
	}
}

func TestEvaluateArc_ApexAtMidpoint(t *testing.T) {
	o := V3(0, 0, 0)
	g := V3(30, 0, 0)
	apex := 12.0
	mid := EvaluateArc(o, g, 0.5, apex)
	if !approx(mid.Y, apex, 1e-9) {
		t.Fatalf("expected apex height %.1f at t=0.5, got %.3f", apex, mid.Y)
	}
	for _, tt := range []float64{0.1, 0.3, 0.49, 0.51, 0.7, 0.9} {
		if p := EvaluateArc(o, g, tt, apex); p.Y > mid.Y {
			t.Fatalf("t=%.2f is higher (%.3f) than the midpoint (%.3f)", tt, p.Y, mid.Y)
		}
	}
	if !approx(mid.X, 15, 1e-9) {
		t.Fatalf("expected X halfway, got %.3f", mid.X)
	}
}

func TestEvaluateArc_NeverBelowLowerEndpoint(t *testing.T) {
	o := V3(0, 5, 0)
	g := V3(-8, -3, 40)
	floor := math.Min(o.Y, g.Y)
	for i := 0; i <= 100; i++ {
		tt := float64(i) / 100
		if p := EvaluateArc(o, g, tt, 6); p.Y < floor-1e-9 {
			t.Fatalf("t=%.2f dipped to %.3f below floor %.3f", tt, p.Y, floor)
		}
	}
}

func TestEvaluateArc_ClampsT(t *testing.T) {
	o := V3(0, 0, 0)
	g := V3(10, 0, 0)
	if p := EvaluateArc(o, g, -1, 5); p != o {
		t.Fatalf("negative t should clamp to origin, got %+v", p)
	}
	if p := EvaluateArc(o, g, 2, 5); p != g {
		t.Fatalf("t>1 should clamp to target, got %+v", p)
	}
}

func TestPredictLead(t *testing.T) {
	got := PredictLead(V3(10, 0, 10), V3(2, 0, -1), 1.5)
	want := V3(13, 0, 8.5)
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestMortarProjectile_Lifecycle(t *testing.T) {
	m := NewMortarProjectile(V3(0, 1, 0), V3(20, 0, 0), 1.5, 10)
	for i := 0; i < 14; i++ {
		m.Advance(0.1)
	}
	if m.Arrived() {
		t.Fatalf("should still be in flight at %.2fs", m.Elapsed)
	}
	if m.Position.Y <= 0 {
		t.Fatalf("expected shell above ground mid-flight, got Y=%.2f", m.Position.Y)
	}
	m.Advance(0.1)
	if !m.Arrived() {
		t.Fatalf("should have arrived at %.2fs", m.Elapsed)
	}
	if !m.MarkDetonated() {
		t.Fatal("first detonation should succeed")
	}
	if m.MarkDetonated() {
		t.Fatal("second detonation must be a no-op")
	}
	if m.Expired(0.5) {
		t.Fatal("should not expire before grace elapses")
	}
	m.Advance(0.5)
	if !m.Expired(0.5) {
		t.Fatal("should expire after flight + grace")
	}
}
