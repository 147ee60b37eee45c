package game

// EvaluateArc returns the point at normalized time t on a parabolic lob from
// origin to target. XZ is interpolated linearly; Y adds a 4h·t(1−t) hump on
// top of the straight-line height so the peak sits at t=0.5. t is clamped to
// [0,1].
func EvaluateArc(origin, target Vec3, t, apexHeight float64) Vec3 {
	t = clamp01(t)
	p := origin.Lerp(target, t)
	p.Y += 4 * apexHeight * t * (1 - t)
	return p
}

// PredictLead returns where a target moving at constant velocity will be
// after flightTime. Single-step, no iteration.
func PredictLead(targetPos, targetVel Vec3, flightTime float64) Vec3 {
	return targetPos.Add(targetVel.Scale(flightTime))
}

// MortarProjectile is a lobbed shell in flight. It is owned by the vehicle
// that launched it and advanced on its tick.
type MortarProjectile struct {
	Origin     Vec3
	Target     Vec3
	Position   Vec3
	FlightTime float64
	Apex       float64
	Elapsed    float64
	Damage     float64
	Radius     float64

	detonated bool
}

// NewMortarProjectile launches a shell at origin.
func NewMortarProjectile(origin, target Vec3, flightTime, apex float64) *MortarProjectile {
	return &MortarProjectile{
		Origin:     origin,
		Target:     target,
		Position:   origin,
		FlightTime: flightTime,
		Apex:       apex,
	}
}

// Progress is the normalized flight time in [0,1].
func (m *MortarProjectile) Progress() float64 {
	if m.FlightTime <= 0 {
		return 1
	}
	return clamp01(m.Elapsed / m.FlightTime)
}

// Advance moves the shell along its arc.
func (m *MortarProjectile) Advance(dt float64) {
	m.Elapsed += dt
	m.Position = EvaluateArc(m.Origin, m.Target, m.Progress(), m.Apex)
}

// Arrived reports whether the shell has reached its impact point.
func (m *MortarProjectile) Arrived() bool { return m.Elapsed >= m.FlightTime }

// Detonated reports whether MarkDetonated has been called.
func (m *MortarProjectile) Detonated() bool { return m.detonated }

// MarkDetonated flags the shell as exploded. It returns true only the first
// time, so detonation side effects run once.
func (m *MortarProjectile) MarkDetonated() bool {
	if m.detonated {
		return false
	}
	m.detonated = true
	return true
}

// Expired is true once the shell has outlived its flight plus grace.
func (m *MortarProjectile) Expired(grace float64) bool {
	return m.Elapsed >= m.FlightTime+grace
}
