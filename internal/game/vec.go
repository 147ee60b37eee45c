package game

import "math"

// Vec3 is a world-space vector. The simulation plays out on the XZ plane
// with Y pointing up.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for building a Vec3.
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3       { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3       { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3  { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64    { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) LenSq() float64        { return v.Dot(v) }
func (v Vec3) Len() float64          { return math.Sqrt(v.LenSq()) }
func (v Vec3) IsZero() bool          { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Flat() Vec3            { return Vec3{v.X, 0, v.Z} }
func (v Vec3) DistXZ(o Vec3) float64 { return v.Sub(o).Flat().Len() }
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{lerp(v.X, o.X, t), lerp(v.Y, o.Y, t), lerp(v.Z, o.Z, t)}
}

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// ClampLen shortens v to at most maxLen.
func (v Vec3) ClampLen(maxLen float64) Vec3 {
	l := v.Len()
	if l <= maxLen || l < 1e-9 {
		return v
	}
	return v.Scale(maxLen / l)
}

// PerpXZ returns v rotated 90° counter-clockwise about the Y axis
// (looking down), flattened onto the ground plane.
func (v Vec3) PerpXZ() Vec3 { return Vec3{-v.Z, 0, v.X} }

// CrossY is the Y component of v × o, i.e. the signed area on the XZ plane.
// Positive means o lies clockwise of v when viewed from above.
func (v Vec3) CrossY(o Vec3) float64 { return v.Z*o.X - v.X*o.Z }

// Heading returns the yaw angle of v on the XZ plane, measured from +Z
// toward +X.
func (v Vec3) Heading() float64 { return math.Atan2(v.X, v.Z) }

// HeadingVec is the inverse of Heading.
func HeadingVec(yaw float64) Vec3 { return Vec3{math.Sin(yaw), 0, math.Cos(yaw)} }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// wrapAngle folds a into (-π, π].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// turnToward rotates current toward target by at most maxStep radians.
func turnToward(current, target, maxStep float64) float64 {
	diff := wrapAngle(target - current)
	if math.Abs(diff) <= maxStep {
		return target
	}
	if diff > 0 {
		return wrapAngle(current + maxStep)
	}
	return wrapAngle(current - maxStep)
}
