package tp

import "math"

// CartesianLine is a straight-line move between two full poses. Only the
// translatory (X, Y, Z) component participates in blend-arc geometry;
// the rotary/auxiliary axes are carried along linearly with the
// parameter that drives the translatory part (or, for a pure-rotary
// move, with the parameter driven by Pose.Mag of the delta).
type CartesianLine struct {
	Start, End Pose
	uVec       Vector // unit direction of the translatory part
	length     float64
	pureRotary bool
}

// NewCartesianLine builds a line segment and precomputes its unit
// direction and length. If the translatory delta is degenerate (a move
// consisting only of rotary/auxiliary motion) it falls back to the
// uvw-then-abc magnitude cascade, matching tpAddLine's fallback in the
// original: the uvw triple's own magnitude if non-zero, else the abc
// triple's own magnitude, never a combined nine-axis sum.
func NewCartesianLine(start, end Pose) CartesianLine {
	delta := end.Tran().Sub(start.Tran())
	length := delta.Mag()
	if length < Epsilon {
		full := end.Sub(start)
		return CartesianLine{Start: start, End: end, length: full.Mag(), pureRotary: true}
	}
	return CartesianLine{Start: start, End: end, uVec: delta.Unit(), length: length}
}

// Length returns the total path length in the units of the delta used
// to construct it (mm for a translatory move, mixed magnitude for pure
// rotary).
func (l CartesianLine) Length() float64 { return l.length }

// PointAt returns the full pose reached after travelling dist along the
// line from Start, linearly interpolating every axis.
func (l CartesianLine) PointAt(dist float64) Pose {
	if l.length < Epsilon {
		return l.Start
	}
	frac := dist / l.length
	return l.Start.Add(l.End.Sub(l.Start).Scale(frac))
}

// UnitTangentAt returns the unit tangent direction of the line, which is
// constant along its length. For a pure-rotary line this is the zero
// vector since no translatory geometry exists to blend against.
func (l CartesianLine) UnitTangentAt(dist float64) Vector {
	return l.uVec
}

// CartesianCircle is a circular or helical arc in the plane defined by
// Normal, swept by Angle radians about Center starting from Start,
// with a linear rise along Normal (helix) and rotary/auxiliary axes
// interpolated linearly with the swept angle.
type CartesianCircle struct {
	Start, End   Pose
	Center       Vector
	Normal       Vector // unit normal of the arc plane
	Radius       float64
	Angle        float64 // total angle swept, radians, always >= 0
	rise         float64 // net helical rise along Normal over the whole arc
	startVec     Vector  // unit vector from Center to Start.Tran(), in-plane
}

// NewCartesianCircle builds a circle/helix from its center, normal and
// swept angle. Radius and rise are derived from start/end positions.
func NewCartesianCircle(start, end Pose, center, normal Vector, angle float64) CartesianCircle {
	n := normal.Unit()
	sv := start.Tran().Sub(center)
	radius := sv.Mag()
	rise := n.Dot(end.Tran().Sub(start.Tran()))
	return CartesianCircle{
		Start: start, End: end, Center: center, Normal: n,
		Radius: radius, Angle: angle, rise: rise, startVec: sv,
	}
}

// ArcLength returns the helical path length: the arc length of the
// circular sweep combined with the helical rise, matching tpAddCircle's
// use of the true helix length (not the chord) for its Nyquist velocity
// cap, per the original tp.c.
func (c CartesianCircle) ArcLength() float64 {
	planar := c.Angle * c.Radius
	return math.Hypot(planar, c.rise)
}

// Length returns ArcLength, satisfying Geometry.
func (c CartesianCircle) Length() float64 { return c.ArcLength() }

// PointAt returns the pose reached after travelling dist along the arc
// from Start.
func (c CartesianCircle) PointAt(dist float64) Pose {
	total := c.ArcLength()
	if total < Epsilon {
		return c.Start
	}
	frac := dist / total
	theta := frac * c.Angle

	// Build an orthonormal in-plane basis (u, v) with u along startVec.
	u := c.startVec.Unit()
	v := c.Normal.Cross(u)

	cosT, sinT := math.Cos(theta), math.Sin(theta)
	inPlane := u.Scale(c.Radius * cosT).Add(v.Scale(c.Radius * sinT))
	tran := c.Center.Add(inPlane).Add(c.Normal.Scale(c.rise * frac))

	rest := c.End.Sub(c.Start).Scale(frac)
	pose := c.Start.WithTran(tran)
	pose.A = c.Start.A + rest.A
	pose.B = c.Start.B + rest.B
	pose.C = c.Start.C + rest.C
	pose.U = c.Start.U + rest.U
	pose.V = c.Start.V + rest.V
	pose.W = c.Start.W + rest.W
	return pose
}

// UnitTangentAt returns the unit tangent direction of the arc at the
// given arc-length distance from Start.
func (c CartesianCircle) UnitTangentAt(dist float64) Vector {
	total := c.ArcLength()
	if total < Epsilon {
		return Vector{}
	}
	frac := dist / total
	theta := frac * c.Angle

	u := c.startVec.Unit()
	v := c.Normal.Cross(u)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	// d/dtheta of the in-plane position, plus the constant helical rise term.
	dPlane := u.Scale(-c.Radius * sinT).Add(v.Scale(c.Radius * cosT))
	tangent := dPlane.Scale(c.Angle).Add(c.Normal.Scale(c.rise))
	return tangent.Unit()
}

// maxTangentAngle returns the maximum angle (radians) between two unit
// tangent vectors that is still considered "tangent enough" to blend
// without a corner, mirroring tpMaxTangentAngle's use of the segment's
// acceleration and cycle time to bound how much of a kink a single tick
// can absorb.
func maxTangentAngle(vel, accel, cycleTime float64) float64 {
	if vel < Epsilon {
		return 0
	}
	// Same construction as the original: the angle whose chord error at
	// this velocity and cycle time consumes one tick of acceleration.
	ratio := (accel * cycleTime) / vel
	if ratio > 1 {
		ratio = 1
	}
	return math.Asin(ratio)
}

// findIntersectionAngle returns half the angle between two unit tangent
// vectors u1 (incoming) and u2 (outgoing), and a degeneracy cause when
// the dot product falls outside [-1, 1] due to floating point error on
// near-parallel or anti-parallel inputs. This mirrors
// tpFindIntersectionAngle's dot-product clamp-and-detect logic.
func findIntersectionAngle(u1, u2 Vector) (theta float64, cause degeneracy) {
	if u1.IsZero() || u2.IsZero() {
		return 0, degeneracyZeroLength
	}
	dot := u1.Dot(u2)
	if dot > 1.0+1e-6 || dot < -1.0-1e-6 {
		return 0, degeneracyDotOutOfRange
	}
	if dot > 1.0 {
		dot = 1.0
	}
	if dot < -1.0 {
		dot = -1.0
	}
	return math.Acos(dot) / 2.0, degeneracyNone
}

// calculateUnitCartAngle returns the angle (0..pi) between v and the +Z
// axis. Mirrors tpCalculateUnitCartAngle; nothing in this package calls it.
func calculateUnitCartAngle(v Vector) float64 {
	uv := v.Unit()
	return math.Acos(clamp(uv.Z, -1, 1))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func saturate(x, max float64) float64 {
	if x > max {
		return max
	}
	if x < -max {
		return -max
	}
	return x
}
