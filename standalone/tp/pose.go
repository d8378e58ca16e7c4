package tp

import "math"

// Pose is a full nine-axis machine setpoint: three translatory axes plus
// six rotary/auxiliary axes, matching EmcPose from the original motion
// controller. The planner treats Pose as an opaque vector for blending
// and profiling purposes; only the translatory triple participates in
// the Cartesian geometry (arc centers, tangent angles, blend radii).
type Pose struct {
	X, Y, Z float64
	A, B, C float64
	U, V, W float64
}

// Tran returns the translatory (X, Y, Z) part of the pose as a vector.
func (p Pose) Tran() Vector {
	return Vector{p.X, p.Y, p.Z}
}

// Uvw returns the U, V, W auxiliary triple as its own 3-vector.
func (p Pose) Uvw() Vector {
	return Vector{p.U, p.V, p.W}
}

// Abc returns the A, B, C rotary triple as its own 3-vector.
func (p Pose) Abc() Vector {
	return Vector{p.A, p.B, p.C}
}

// WithTran returns a copy of p with its translatory part replaced.
func (p Pose) WithTran(v Vector) Pose {
	p.X, p.Y, p.Z = v.X, v.Y, v.Z
	return p
}

// Add returns the component-wise sum of two poses.
func (p Pose) Add(o Pose) Pose {
	return Pose{
		X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z,
		A: p.A + o.A, B: p.B + o.B, C: p.C + o.C,
		U: p.U + o.U, V: p.V + o.V, W: p.W + o.W,
	}
}

// Sub returns p - o component-wise.
func (p Pose) Sub(o Pose) Pose {
	return Pose{
		X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z,
		A: p.A - o.A, B: p.B - o.B, C: p.C - o.C,
		U: p.U - o.U, V: p.V - o.V, W: p.W - o.W,
	}
}

// Scale returns p scaled component-wise by s.
func (p Pose) Scale(s float64) Pose {
	return Pose{
		X: p.X * s, Y: p.Y * s, Z: p.Z * s,
		A: p.A * s, B: p.B * s, C: p.C * s,
		U: p.U * s, V: p.V * s, W: p.W * s,
	}
}

// Mag returns the magnitude to use for a move with no translatory
// component: the uvw triple's magnitude if it's non-zero, else the abc
// triple's magnitude. tpAddLine falls back to this cascade rather than a
// combined nine-axis sum, so a pure-A move and a pure-U move of the same
// size both report that size, not a figure inflated by unrelated axes.
func (p Pose) Mag() float64 {
	if m := p.Uvw().Mag(); m > Epsilon {
		return m
	}
	return p.Abc().Mag()
}

// Vector is a three-component Cartesian vector, used for the translatory
// geometry that blend-arc and circular-move construction operate on.
type Vector struct {
	X, Y, Z float64
}

func (v Vector) Add(o Vector) Vector    { return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector) Sub(o Vector) Vector    { return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector) Scale(s float64) Vector { return Vector{v.X * s, v.Y * s, v.Z * s} }
func (v Vector) Dot(o Vector) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector) Cross(o Vector) Vector {
	return Vector{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector) Mag() float64 { return math.Sqrt(v.Dot(v)) }

// Unit returns v normalized to unit length. Returns the zero vector for
// a degenerate (near-zero-length) input rather than dividing by zero,
// mirroring pmCartUnitEq's guard in the original geometry library.
func (v Vector) Unit() Vector {
	m := v.Mag()
	if m < Epsilon {
		return Vector{}
	}
	return v.Scale(1.0 / m)
}

// IsZero reports whether v is within Epsilon of the zero vector.
func (v Vector) IsZero() bool {
	return v.Mag() < Epsilon
}
