package tp

import "math"

// blendArcResult carries everything needed to splice a blend arc between
// two straight segments, or the reason none could be built.
type blendArcResult struct {
	arc        CartesianCircle
	trim1      float64 // distance to trim off the end of the previous segment
	trim2      float64 // distance to trim off the start of the next segment
	ok         bool
	cause      degeneracy
}

// checkNeedBlendArc decides whether a tangent-terminated corner between
// two lines needs a blend arc spliced in, mirroring
// tpCheckNeedBlendArc's three-way outcome: no arc needed (already
// tangent within tolerance), an arc is needed and can be built, or the
// angle could not be computed (degenerate input — caller should fall
// back to a parabolic blend).
func checkNeedBlendArc(prev, next CartesianLine, maxAngle float64) (needed bool, cause degeneracy) {
	u1 := prev.UnitTangentAt(prev.Length())
	u2 := next.UnitTangentAt(0)

	theta, cause := findIntersectionAngle(u1, u2)
	if cause != degeneracyNone {
		return false, cause
	}
	if theta < Epsilon {
		return false, degeneracyNone // already tangent, nothing to do
	}
	// theta is half the corner's deflection; maxAngle bounds the full
	// deflection still treated as tangent.
	if 2*theta < maxAngle {
		return false, degeneracyNone // tangent within tolerance
	}
	if 2*theta > math.Pi-maxAngle {
		// Near-reversal: no usable fillet; caller falls back to a
		// parabolic (stop-and-go) blend instead of declining the move.
		return false, degeneracyNone
	}
	return true, degeneracyNone
}

// createBlendArc builds the circular arc that bridges prev and next
// tangentially, given the maximum normal acceleration the blend may use
// and the cycle time (for the Nyquist re-clip). This is the Go
// equivalent of tpCreateBlendArc, including the radius-from-acceleration
// relationship (a = v^2/r) used to size the arc so the programmed
// velocity through the corner stays within the machine's normal
// acceleration limit.
func createBlendArc(prev, next CartesianLine, vel, maxAccel, cycleTime float64) blendArcResult {
	u1 := prev.UnitTangentAt(prev.Length())
	u2 := next.UnitTangentAt(0)

	theta, cause := findIntersectionAngle(u1, u2)
	if cause != degeneracyNone {
		return blendArcResult{cause: cause}
	}
	if theta < Epsilon {
		return blendArcResult{}
	}

	// Radius such that centripetal acceleration at vel stays <= maxAccel:
	// r = v^2 / a. Both segments trim back by r*tan(theta), the tangent
	// length from the corner to the point where the blend arc meets each
	// line (standard circular-fillet geometry), mirroring
	// tpApplyBlendArcParameters/tpInitBlendArc.
	if maxAccel <= Epsilon || vel <= Epsilon {
		return blendArcResult{cause: degeneracyZeroLength}
	}
	radius := vel * vel / maxAccel
	tangentLen := radius * math.Tan(theta)

	if tangentLen >= prev.Length() || tangentLen >= next.Length() {
		// Segment too short to host the fillet at this velocity; the
		// corner has to decelerate instead. Caller should retry with a
		// lower vel or fall back to parabolic.
		return blendArcResult{cause: degeneracyZeroLength}
	}

	// Corner point and the two tangent points.
	corner := prev.PointAt(prev.Length()).Tran()
	p1 := corner.Sub(u1.Scale(tangentLen))
	p2 := corner.Add(u2.Scale(tangentLen))

	// Bisector direction gives the direction from corner to arc center;
	// the center lies at distance radius/cos(theta) from the corner
	// along the internal angle bisector, the same construction as the
	// original's cross-product-based plane normal and center solve.
	bis := u1.Scale(-1).Add(u2).Unit()
	centerDist := radius / math.Cos(theta)
	center := corner.Add(bis.Scale(centerDist))

	normal := u1.Cross(u2).Unit()
	if normal.IsZero() {
		// prev/next are anti-parallel or colinear in a way that leaves
		// no well-defined plane; decline rather than guess.
		return blendArcResult{cause: degeneracyDotOutOfRange}
	}

	startPose := prev.End.WithTran(p1)
	endPose := next.Start.WithTran(p2)
	sweep := 2 * theta

	arc := NewCartesianCircle(startPose, endPose, center, normal, sweep)

	// The value computed here is not used: the caller applies the arc's
	// velocity cap when it builds the arc segment through initNewSegment,
	// and re-clips the trimmed prev/next segments itself (SUPPLEMENTED
	// FEATURES: tpClipVelocityLimit re-applied post-splice).
	_ = clipVelocityLimit(vel, arc.ArcLength(), cycleTime)

	return blendArcResult{
		arc:   arc,
		trim1: tangentLen,
		trim2: tangentLen,
		ok:    true,
	}
}
