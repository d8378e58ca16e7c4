package tp

import "math"

// cycleResult carries a profiler tick's outcome beyond the raw distance
// traveled: onFinalDecel reports whether the segment is now committed to
// braking toward FinalVel (the blend driver uses this to decide when a
// parabolic blend with the next segment should start), and overshoot
// reports how much distance this tick would have carried past the
// segment's Target had it not been clamped, so a tangent-terminated
// segment can hand that distance (and its exit velocity) to whatever
// follows instead of just discarding it.
type cycleResult struct {
	dist         float64
	onFinalDecel bool
	overshoot    float64
}

// runCycle advances a single segment's progress by one cycle using a
// trapezoidal velocity profile with a non-zero final-velocity term: the
// segment decelerates early enough to arrive at finalVel exactly when
// its remaining distance hits zero, rather than always braking to a
// stop. This is the Go equivalent of tcRunCycle in the original.
//
// feedOverride scales the segment's requested velocity (1.0 at full
// feed, 0 while the planner is pausing or aborting, matching
// Planner.feedOverride's policy). finalVel is normally tc.FinalVel, but
// the caller passes 0 while pausing/aborting so the segment decelerates
// to a stop without the look-ahead optimizer's own value getting in the
// way. vLimit is the tool-tip velocity ceiling; skipVlimit exempts
// pure-rotary segments and segments locked to a position-mode spindle
// sync, which have no meaningful "tool tip" speed to cap.
func runCycle(tc *Segment, cycleTime, feedOverride, vLimit, finalVel float64, skipVlimit bool) cycleResult {
	remaining := tc.Target - tc.ProgressSoFar
	if remaining < 0 {
		remaining = 0
	}
	if remaining <= Epsilon {
		tc.CurrentVel = finalVel
		return cycleResult{}
	}

	accelScale := tc.AccelScale
	if accelScale <= Epsilon {
		accelScale = 1.0
	}
	scaledAccel := tc.MaxAccel * accelScale

	cruiseVel := tc.ReqVel * feedOverride
	if cruiseVel > tc.MaxVel {
		cruiseVel = tc.MaxVel
	}
	if !skipVlimit && !tc.PureRotary && vLimit > Epsilon && cruiseVel > vLimit {
		cruiseVel = vLimit
	}
	if cruiseVel < 0 {
		cruiseVel = 0
	}

	// Distance needed to decelerate from CurrentVel down to finalVel at
	// scaledAccel: v^2 = v0^2 - 2*a*d  =>  d = (v0^2 - vf^2) / (2*a)
	brakeDist := 0.0
	if scaledAccel > Epsilon {
		brakeDist = (tc.CurrentVel*tc.CurrentVel - finalVel*finalVel) / (2 * scaledAccel)
	}
	onFinalDecel := brakeDist >= remaining

	var targetVel float64
	switch {
	case onFinalDecel:
		targetVel = decelTargetVel(tc.CurrentVel, finalVel, scaledAccel, remaining, cycleTime)
	case tc.CurrentVel < cruiseVel-Epsilon:
		targetVel = tc.CurrentVel + scaledAccel*cycleTime
		if targetVel > cruiseVel {
			targetVel = cruiseVel
		}
	case tc.CurrentVel > cruiseVel+Epsilon:
		targetVel = tc.CurrentVel - scaledAccel*cycleTime
		if targetVel < cruiseVel {
			targetVel = cruiseVel
		}
	default:
		targetVel = cruiseVel
	}

	if targetVel < 0 {
		targetVel = 0
	}

	// Trapezoidal-integrate position using the average of old and new
	// velocity over the tick, matching the original's midpoint update.
	dist := 0.5 * (tc.CurrentVel + targetVel) * cycleTime
	overshoot := 0.0
	if dist > remaining {
		overshoot = dist - remaining
		dist = remaining
		targetVel = finalVel
	}

	tc.CurrentVel = targetVel
	tc.ProgressSoFar += dist
	return cycleResult{dist: dist, onFinalDecel: onFinalDecel, overshoot: overshoot}
}

// decelTargetVel returns the velocity to command this tick so that,
// decelerating at maxAccel, the segment reaches finalVel exactly as
// remaining distance hits zero. Solves the discrete-tick discriminant
// disc = finalVel^2 + a*(2*remaining - currentVel*cycleTime) + (a*cycleTime/2)^2
// for v = sqrt(disc) - a*cycleTime/2, then clips the single-tick delta
// to maxAccel*cycleTime so the segment never decelerates faster than its
// own limit allows.
func decelTargetVel(currentVel, finalVel, maxAccel, remaining, cycleTime float64) float64 {
	half := maxAccel * cycleTime / 2
	disc := finalVel*finalVel + maxAccel*(2*remaining-currentVel*cycleTime) + half*half
	if disc < 0 {
		disc = 0
	}
	v := math.Sqrt(disc) - half
	if v < finalVel {
		v = finalVel
	}
	maxDrop := maxAccel * cycleTime
	if currentVel-v > maxDrop {
		return currentVel - maxDrop
	}
	return v
}

// clipVelocityLimit re-applies the Nyquist-like sample-rate cap,
// maxvel <= 0.5 * target / cycleTime in the original's terms rephrased
// for a velocity already in units/sec: a segment may never be asked to
// move further in one tick than half its own length, or numerical error
// in the per-tick integration can overshoot. This is invoked both at Add
// time and, per SUPPLEMENTED FEATURES, again after a blend splice.
func clipVelocityLimit(vel, length, cycleTime float64) float64 {
	if cycleTime <= Epsilon || length <= Epsilon {
		return vel
	}
	cap := 0.5 * length / cycleTime
	if vel > cap {
		return cap
	}
	return vel
}
