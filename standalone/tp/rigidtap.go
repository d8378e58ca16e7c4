package tp

import "math"

// RigidTapState is the rigid-tap state machine's current phase,
// matching the five states tpHandleRigidTap cycles through: plunge in
// sync with the spindle, detect the programmed depth and reverse the
// spindle, retract back out along the same path, reverse the spindle
// again once clear, and hold at the final placement until the spindle
// is back up to speed for the next move.
type RigidTapState int

const (
	RigidTapTapping RigidTapState = iota
	RigidTapReversing
	RigidTapRetraction
	RigidTapFinalReversal
	RigidTapFinalPlacement
)

// rigidTapOverrun scales PitchPerRev (distance per spindle revolution)
// into the extra linear distance AddRigidTap adds to Target beyond the
// programmed plunge depth, so generic Done()/Remaining() callers
// don't see the segment as complete while Reversing is still waiting
// out the spindle in place.
const rigidTapOverrun = 10.0

// RigidTapParams holds the per-cycle parameters and persistent state of
// one rigid tap move. lastSpindlePos must survive across ticks within
// the tap (it was a function-local `static double` in the original;
// see SUPPLEMENTED FEATURES).
type RigidTapParams struct {
	State RigidTapState

	PitchPerRev float64 // commanded linear distance per spindle revolution (uu_per_rev)
	SpindleDir  float64 // +1 or -1, the direction commanded for the plunge

	// Start is the pose at the beginning of the original plunge. Every
	// later leg of the cycle rebuilds its own auxiliary line relative to
	// it, since the segment's geometry changes at each transition.
	Start Pose

	// ReversalTarget is the programmed plunge depth, recorded once at Add
	// time; it is what actually triggers Tapping -> Reversing, distinct
	// from tc.Target which carries the overrun allowance on top of it.
	ReversalTarget float64

	lastSpindlePos float64
	reversalPos    float64
}

// SpindleFeedback is what the rigid-tap state machine needs to read from
// the spindle encoder each cycle: position in revolutions and whether
// the drive has reached commanded (sync) speed.
type SpindleFeedback struct {
	PositionRevs float64
	AtSpeed      bool
}

// handleRigidTap advances the rigid-tap state machine by one cycle. It
// returns the linear distance the Z (or programmed) axis should move
// this tick, synchronized to the spindle's angular displacement via
// PitchPerRev, matching tpHandleRigidTap's velocity-mode spindle sync
// applied specifically to the plunge/retract legs of a tap cycle.
func handleRigidTap(rt *RigidTapParams, fb SpindleFeedback, tc *Segment, cycleTime float64) (distThisTick float64, complete bool) {
	switch rt.State {
	case RigidTapTapping:
		delta := fb.PositionRevs - rt.lastSpindlePos
		rt.lastSpindlePos = fb.PositionRevs
		distThisTick = delta * rt.PitchPerRev * rt.SpindleDir

		if tc.ProgressSoFar >= rt.ReversalTarget-Epsilon {
			rt.reversalPos = fb.PositionRevs
			rt.State = RigidTapReversing
		}
		return distThisTick, false

	case RigidTapReversing:
		// Commanded spindle reversal is issued by the caller (through
		// the spindle-sync HAL) when this state is first entered; here
		// we just wait for the encoder to actually show the direction
		// flip before starting the retract leg, so the Z axis never
		// outruns the spindle.
		rt.lastSpindlePos = fb.PositionRevs
		if reversed(rt, fb) {
			rebuildRetraction(rt, tc)
			rt.State = RigidTapRetraction
		}
		return 0, false

	case RigidTapRetraction:
		delta := fb.PositionRevs - rt.lastSpindlePos
		rt.lastSpindlePos = fb.PositionRevs
		distThisTick = delta * rt.PitchPerRev * -rt.SpindleDir

		if tc.Done() {
			rt.State = RigidTapFinalReversal
		}
		return distThisTick, false

	case RigidTapFinalReversal:
		rt.lastSpindlePos = fb.PositionRevs
		rebuildFinalPlacement(rt, tc)
		rt.State = RigidTapFinalPlacement
		return 0, false

	case RigidTapFinalPlacement:
		if fb.AtSpeed {
			return 0, true
		}
		return 0, false
	}
	return 0, true
}

// rebuildRetraction replaces tc's geometry with a fresh line running
// from wherever the plunge actually stopped straight back to the
// original start, giving the retract leg its own target distinct from
// the plunge's overrun allowance.
func rebuildRetraction(rt *RigidTapParams, tc *Segment) {
	here := tc.Geom.PointAt(math.Min(tc.ProgressSoFar, tc.Target))
	aux := NewCartesianLine(here, rt.Start)
	tc.Geom = aux
	tc.Target = aux.Length()
	tc.PureRotary = aux.pureRotary
	tc.ProgressSoFar = 0
}

// rebuildFinalPlacement replaces tc's geometry with a zero-length hold
// at the original start and raises ReqVel to MaxVel: the segment no
// longer paces itself to the spindle (sync is dropped for this leg), it
// just waits for the spindle to report AtSpeed.
func rebuildFinalPlacement(rt *RigidTapParams, tc *Segment) {
	tc.Geom = NewCartesianLine(rt.Start, rt.Start)
	tc.Target = 0
	tc.ProgressSoFar = 0
	tc.ReqVel = tc.MaxVel
}

// reversed reports whether the spindle encoder shows the direction
// reversal expected when leaving RigidTapReversing: the accumulated
// revolutions since reversalPos have moved back past a small hysteresis
// band, confirming the drive actually changed direction rather than
// merely commanding it.
func reversed(rt *RigidTapParams, fb SpindleFeedback) bool {
	const hysteresisRevs = 0.01
	return math.Abs(fb.PositionRevs-rt.reversalPos) > hysteresisRevs
}
