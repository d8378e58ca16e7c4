package tp

import "math"

// RunCycle advances the trajectory planner by exactly one cycle time and
// returns the resulting status block. This is the Go equivalent of
// tpRunCycle, the sole entry point the real-time thread calls once per
// tick; every step below runs in bounded time with no allocation on the
// steady-state path, per the concurrency model.
func (tp *Planner) RunCycle() Status {
	if tp.aborting {
		return tp.runAbortingCycle()
	}

	tc := tp.q.Get(0)
	if tc == nil {
		return tp.handleEmptyQueue()
	}

	tp.activateIfNeeded(tc)

	switch {
	case tc.RigidTap != nil:
		tp.runRigidTapCycle(tc)
		tp.lastMotionType = tc.Type
	case tp.spindle.Mode != SpindleSyncNone:
		tp.runSyncedCycle(tc)
		tp.lastMotionType = tc.Type
	default:
		tp.runBlendableCycle(tc)
	}

	if tp.segmentComplete(tc) {
		tp.completeSegment()
	}

	// Look-ahead optimization runs once per cycle over the remaining
	// queue, bounded by LookaheadDepth so its cost per tick is constant
	// regardless of how deep the queue is.
	runOptimization(tp.q, tp.cfg.LookaheadDepth)

	return tp.status()
}

// runBlendableCycle drives one ordinary (non-rigid-tap, non-spindle-
// synced) segment through the profiler, then applies whichever of the
// two runtime blend regimes tc's TermCond calls for against the next
// queued segment: a parabolic blend overlaps tc's deceleration with
// next's acceleration, summing their velocities and displacements for
// as long as both are running (no geometry bridges the corner, so both
// segments simply run at once); a tangent blend instead transfers
// whatever distance and velocity a tick would have carried past tc's
// Target onto next's leading edge, keeping the handoff continuous in
// position and velocity across the arc a tangent join already bridges
// geometrically. Either way, tc stays the "primary" segment for status
// and DIO purposes until it actually completes and is popped.
func (tp *Planner) runBlendableCycle(tc *Segment) {
	next := tp.q.Get(1)

	if tc.Term == TermCondParabolic {
		tc.AccelScale = 0.5
	}
	finalVel := tp.effectiveFinalVel(tc)
	feed := tp.feedOverride(tc)
	res := runCycle(tc, tp.cfg.CycleTime, feed, tp.cfg.VLimit, finalVel, tc.PureRotary)

	switch {
	case tc.Term == TermCondParabolic && next != nil && res.onFinalDecel:
		tp.activateIfNeeded(next)
		next.AccelScale = 0.5
		tc.Blending = true

		nFinal := tp.effectiveFinalVel(next)
		nFeed := tp.feedOverride(next)
		runCycle(next, tp.cfg.CycleTime, nFeed, tp.cfg.VLimit, nFinal, next.PureRotary)

		// Velocity-summation: report the pair's combined speed on the
		// active segment, matching the original folding both tc and
		// nexttc's contribution into a single reported currentvel while
		// they overlap.
		tc.CurrentVel += next.CurrentVel
		tp.pos = tc.Geom.PointAt(math.Min(tc.ProgressSoFar, tc.Target)).
			Add(next.Geom.PointAt(next.ProgressSoFar).Sub(next.Geom.PointAt(0)))

	case tc.Term == TermCondTangent && next != nil && res.overshoot > Epsilon:
		tp.activateIfNeeded(next)
		next.ProgressSoFar += res.overshoot
		next.CurrentVel = tc.CurrentVel
		tc.Blending = true
		tp.pos = tc.Geom.PointAt(tc.ProgressSoFar)

	default:
		tp.pos = tc.Geom.PointAt(tc.ProgressSoFar)
	}

	tp.lastMotionType = tc.Type
}

// runAbortingCycle drains the active segment (and its blending neighbor,
// if one exists) to zero velocity exactly like a Pause, then performs
// the deferred full reset once both are at rest, matching tpAbort's
// level-triggered drain-then-reset rather than an immediate halt.
func (tp *Planner) runAbortingCycle() Status {
	tc := tp.q.Get(0)
	if tc == nil {
		tp.finishAbort()
		return tp.status()
	}

	next := tp.q.Get(1)
	runCycle(tc, tp.cfg.CycleTime, 0, tp.cfg.VLimit, 0, tc.PureRotary)
	tp.pos = tc.Geom.PointAt(tc.ProgressSoFar)

	if next != nil && tc.Blending {
		runCycle(next, tp.cfg.CycleTime, 0, tp.cfg.VLimit, 0, next.PureRotary)
		tp.pos = tp.pos.Add(next.Geom.PointAt(next.ProgressSoFar).Sub(next.Geom.PointAt(0)))
	}
	tp.lastMotionType = tc.Type

	drained := tc.CurrentVel <= Epsilon && (next == nil || next.CurrentVel <= Epsilon)
	if drained {
		tp.finishAbort()
	}
	return tp.status()
}

// activateIfNeeded performs the one-time setup for a segment that has
// just become eligible to run: firing its staged DIO/AIO and requesting
// any rotary unlock it needs before motion may begin, matching
// tpActivateSegment/tpToggleDIOs. The blend driver calls this on the
// next segment lazily, the first tick it starts receiving blended
// progress or velocity, rather than eagerly when it first reaches the
// head of the queue.
func (tp *Planner) activateIfNeeded(tc *Segment) {
	if tc.ProgressSoFar != 0 {
		return // already active
	}
	if tc.SyncDIO.DigitalMask != 0 {
		tp.hal.DioWrite(tc.SyncDIO.DigitalMask, tc.SyncDIO.DigitalValue)
	}
	for i, idx := range tc.SyncDIO.AnalogIdx {
		tp.hal.AioWrite(idx, tc.SyncDIO.AnalogVal[i])
	}
	if tc.IndexRotary >= 0 {
		tp.hal.RotaryUnlock(tc.IndexRotary)
	}
	if tc.RigidTap != nil {
		tp.rigidTap = tc.RigidTap
	}
}

// runRigidTapCycle drives the rigid-tap state machine for the active
// segment, matching tpHandleRigidTap's role within tpRunCycle.
func (tp *Planner) runRigidTapCycle(tc *Segment) {
	fb := tp.hal.ReadSpindle()
	prev := tc.RigidTap.State
	dist, _ := handleRigidTap(tc.RigidTap, fb, tc, tp.cfg.CycleTime)
	if st := tc.RigidTap.State; st != prev && (st == RigidTapReversing || st == RigidTapFinalReversal) {
		tp.hal.CommandSpindleReverse()
	}
	tp.advancePosition(tc, dist)
}

// runSyncedCycle drives a segment whose feed is locked to the spindle
// rather than to its own trapezoidal profile, matching
// tpSyncVelocityMode/tpSyncPositionMode invoked from tpRunCycle.
func (tp *Planner) runSyncedCycle(tc *Segment) {
	fb := tp.hal.ReadSpindle()
	switch tp.spindle.Mode {
	case SpindleSyncVelocity:
		vel := syncVelocityMode(&tp.spindle, fb.PositionRevs)
		dist := vel * tp.cfg.CycleTime
		if dist > tc.Remaining() {
			dist = tc.Remaining()
		}
		tp.advancePosition(tc, dist)
	case SpindleSyncPosition:
		target := syncPositionMode(&tp.spindle, fb.PositionRevs, 0, tc.Target)
		dist := target - tc.ProgressSoFar
		if dist < 0 {
			dist = 0
		}
		tp.advancePosition(tc, dist)
	}
}

// advancePosition moves the planner's reported position forward by dist
// along tc's geometry and accumulates progress, matching
// tpFindDisplacement/tpUpdatePosition.
func (tp *Planner) advancePosition(tc *Segment, dist float64) {
	if dist <= 0 {
		return
	}
	tc.ProgressSoFar += dist
	if tc.ProgressSoFar > tc.Target {
		tc.ProgressSoFar = tc.Target
	}
	tp.pos = tc.Geom.PointAt(tc.ProgressSoFar)
}

// segmentComplete reports whether the active segment should be popped
// this cycle, matching tpUpdateMovementStatus's completion check: a
// plain segment is complete once fully traversed, a rigid tap is
// complete once its state machine reports FinalPlacement with the
// spindle back at speed.
func (tp *Planner) segmentComplete(tc *Segment) bool {
	if tc.RigidTap != nil {
		return tc.RigidTap.State == RigidTapFinalPlacement && tp.hal.ReadSpindle().AtSpeed
	}
	return tc.Done()
}

// completeSegment pops the finished head segment, matching
// tpCompleteSegment: relocks any rotary axis it had requested unlocked,
// and if the new head is about to run under the same spindle sync as
// the one just finished, forces its ReqVel up to MaxVel so a chain of
// synced segments (e.g. a multi-pass thread) doesn't re-ramp from zero
// at every segment boundary.
func (tp *Planner) completeSegment() {
	tc := tp.q.Pop()
	if tc == nil {
		return
	}
	if tc.RigidTap != nil {
		tp.rigidTap = nil
	}
	if head := tp.q.Get(0); head != nil && tp.spindle.Mode != SpindleSyncNone {
		head.ReqVel = head.MaxVel
	}
}

// handleEmptyQueue is invoked when RunCycle finds nothing queued,
// matching tpHandleEmptyQueue: the planner reports itself idle at its
// last known position rather than treating an empty queue as an error.
func (tp *Planner) handleEmptyQueue() Status {
	tp.lastMotionType = MotionTypeTraverse
	return tp.status()
}

func (tp *Planner) status() Status {
	tc := tp.q.Get(0)
	id := 0
	blending := false
	if tc != nil {
		id = tc.ID
		blending = tc.Blending
	}
	return Status{
		Pos:         tp.pos,
		MotionType:  tp.lastMotionType,
		ID:          id,
		QueueDepth:  tp.q.Len(),
		ActiveDepth: tp.ActiveDepth(),
		Done:        tp.q.Empty(),
		Pausing:     tp.pausing,
		Aborting:    tp.aborting,
		Blending:    blending,
	}
}
