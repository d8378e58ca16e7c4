package tp

import (
	"fmt"
	"math"

	"gocnc/core"
)

// Config holds the planner's tunable limits and queue sizing, loaded
// from the machine configuration the same way axis limits are.
type Config struct {
	CycleTime       float64 // seconds per RunCycle invocation
	VMax            float64 // absolute machine velocity ceiling
	VLimit          float64 // programmed velocity ceiling (<= VMax)
	AMax            float64 // absolute machine acceleration ceiling
	QueueSize       int
	LookaheadDepth  int
	EnableBlendArcs bool // see DESIGN.md: defaults to false
}

// DefaultConfig returns conservative defaults matching the scale of the
// teacher's default axis configuration (mm/s, mm/s^2).
func DefaultConfig() Config {
	return Config{
		CycleTime:       0.001,
		VMax:            300.0,
		VLimit:          300.0,
		AMax:            3000.0,
		QueueSize:       64,
		LookaheadDepth:  16,
		EnableBlendArcs: false,
	}
}

// Planner is the trajectory planner core: the Go equivalent of
// TP_STRUCT. It has no internal locking and its queue uses no atomic
// operations, so Add*/control methods and RunCycle are not safe to call
// concurrently from different goroutines.
type Planner struct {
	cfg Config
	hal HAL

	q *Queue

	pos      Pose
	nextID   int
	termCond TermCond

	// pausing/aborting are level-triggered requests the cycle driver
	// acts on every tick rather than instant state changes: both force
	// the active segment's effective final velocity to 0 so the profiler
	// decelerates to rest in place instead of freezing or discarding the
	// queue outright (see RunCycle/effectiveFinalVel/feedOverride).
	pausing  bool
	aborting bool

	// feedScale is the net feed override applied to synced-cycle-free
	// segments' requested velocity, matching tpSetFeedOverride-style
	// override controls; 1.0 is full programmed feed.
	feedScale float64

	pendingDIO SyncDIO

	spindle  SpindleSync
	rigidTap *RigidTapParams

	lastMotionType MotionType
}

// NewPlanner constructs a planner with the given limits and hardware
// shim. A NullHAL can be passed where no real hardware is attached.
func NewPlanner(cfg Config, hal HAL) *Planner {
	if hal == nil {
		hal = NullHAL{}
	}
	return &Planner{
		cfg:       cfg,
		hal:       hal,
		q:         NewQueue(cfg.QueueSize),
		termCond:  TermCondStop,
		feedScale: 1.0,
	}
}

// SetFeedScale sets the net feed override applied to ordinary
// (non-traverse, non-position-synced) segments. Negative values are
// rejected; 0 is accepted and brings those segments to rest.
func (tp *Planner) SetFeedScale(s float64) int {
	if s < 0 {
		return StatusBadInput
	}
	tp.feedScale = s
	return StatusOK
}

// feedOverride returns the velocity scale factor the profiler should
// apply to tc.ReqVel this cycle: 0 while pausing or aborting (forcing a
// decelerate-to-stop), 1.0 for traverse moves and segments locked to a
// position-mode spindle sync (neither obeys a feed override), and the
// planner's net feedScale otherwise.
func (tp *Planner) feedOverride(tc *Segment) float64 {
	if tp.pausing || tp.aborting {
		return 0
	}
	if tc.Type == MotionTypeTraverse {
		return 1.0
	}
	if tp.spindle.Mode == SpindleSyncPosition {
		return 1.0
	}
	return tp.feedScale
}

// effectiveFinalVel returns the final velocity the profiler should aim
// for this cycle: 0 while pausing or aborting, regardless of whatever
// the look-ahead optimizer last computed for tc.FinalVel, so the
// segment decelerates to rest without the queue being discarded.
func (tp *Planner) effectiveFinalVel(tc *Segment) float64 {
	if tp.pausing || tp.aborting {
		return 0
	}
	return tc.FinalVel
}

// SetCycleTime, SetVmax, SetVlimit, SetAmax update the planner's global
// limits, matching tpSetCycleTime/tpSetVmax/tpSetVlimit/tpSetAmax. They
// return StatusBadInput for non-positive values.
func (tp *Planner) SetCycleTime(t float64) int {
	if t <= 0 {
		return StatusBadInput
	}
	tp.cfg.CycleTime = t
	return StatusOK
}

func (tp *Planner) SetVmax(v float64) int {
	if v <= 0 {
		return StatusBadInput
	}
	tp.cfg.VMax = v
	return StatusOK
}

func (tp *Planner) SetVlimit(v float64) int {
	if v <= 0 {
		return StatusBadInput
	}
	tp.cfg.VLimit = v
	return StatusOK
}

func (tp *Planner) SetAmax(a float64) int {
	if a <= 0 {
		return StatusBadInput
	}
	tp.cfg.AMax = a
	return StatusOK
}

// SetTermCond sets the termination condition to apply to the next
// segment added, matching tpSetTermCond.
func (tp *Planner) SetTermCond(term TermCond) {
	tp.termCond = term
}

// SetPos forcibly sets the planner's current position (used after
// homing or a G92-style offset), matching tpSetPos. Only valid while
// the queue is empty.
func (tp *Planner) SetPos(p Pose) int {
	if !tp.q.Empty() {
		return StatusBadInput
	}
	tp.pos = p
	return StatusOK
}

// GetPos returns the last commanded position.
func (tp *Planner) GetPos() Pose { return tp.pos }

// SetDout/SetAout stage a digital/analog output change to fire with the
// next segment added to the queue, matching tpSetDout/tpSetAout's
// syncdio staging.
func (tp *Planner) SetDout(idx int, val bool)     { tp.pendingDIO.SetDigital(idx, val) }
func (tp *Planner) SetAout(idx int, val float64)  { tp.pendingDIO.SetAnalog(idx, val) }

// SetSpindleSync arms spindle synchronization for the next segments
// added, matching tpSetSpindleSync.
func (tp *Planner) SetSpindleSync(mode SpindleSyncMode, feedPerRev float64) {
	tp.spindle.Mode = mode
	tp.spindle.FeedPerRev = feedPerRev
}

func clampToLimits(vel, accel float64, cfg Config) (float64, float64) {
	if vel > cfg.VLimit {
		vel = cfg.VLimit
	}
	if vel > cfg.VMax {
		vel = cfg.VMax
	}
	if accel > cfg.AMax {
		accel = cfg.AMax
	}
	return vel, accel
}

// errorCheck validates a candidate segment's basic numeric sanity,
// matching tpErrorCheck: non-negative velocity/accel and a
// strictly-positive length. NaN and infinite values are not checked.
func errorCheck(vel, accel, length float64) int {
	if vel < 0 || accel < 0 {
		return StatusBadInput
	}
	if length <= Epsilon {
		return StatusBadInput
	}
	return StatusOK
}

// initNewSegment builds the common Segment fields shared by every Add*
// call, matching tpInitializeNewSegment: clips requested vel/accel to
// the machine limits, applies the Nyquist velocity cap, and attaches any
// staged DIO.
func (tp *Planner) initNewSegment(geom Geometry, mtype MotionType, vel, accel float64) *Segment {
	vel, accel = clampToLimits(vel, accel, tp.cfg)
	length := geom.Length()
	maxVel := clipVelocityLimit(vel, length, tp.cfg.CycleTime)

	pureRotary := false
	if line, ok := geom.(CartesianLine); ok {
		pureRotary = line.pureRotary
	}

	tp.nextID++
	tc := &Segment{
		ID:          tp.nextID,
		Type:        mtype,
		Term:        tp.termCond,
		Geom:        geom,
		Target:      length,
		MaxVel:      maxVel,
		ReqVel:      vel,
		MaxAccel:    accel,
		AccelScale:  1.0,
		PureRotary:  pureRotary,
		FinalVel:    0,
		SyncDIO:     tp.pendingDIO,
		IndexRotary: -1,
	}
	tp.pendingDIO = SyncDIO{}
	return tc
}

// AddLine queues a straight-line move from the planner's current
// position to end, matching tpAddLine. Returns the new segment's id on
// success or a negative Status code.
func (tp *Planner) AddLine(end Pose, vel, accel float64) int {
	line := NewCartesianLine(tp.pos, end)
	if st := errorCheck(vel, accel, line.Length()); st != StatusOK {
		return st
	}

	tc := tp.initNewSegment(line, MotionTypeLinear, vel, accel)
	if !tp.tryBlendInto(tc, line) {
		if !tp.q.Enqueue(tc) {
			tp.nextID--
			return StatusQueueFull
		}
	}

	tp.pos = end
	return tc.ID
}

// AddCircle queues a circular or helical arc, matching tpAddCircle. The
// Nyquist cap is derived from the true helix length per SUPPLEMENTED
// FEATURES, not the chord.
func (tp *Planner) AddCircle(end Pose, center, normal Vector, angle, vel, accel float64) int {
	circle := NewCartesianCircle(tp.pos, end, center, normal, angle)
	if st := errorCheck(vel, accel, circle.ArcLength()); st != StatusOK {
		return st
	}

	tc := tp.initNewSegment(circle, MotionTypeCircular, vel, accel)
	if !tp.q.Enqueue(tc) {
		tp.nextID--
		return StatusQueueFull
	}

	tp.pos = end
	return tc.ID
}

// AddRigidTap queues a synchronized rigid-tap cycle: a plunge to end at
// pitchPerRev synchronized to the spindle, followed automatically (by
// the cycle driver's rigid-tap state machine) by the spindle reversal
// and retraction legs, matching tpAddRigidTap.
func (tp *Planner) AddRigidTap(end Pose, pitchPerRev, spindleDir float64) int {
	line := NewCartesianLine(tp.pos, end)
	if st := errorCheck(1, 1, line.Length()); st != StatusOK {
		return st
	}
	if pitchPerRev <= Epsilon {
		return StatusBadInput
	}

	vel := tp.cfg.VLimit
	tc := tp.initNewSegment(line, MotionTypeRigidTap, vel, tp.cfg.AMax)
	tc.Term = TermCondStop
	tc.RigidTap = &RigidTapParams{
		State:          RigidTapTapping,
		PitchPerRev:    pitchPerRev,
		SpindleDir:     spindleDir,
		Start:          tp.pos,
		ReversalTarget: line.Length(),
	}
	// Tapping's own Done() check uses ReversalTarget directly; Target
	// carries an overrun allowance on top of it so generic Remaining()
	// callers don't see the segment as complete while Reversing waits
	// out the spindle in place (see rigidtap.go).
	tc.Target = tc.RigidTap.ReversalTarget + rigidTapOverrun*pitchPerRev

	if !tp.q.Enqueue(tc) {
		tp.nextID--
		return StatusQueueFull
	}
	tp.pos = end
	return tc.ID
}

// tryBlendInto attempts to splice a blend arc between the new line and
// the segment currently at the tail of the queue, when blend arcs are
// enabled and the new segment is tangent-terminated. Returns true if it
// consumed tc into a spliced (arc + trimmed-and-requeued) pair, false if
// the caller should just enqueue tc normally.
func (tp *Planner) tryBlendInto(tc *Segment, line CartesianLine) bool {
	if !tp.cfg.EnableBlendArcs || tc.Term != TermCondTangent {
		return false
	}
	tail := tp.q.Get(tp.q.Len() - 1)
	if tail == nil || tail.Type != MotionTypeLinear || tail.IsBlendArc {
		return false
	}
	prevLine, ok := tail.Geom.(CartesianLine)
	if !ok {
		return false
	}

	maxAngle := maxTangentAngle(tc.MaxVel, tc.MaxAccel, tp.cfg.CycleTime)
	needed, cause := checkNeedBlendArc(prevLine, line, maxAngle)
	if cause != degeneracyNone {
		core.DebugPrintln(fmt.Sprintf("tp: blend angle degenerate (%d), falling back to parabolic", cause))
		return false
	}
	if !needed {
		return false
	}

	res := createBlendArc(prevLine, line, tc.MaxVel, tc.MaxAccel, tp.cfg.CycleTime)
	if !res.ok {
		core.DebugPrintln("tp: blend arc construction declined, falling back to parabolic")
		return false
	}

	// Trim the tail segment's geometry and re-clip its velocity cap
	// (SUPPLEMENTED FEATURES: re-applied post-splice, not just at Add).
	trimmedPrev := NewCartesianLine(prevLine.Start, prevLine.PointAt(prevLine.Length()-res.trim1))
	tail.Geom = trimmedPrev
	tail.Target = trimmedPrev.Length()
	tail.MaxVel = clipVelocityLimit(tail.MaxVel, trimmedPrev.Length(), tp.cfg.CycleTime)
	tail.Term = TermCondTangent

	arcSeg := tp.initNewSegment(res.arc, MotionTypeCircular, tc.MaxVel, tc.MaxAccel)
	arcSeg.IsBlendArc = true
	arcSeg.Term = TermCondTangent
	// A blend arc shares the machine's acceleration budget between its
	// normal (centripetal) and tangential components, so it only gets
	// 1/sqrt(2) of MaxAccel for the tangential (speed-changing) part the
	// profiler drives it with.
	arcSeg.AccelScale = 1 / math.Sqrt2
	if !tp.q.Enqueue(arcSeg) {
		tp.nextID--
		return false
	}

	trimmedNext := NewCartesianLine(line.PointAt(res.trim2), line.End)
	tc.Geom = trimmedNext
	tc.Target = trimmedNext.Length()
	tc.MaxVel = clipVelocityLimit(tc.MaxVel, trimmedNext.Length(), tp.cfg.CycleTime)
	if !tp.q.Enqueue(tc) {
		tp.nextID--
		return false
	}

	return true
}

// QueueDepth returns the number of segments currently queued.
func (tp *Planner) QueueDepth() int { return tp.q.Len() }

// ActiveDepth returns 1 if a segment is currently active (head of
// queue), 0 otherwise.
func (tp *Planner) ActiveDepth() int {
	if tp.q.Empty() {
		return 0
	}
	return 1
}

// IsDone reports whether the queue has fully drained.
func (tp *Planner) IsDone() bool { return tp.q.Empty() }

// GetMotionType returns the motion type of the most recently active
// segment.
func (tp *Planner) GetMotionType() MotionType { return tp.lastMotionType }

// Pause arms a level-triggered request, matching tpPause: the profiler
// forces the active segment's final velocity to 0 and keeps running, so
// motion decelerates to rest over maxvel/maxaccel seconds rather than
// freezing in place, without discarding anything already queued.
func (tp *Planner) Pause() { tp.pausing = true }

// Resume clears the pause request, matching tpResume: the next RunCycle
// resumes accelerating the active segment back toward its programmed
// velocity from wherever it decelerated to.
func (tp *Planner) Resume() { tp.pausing = false }

// Abort arms a level-triggered drain-then-reset, matching tpAbort: the
// cycle driver decelerates the active segment (and its blending
// neighbor, if any) to zero exactly as Pause does, and only once both
// are at rest does it perform the actual queue clear and rigid-tap
// reset. An empty queue has nothing to drain, so it resets immediately.
func (tp *Planner) Abort() {
	if tp.q.Empty() {
		tp.finishAbort()
		return
	}
	tp.aborting = true
}

// finishAbort performs the actual reset once the drain is complete (or
// was never needed).
func (tp *Planner) finishAbort() {
	tp.q.Clear()
	tp.rigidTap = nil
	tp.aborting = false
	tp.pausing = false
}
