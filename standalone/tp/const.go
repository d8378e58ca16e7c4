package tp

// Epsilon is the numerical tolerance used throughout the planner for
// zero-length/parallel/degenerate checks. It is deliberately generous
// relative to float64 precision because the inputs are machine positions
// in millimeters, not unit-scale quantities.
const Epsilon = 1e-9

// InvalidMotionID is the sentinel id value matching MOTION_INVALID_ID in
// the original controller. The planner numbers segments from 1, so no
// queued segment carries it; Status reports it while the queue is empty.
const InvalidMotionID = 0

// TermCond selects how a segment blends into the one that follows it.
type TermCond int

const (
	// TermCondStop brings velocity to zero at the end of the segment
	// before the next one may start.
	TermCondStop TermCond = iota
	// TermCondParabolic overlaps the deceleration of this segment with
	// the acceleration of the next, without inserting geometry.
	TermCondParabolic
	// TermCondTangent requires the two segments to be geometrically
	// tangent (a blend arc bridges the corner) and blends velocity
	// smoothly through the corner without stopping.
	TermCondTangent
)

// MotionType classifies what kind of primitive a segment carries.
type MotionType int

const (
	MotionTypeTraverse MotionType = iota
	MotionTypeLinear
	MotionTypeCircular
	MotionTypeRigidTap
)
