package tp

// Status is the per-cycle telemetry snapshot RunCycle hands back,
// matching the original's EMC_TRAJ_STAT-style status block: current
// commanded position, motion type in progress, and queue occupancy.
type Status struct {
	Pos         Pose
	MotionType  MotionType
	ID          int
	QueueDepth  int
	ActiveDepth int
	Done        bool
	Pausing     bool // a Pause is in effect; the active segment is decelerating to rest
	Aborting    bool // an Abort is draining velocity before the queue is actually cleared
	Blending    bool // the active segment is currently overlapping with the next at runtime
}
