package planner

import (
	"errors"
	"math"

	"gocnc/core"
	standalone "gocnc/standalone/types"
	"gocnc/standalone/kinematics"
	"gocnc/standalone/stepgen"
	"gocnc/standalone/tp"
)

// Planner is the standalone-mode motion front end: it validates moves
// against the configured kinematics, hands them to the trajectory
// planner core, and drives the physical steppers off the core's
// per-cycle position output on a scheduled timer, the same way the
// original hand-rolled trapezoid driver scheduled its completion timer.
type Planner struct {
	config     *standalone.MachineConfig
	kinematics kinematics.Kinematics
	steppers   map[string]*stepgen.Stepper

	core *tp.Planner

	cycleTicks uint32
	running    bool
}

// NewPlanner creates a new motion planner backed by the trajectory
// planner core, sized from the machine's Planner configuration section.
func NewPlanner(config *standalone.MachineConfig, kin kinematics.Kinematics) *Planner {
	cfg := tp.Config{
		CycleTime:       config.Planner.CycleTime,
		VMax:            config.Planner.VMax,
		VLimit:          config.Planner.VLimit,
		AMax:            config.Planner.AMax,
		QueueSize:       config.Planner.QueueSize,
		LookaheadDepth:  config.Planner.LookaheadDepth,
		EnableBlendArcs: config.Planner.EnableBlendArcs,
	}
	if cfg.CycleTime <= 0 {
		cfg = tp.DefaultConfig()
	}

	return &Planner{
		config:     config,
		kinematics: kin,
		steppers:   make(map[string]*stepgen.Stepper),
		core:       tp.NewPlanner(cfg, tp.NullHAL{}),
		cycleTicks: secondsToTicks(cfg.CycleTime),
	}
}

// InitSteppers initializes stepper motors for all configured axes.
func (p *Planner) InitSteppers(gpioDriver core.GPIODriver) error {
	axisNames := p.kinematics.GetAxisNames()

	for _, name := range axisNames {
		axisConfig, ok := p.config.Axes[name]
		if !ok {
			continue // Skip if axis not configured
		}

		stepper, err := stepgen.NewStepper(name, axisConfig)
		if err != nil {
			return err
		}

		if err := stepper.InitPins(gpioDriver); err != nil {
			return err
		}

		p.steppers[name] = stepper
	}

	return nil
}

// QueueMove adds a straight-line move to the trajectory planner.
func (p *Planner) QueueMove(move *standalone.Move) error {
	if err := p.kinematics.CheckLimits(move.End); err != nil {
		return err
	}

	pose := positionToPose(move.End)
	if st := p.core.AddLine(pose, move.Velocity, move.Accel); st < 0 {
		return statusError(st)
	}

	p.startIfIdle()
	return nil
}

// QueueArc adds a circular move (G2/G3) to the trajectory planner. The
// arc center is given as an (I, J) offset from Start, matching the
// standard G-code arc word convention; R-word arcs are not supported.
func (p *Planner) QueueArc(move *standalone.ArcMove) error {
	if err := p.kinematics.CheckLimits(move.End); err != nil {
		return err
	}

	start := positionToPose(move.Start).Tran()
	center := tp.Vector{X: start.X + move.CenterX, Y: start.Y + move.CenterY, Z: start.Z}
	normal := tp.Vector{Z: 1}
	if move.Clockwise {
		normal = tp.Vector{Z: -1}
	}

	angle := arcSweepAngle(move, center, normal)

	pose := positionToPose(move.End)
	if st := p.core.AddCircle(pose, center, normal, angle, move.Velocity, move.Accel); st < 0 {
		return statusError(st)
	}

	p.startIfIdle()
	return nil
}

// QueueRigidTap adds a synchronized tapping cycle (G84) to the
// trajectory planner.
func (p *Planner) QueueRigidTap(move *standalone.RigidTapMove) error {
	if err := p.kinematics.CheckLimits(move.End); err != nil {
		return err
	}

	pose := positionToPose(move.End)
	if st := p.core.AddRigidTap(pose, move.PitchPerRev, move.SpindleDir); st < 0 {
		return statusError(st)
	}

	p.startIfIdle()
	return nil
}

// startIfIdle kicks off the cycle timer the first time work is queued;
// subsequent cycles reschedule themselves.
func (p *Planner) startIfIdle() {
	if p.running {
		return
	}
	p.running = true
	p.scheduleCycle()
}

func (p *Planner) scheduleCycle() {
	timer := &core.Timer{
		WakeTime: core.GetSystemTime() + p.cycleTicks,
		Handler:  p.onCycleTimer,
	}
	core.ScheduleTimer(timer)
}

// onCycleTimer runs one trajectory planner cycle and drives the
// steppers toward the resulting setpoint, matching how the original
// hand-rolled driver scheduled a completion timer per move — here the
// timer fires once per planner cycle instead of once per move.
func (p *Planner) onCycleTimer(t *core.Timer) uint8 {
	status := p.core.RunCycle()
	p.driveSteppers(status)

	if status.Done {
		p.running = false
		return core.SF_DONE
	}

	t.WakeTime = core.GetSystemTime() + p.cycleTicks
	return core.SF_RESCHEDULE
}

func (p *Planner) driveSteppers(status tp.Status) {
	target := poseToPosition(status.Pos)
	endPositions, err := p.kinematics.CalcPosition(target)
	if err != nil {
		return
	}

	axisNames := p.kinematics.GetAxisNames()
	for i, name := range axisNames {
		if i >= len(endPositions) {
			break
		}
		stepper, ok := p.steppers[name]
		if !ok {
			continue
		}
		stepper.MoveTo(endPositions[i], p.config.Planner.VLimit, p.config.Planner.AMax)
	}
}

// GetCurrentPosition returns the current position.
func (p *Planner) GetCurrentPosition() standalone.Position {
	return poseToPosition(p.core.GetPos())
}

// SetPosition sets the current position (used after homing or G92).
func (p *Planner) SetPosition(pos standalone.Position) {
	p.core.SetPos(positionToPose(pos))

	positions, err := p.kinematics.CalcPosition(pos)
	if err != nil {
		return
	}

	axisNames := p.kinematics.GetAxisNames()
	for i, name := range axisNames {
		if i >= len(positions) {
			break
		}
		if stepper, ok := p.steppers[name]; ok {
			stepper.SetPosition(positions[i])
		}
	}
}

// ClearQueue requests a trajectory abort. Abort is level-triggered (see
// tp.Planner.Abort): if a move is in flight, the cycle timer already
// scheduled keeps calling RunCycle and driveSteppers every tick while
// the core drains velocity to zero, and stops itself once the drain
// completes and the core reports Done. Only an already-idle queue has
// nothing to drain, so steppers are halted immediately in that case
// instead of waiting on a timer that isn't running.
func (p *Planner) ClearQueue() {
	wasRunning := p.running
	p.core.Abort()

	if !wasRunning {
		for _, stepper := range p.steppers {
			stepper.Stop()
		}
	}
}

// IsIdle returns true if no moves are queued or executing.
func (p *Planner) IsIdle() bool {
	return p.core.IsDone()
}

// Pause and Resume control the underlying trajectory planner core.
func (p *Planner) Pause()  { p.core.Pause() }
func (p *Planner) Resume() { p.core.Resume() }

// WaitIdle blocks until all moves are complete.
func (p *Planner) WaitIdle() error {
	// In embedded context, we can't block. Caller should poll IsIdle().
	return errors.New("WaitIdle not supported in embedded mode")
}

func positionToPose(pos standalone.Position) tp.Pose {
	return tp.Pose{X: pos.X, Y: pos.Y, Z: pos.Z, U: pos.E}
}

func poseToPosition(pose tp.Pose) standalone.Position {
	return standalone.Position{X: pose.X, Y: pose.Y, Z: pose.Z, E: pose.U}
}

// arcSweepAngle computes the total angle (radians, always positive)
// swept from Start to End around center in the requested direction.
func arcSweepAngle(move *standalone.ArcMove, center, normal tp.Vector) float64 {
	start := tp.Vector{X: move.Start.X, Y: move.Start.Y, Z: move.Start.Z}
	end := tp.Vector{X: move.End.X, Y: move.End.Y, Z: move.End.Z}

	sv := start.Sub(center)
	ev := end.Sub(center)

	u := sv.Unit()
	v := normal.Cross(u)

	x := ev.Dot(u)
	y := ev.Dot(v)
	angle := math.Atan2(y, x)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	if angle < tp.Epsilon && sv.Sub(ev).Mag() < tp.Epsilon {
		angle = 2 * math.Pi // full circle
	}
	return angle
}

func statusError(status int) error {
	switch status {
	case tp.StatusQueueFull:
		return errors.New("trajectory queue full")
	case tp.StatusBadInput:
		return errors.New("invalid move parameters")
	default:
		return errors.New("trajectory planner rejected move")
	}
}

func secondsToTicks(seconds float64) uint32 {
	return uint32(seconds * float64(core.GetTimerFrequency()))
}
