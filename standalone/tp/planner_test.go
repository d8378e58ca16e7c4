package tp

import (
	"math"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CycleTime = 0.01
	cfg.VMax = 100
	cfg.VLimit = 100
	cfg.AMax = 1000
	return cfg
}

func runToIdle(t *testing.T, p *Planner, maxCycles int) Status {
	t.Helper()
	var st Status
	for i := 0; i < maxCycles; i++ {
		st = p.RunCycle()
		if st.Done {
			return st
		}
	}
	t.Fatalf("planner did not drain queue within %d cycles", maxCycles)
	return st
}

func TestSingleLineReachesTarget(t *testing.T) {
	p := NewPlanner(testConfig(), NullHAL{})
	id := p.AddLine(Pose{X: 10}, 20, 200)
	if id <= 0 {
		t.Fatalf("AddLine returned status %d", id)
	}

	st := runToIdle(t, p, 10000)
	if math.Abs(st.Pos.X-10) > 1e-6 {
		t.Fatalf("expected X=10, got %v", st.Pos.X)
	}
}

func TestTwoCollinearLinesParabolicBlend(t *testing.T) {
	cfg := testConfig()
	cfg.EnableBlendArcs = false
	p := NewPlanner(cfg, NullHAL{})

	p.SetTermCond(TermCondParabolic)
	p.AddLine(Pose{X: 5}, 20, 200)
	p.SetTermCond(TermCondStop)
	p.AddLine(Pose{X: 10}, 20, 200)

	st := runToIdle(t, p, 10000)
	if math.Abs(st.Pos.X-10) > 1e-6 {
		t.Fatalf("expected X=10, got %v", st.Pos.X)
	}
}

func TestRightAngleCornerBlendArc(t *testing.T) {
	cfg := testConfig()
	cfg.EnableBlendArcs = true
	p := NewPlanner(cfg, NullHAL{})

	p.SetTermCond(TermCondTangent)
	p.AddLine(Pose{X: 10}, 10, 500)
	depthAfterFirst := p.QueueDepth()

	p.AddLine(Pose{X: 10, Y: 10}, 10, 500)
	if p.QueueDepth() != depthAfterFirst+2 {
		t.Fatalf("expected blend arc splice to grow the queue, got depth %d", p.QueueDepth())
	}

	st := runToIdle(t, p, 100000)
	if math.Abs(st.Pos.X-10) > 1e-3 || math.Abs(st.Pos.Y-10) > 1e-3 {
		t.Fatalf("expected final pos (10,10), got (%v,%v)", st.Pos.X, st.Pos.Y)
	}
}

func TestAcuteCornerFallsBackToParabolic(t *testing.T) {
	cfg := testConfig()
	cfg.EnableBlendArcs = true
	p := NewPlanner(cfg, NullHAL{})

	p.SetTermCond(TermCondTangent)
	p.AddLine(Pose{X: 10}, 10, 500)
	depthAfterFirst := p.QueueDepth()

	// Sharp near-reversal corner: acos(dot) will be close to pi, an arc
	// cannot be built without an unreasonably large fillet, so the
	// splice should decline and just enqueue normally.
	p.AddLine(Pose{X: 0, Y: 0.01}, 10, 500)

	if p.QueueDepth() != depthAfterFirst+1 {
		t.Fatalf("expected no blend arc splice on acute corner, depth=%d", p.QueueDepth())
	}
}

func TestPauseDecaysVelocityToZero(t *testing.T) {
	cfg := testConfig()
	p := NewPlanner(cfg, NullHAL{})
	p.AddLine(Pose{X: 10}, 20, 200)

	for i := 0; i < 5; i++ {
		p.RunCycle()
	}
	p.Pause()

	// Scenario: currentvel must decay to ~0 within maxvel/maxaccel plus
	// one cycle time, not freeze instantly and not keep cruising.
	maxTicks := int(cfg.VMax/cfg.AMax/cfg.CycleTime) + 2
	for i := 0; i < maxTicks; i++ {
		p.RunCycle()
	}
	tc := p.q.Get(0)
	if tc == nil {
		t.Fatalf("expected the paused segment to still be queued")
	}
	if tc.CurrentVel > 1e-6 {
		t.Fatalf("expected velocity to decay to ~0 while paused, got %v", tc.CurrentVel)
	}

	held := p.GetPos()
	for i := 0; i < 10; i++ {
		p.RunCycle()
	}
	if p.GetPos() != held {
		t.Fatalf("position moved further once velocity reached 0 while paused: %v -> %v", held, p.GetPos())
	}

	p.Resume()
	st := runToIdle(t, p, 10000)
	if math.Abs(st.Pos.X-10) > 1e-6 {
		t.Fatalf("expected to finish move after resume, got %v", st.Pos.X)
	}
}

func TestAbortDrainsBeforeClearingQueue(t *testing.T) {
	p := NewPlanner(testConfig(), NullHAL{})
	p.AddLine(Pose{X: 10}, 20, 200)

	for i := 0; i < 5; i++ {
		p.RunCycle()
	}
	if p.QueueDepth() == 0 {
		t.Fatalf("expected the move still queued before Abort")
	}

	p.Abort()
	if p.QueueDepth() == 0 {
		t.Fatalf("expected Abort to keep draining velocity before clearing the queue, not clear it immediately")
	}

	for i := 0; i < 10000 && p.QueueDepth() > 0; i++ {
		p.RunCycle()
	}
	if p.QueueDepth() != 0 {
		t.Fatalf("expected the queue to be cleared once the drain completed")
	}
}

func TestRigidTapCycleCompletes(t *testing.T) {
	fb := SpindleFeedback{PositionRevs: 0, AtSpeed: true}
	hal := &fakeSpindleHAL{fb: fb}
	p := NewPlanner(testConfig(), hal)

	p.AddRigidTap(Pose{Z: -10}, 1.0, 1.0)

	step := 0.05
	for i := 0; i < 2000 && !p.IsDone(); i++ {
		hal.fb.PositionRevs += step
		st := p.RunCycle()
		if st.MotionType == MotionTypeRigidTap {
			// still tapping
		}
		if p.q.Len() > 0 && p.q.Get(0) != nil && p.q.Get(0).RigidTap != nil &&
			p.q.Get(0).RigidTap.State == RigidTapReversing {
			step = -0.05 // simulate the drive actually reversing
		}
	}
	if !p.IsDone() {
		t.Fatalf("rigid tap cycle did not complete")
	}
}

type fakeSpindleHAL struct {
	NullHAL
	fb SpindleFeedback
}

func (f *fakeSpindleHAL) ReadSpindle() SpindleFeedback { return f.fb }

func TestQueueFullReturnsStatus(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 2
	p := NewPlanner(cfg, NullHAL{})

	if id := p.AddLine(Pose{X: 1}, 10, 100); id <= 0 {
		t.Fatalf("expected success, got %d", id)
	}
	if id := p.AddLine(Pose{X: 2}, 10, 100); id <= 0 {
		t.Fatalf("expected success, got %d", id)
	}
	if id := p.AddLine(Pose{X: 3}, 10, 100); id != StatusQueueFull {
		t.Fatalf("expected StatusQueueFull, got %d", id)
	}
}

func TestZeroLengthMoveRejected(t *testing.T) {
	p := NewPlanner(testConfig(), NullHAL{})
	if id := p.AddLine(Pose{}, 10, 100); id != StatusBadInput {
		t.Fatalf("expected StatusBadInput for zero-length move, got %d", id)
	}
}
