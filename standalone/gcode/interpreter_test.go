package gcode

import (
	"testing"

	standalone "gocnc/standalone/types"
)

type fakePlanner struct {
	pos      standalone.Position
	lines    []*standalone.Move
	arcs     []*standalone.ArcMove
	taps     []*standalone.RigidTapMove
}

func (f *fakePlanner) QueueMove(m *standalone.Move) error {
	f.lines = append(f.lines, m)
	f.pos = m.End
	return nil
}

func (f *fakePlanner) QueueArc(m *standalone.ArcMove) error {
	f.arcs = append(f.arcs, m)
	f.pos = m.End
	return nil
}

func (f *fakePlanner) QueueRigidTap(m *standalone.RigidTapMove) error {
	f.taps = append(f.taps, m)
	f.pos = m.End
	return nil
}

func (f *fakePlanner) GetCurrentPosition() standalone.Position { return f.pos }
func (f *fakePlanner) SetPosition(pos standalone.Position)     { f.pos = pos }
func (f *fakePlanner) ClearQueue()                             { f.lines = nil; f.arcs = nil; f.taps = nil }

func testInterpreter() (*Interpreter, *fakePlanner) {
	cfg := &standalone.MachineConfig{
		DefaultVelocity: 50,
		DefaultAccel:    500,
	}
	fp := &fakePlanner{}
	return NewInterpreter(cfg, fp), fp
}

func TestLinearMoveQueuesLine(t *testing.T) {
	interp, fp := testInterpreter()
	cmd, _ := NewParser().ParseLine("G1 X10 Y20 F600")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(fp.lines) != 1 {
		t.Fatalf("expected 1 queued line, got %d", len(fp.lines))
	}
	if fp.lines[0].End.X != 10 || fp.lines[0].End.Y != 20 {
		t.Fatalf("unexpected target %+v", fp.lines[0].End)
	}
	if fp.lines[0].Velocity != 10 {
		t.Fatalf("expected feedrate 10mm/s (600mm/min), got %v", fp.lines[0].Velocity)
	}
}

func TestArcMoveQueuesArc(t *testing.T) {
	interp, fp := testInterpreter()
	cmd, _ := NewParser().ParseLine("G2 X10 Y0 I5 J0 F300")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(fp.arcs) != 1 {
		t.Fatalf("expected 1 queued arc, got %d", len(fp.arcs))
	}
	if !fp.arcs[0].Clockwise {
		t.Fatalf("expected G2 to be clockwise")
	}
	if fp.arcs[0].CenterX != 5 || fp.arcs[0].CenterY != 0 {
		t.Fatalf("unexpected center offset %+v", fp.arcs[0])
	}
}

func TestCounterClockwiseArc(t *testing.T) {
	interp, fp := testInterpreter()
	cmd, _ := NewParser().ParseLine("G3 X10 Y0 I5 J0")
	interp.Execute(cmd)
	if fp.arcs[0].Clockwise {
		t.Fatalf("expected G3 to be counter-clockwise")
	}
}

func TestRigidTapQueuesTap(t *testing.T) {
	interp, fp := testInterpreter()
	m3, _ := NewParser().ParseLine("M3")
	interp.Execute(m3)

	cmd, _ := NewParser().ParseLine("G84 Z-10 K1.5")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(fp.taps) != 1 {
		t.Fatalf("expected 1 queued tap, got %d", len(fp.taps))
	}
	if fp.taps[0].PitchPerRev != 1.5 {
		t.Fatalf("expected pitch 1.5, got %v", fp.taps[0].PitchPerRev)
	}
	if fp.taps[0].SpindleDir != 1 {
		t.Fatalf("expected spindle dir +1 after M3, got %v", fp.taps[0].SpindleDir)
	}
}

func TestRigidTapWithoutPitchIsIgnored(t *testing.T) {
	interp, fp := testInterpreter()
	cmd, _ := NewParser().ParseLine("G84 Z-10")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(fp.taps) != 0 {
		t.Fatalf("expected no tap queued without a programmed pitch")
	}
}
