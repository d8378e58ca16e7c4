package stepgen

import (
	"testing"

	"gocnc/core"
	standalone "gocnc/standalone/types"
)

func TestInitPinsConfiguresOutputs(t *testing.T) {
	gpio := core.NewSimulatedGPIO()
	s, err := NewStepper("x", standalone.AxisConfig{
		StepPin:    "gpio0",
		DirPin:     "gpio1",
		EnablePin:  "gpio8",
		StepsPerMM: 80,
	})
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}

	if err := s.InitPins(gpio); err != nil {
		t.Fatalf("InitPins: %v", err)
	}

	if s.stepPin != 0 || s.dirPin != 1 || s.enPin != 8 {
		t.Fatalf("unexpected pin assignment: step=%d dir=%d en=%d", s.stepPin, s.dirPin, s.enPin)
	}
}

func TestSetPositionUpdatesStepsWithoutMotion(t *testing.T) {
	gpio := core.NewSimulatedGPIO()
	s, _ := NewStepper("x", standalone.AxisConfig{StepPin: "gpio0", DirPin: "gpio1", StepsPerMM: 80})
	s.InitPins(gpio)

	s.SetPosition(10)
	if got := s.GetPosition(); got != 10 {
		t.Fatalf("expected position 10, got %v", got)
	}
	if s.IsActive() {
		t.Fatalf("SetPosition should not start motion")
	}
}

func TestParsePinName(t *testing.T) {
	pin, err := parsePinName("gpio25")
	if err != nil {
		t.Fatalf("parsePinName: %v", err)
	}
	if pin != 25 {
		t.Fatalf("expected pin 25, got %v", pin)
	}

	if _, err := parsePinName("not-a-pin"); err == nil {
		t.Fatalf("expected error for invalid pin name")
	}
}
