package stepgen

import (
	"fmt"
	"strconv"
	"strings"

	"gocnc/core"
	standalone "gocnc/standalone/types"
)

// Stepper represents a single stepper motor
type Stepper struct {
	name   string
	config standalone.AxisConfig

	gpio core.GPIODriver

	stepPin core.GPIOPin
	dirPin  core.GPIOPin
	enPin   core.GPIOPin
	hasEn   bool

	// Current state
	position  int64 // Current position in steps
	targetPos int64 // Target position in steps

	// Step generation
	nextStepTime uint32      // Time for next step
	stepInterval uint32      // Interval between steps (ticks)
	stepTimer    *core.Timer // Timer for step generation
	active       bool        // Is stepper currently moving
}

// NewStepper creates a new stepper motor controller
func NewStepper(name string, config standalone.AxisConfig) (*Stepper, error) {
	stepper := &Stepper{
		name:     name,
		config:   config,
		position: 0,
		active:   false,
	}

	stepper.stepTimer = &core.Timer{
		WakeTime: 0,
		Handler:  stepper.stepHandler,
		Next:     nil,
	}

	return stepper, nil
}

// parsePinName converts a configuration pin name like "gpio8" into a
// GPIOPin number. The teacher's configuration format names pins this
// way throughout the default configs in standalone/config.go.
func parsePinName(name string) (core.GPIOPin, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(name), "gpio")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid pin name %q: %w", name, err)
	}
	return core.GPIOPin(n), nil
}

// InitPins initializes the GPIO pins for this stepper against the
// abstract GPIODriver interface.
func (s *Stepper) InitPins(gpioDriver core.GPIODriver) error {
	s.gpio = gpioDriver

	stepPin, err := parsePinName(s.config.StepPin)
	if err != nil {
		return err
	}
	s.stepPin = stepPin
	if err := gpioDriver.ConfigureOutput(s.stepPin); err != nil {
		return err
	}

	dirPin, err := parsePinName(s.config.DirPin)
	if err != nil {
		return err
	}
	s.dirPin = dirPin
	if err := gpioDriver.ConfigureOutput(s.dirPin); err != nil {
		return err
	}

	if s.config.EnablePin != "" {
		enPin, err := parsePinName(s.config.EnablePin)
		if err != nil {
			return err
		}
		s.enPin = enPin
		s.hasEn = true
		if err := gpioDriver.ConfigureOutput(s.enPin); err != nil {
			return err
		}
		s.setEnable(s.config.InvertEnable)
	}

	return nil
}

func (s *Stepper) setEnable(value bool) {
	if s.hasEn && s.gpio != nil {
		s.gpio.SetPin(s.enPin, value)
	}
}

// Enable enables the stepper motor
func (s *Stepper) Enable() {
	s.setEnable(!s.config.InvertEnable)
}

// Disable disables the stepper motor
func (s *Stepper) Disable() {
	s.setEnable(s.config.InvertEnable)
}

// MoveTo schedules a move to the target position
func (s *Stepper) MoveTo(targetMM float64, velocity float64, accel float64) {
	s.targetPos = int64(targetMM * s.config.StepsPerMM)

	direction := s.targetPos >= s.position
	dirValue := direction
	if s.config.InvertDir {
		dirValue = !dirValue
	}
	if s.gpio != nil {
		s.gpio.SetPin(s.dirPin, dirValue)
	}

	stepsPerSecond := velocity * s.config.StepsPerMM
	if stepsPerSecond > 0 {
		s.stepInterval = uint32(float64(core.GetTimerFrequency()) / stepsPerSecond)
	} else {
		s.stepInterval = 1000000 // Very slow if velocity is 0
	}

	s.Enable()

	if s.position != s.targetPos {
		s.active = true
		s.nextStepTime = core.GetSystemTime() + s.stepInterval
		s.stepTimer.WakeTime = s.nextStepTime
		core.ScheduleTimer(s.stepTimer)
	}
}

// stepHandler is called by the scheduler to generate step pulses
func (s *Stepper) stepHandler(timer *core.Timer) uint8 {
	if !s.active || s.position == s.targetPos {
		s.active = false
		return core.SF_DONE
	}

	if s.gpio != nil {
		s.gpio.SetPin(s.stepPin, true)
	}

	if s.targetPos > s.position {
		s.position++
	} else {
		s.position--
	}

	timer.WakeTime = core.GetSystemTime() + core.UsToTicks(2)
	timer.Handler = s.stepDownHandler
	return core.SF_RESCHEDULE
}

// stepDownHandler turns off the step pulse
func (s *Stepper) stepDownHandler(timer *core.Timer) uint8 {
	if s.gpio != nil {
		s.gpio.SetPin(s.stepPin, false)
	}

	if s.position == s.targetPos {
		s.active = false
		return core.SF_DONE
	}

	s.nextStepTime += s.stepInterval
	timer.WakeTime = s.nextStepTime
	timer.Handler = s.stepHandler
	return core.SF_RESCHEDULE
}

// GetPosition returns the current position in millimeters
func (s *Stepper) GetPosition() float64 {
	return float64(s.position) / s.config.StepsPerMM
}

// SetPosition sets the current position (for homing, etc.)
func (s *Stepper) SetPosition(posMM float64) {
	s.position = int64(posMM * s.config.StepsPerMM)
	s.targetPos = s.position
}

// IsActive returns whether the stepper is currently moving
func (s *Stepper) IsActive() bool {
	return s.active
}

// Stop immediately stops the stepper
func (s *Stepper) Stop() {
	s.active = false
	s.targetPos = s.position
}
