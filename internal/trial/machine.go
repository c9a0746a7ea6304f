// Package trial implements the trial state machine and session runner.
package trial

import "time"

// State is the per-trial lifecycle position.
type State int

// Trial states.
const (
	StateArmed State = iota
	StateCountdown
	StateLive
	StateScored
)

// InputResult classifies a user input event.
type InputResult int

// Input classifications.
const (
	// InputIgnored means the input arrived in a state where it carries no
	// meaning (before arming, after scoring, after stop).
	InputIgnored InputResult = iota
	// InputTooEarly means the input arrived during the countdown. The trial
	// is not ended; the pending stimulus stays scheduled.
	InputTooEarly
	// InputScored means the input was measured against the stimulus onset.
	InputScored
)

// Machine sequences one trial: ARMED -> COUNTDOWN -> LIVE -> SCORED.
// All transitions are driven by the caller; the machine holds no timers.
type Machine struct {
	state State
	delay time.Duration
	onset time.Time
}

// State returns the current trial state.
func (m *Machine) State() State {
	return m.state
}

// Delay returns the countdown delay sampled when the trial was armed.
func (m *Machine) Delay() time.Duration {
	return m.delay
}

// Arm starts the countdown with the given stimulus delay.
// Only valid in StateArmed.
func (m *Machine) Arm(delay time.Duration) bool {
	if m.state != StateArmed {
		return false
	}
	m.delay = delay
	m.state = StateCountdown
	return true
}

// Stimulus presents the stimulus: the clock starts at now.
// Only valid in StateCountdown.
func (m *Machine) Stimulus(now time.Time) bool {
	if m.state != StateCountdown {
		return false
	}
	m.onset = now
	m.state = StateLive
	return true
}

// Input handles a user input at now. In StateLive it scores the trial and
// returns the elapsed reaction time in milliseconds. In StateCountdown it
// reports a premature response without changing state.
func (m *Machine) Input(now time.Time) (float64, InputResult) {
	switch m.state {
	case StateLive:
		rt := float64(now.Sub(m.onset)) / float64(time.Millisecond)
		if rt < 0 {
			rt = 0
		}
		m.state = StateScored
		return rt, InputScored
	case StateCountdown:
		return 0, InputTooEarly
	default:
		return 0, InputIgnored
	}
}

// Reset returns a scored machine to StateArmed for the next trial.
func (m *Machine) Reset() {
	m.state = StateArmed
	m.delay = 0
	m.onset = time.Time{}
}
