package trial

import (
	"testing"
	"time"
)

func TestMachineHappyPath(t *testing.T) {
	var m Machine
	base := time.Unix(0, 0)

	if m.State() != StateArmed {
		t.Fatalf("expected armed, got %v", m.State())
	}
	if !m.Arm(2 * time.Second) {
		t.Fatal("arm failed")
	}
	if m.State() != StateCountdown {
		t.Fatalf("expected countdown, got %v", m.State())
	}
	if !m.Stimulus(base) {
		t.Fatal("stimulus failed")
	}
	rt, result := m.Input(base.Add(234 * time.Millisecond))
	if result != InputScored {
		t.Fatalf("expected scored, got %v", result)
	}
	if rt != 234 {
		t.Fatalf("expected 234 ms, got %v", rt)
	}
	if m.State() != StateScored {
		t.Fatalf("expected scored state, got %v", m.State())
	}
}

func TestMachinePrematureInputKeepsCountdown(t *testing.T) {
	var m Machine
	base := time.Unix(0, 0)
	m.Arm(time.Second)

	_, result := m.Input(base)
	if result != InputTooEarly {
		t.Fatalf("expected too early, got %v", result)
	}
	if m.State() != StateCountdown {
		t.Fatalf("premature input changed state to %v", m.State())
	}

	// The pending stimulus still lands and scoring still works.
	if !m.Stimulus(base.Add(time.Second)) {
		t.Fatal("stimulus after premature input failed")
	}
	rt, result := m.Input(base.Add(1300 * time.Millisecond))
	if result != InputScored || rt != 300 {
		t.Fatalf("expected scored 300 ms, got %v %v", result, rt)
	}
}

func TestMachineIgnoresOutOfStateEvents(t *testing.T) {
	var m Machine
	base := time.Unix(0, 0)

	if _, result := m.Input(base); result != InputIgnored {
		t.Fatalf("input while armed should be ignored, got %v", result)
	}
	if m.Stimulus(base) {
		t.Fatal("stimulus while armed should fail")
	}
	m.Arm(time.Second)
	if m.Arm(time.Second) {
		t.Fatal("double arm should fail")
	}
	m.Stimulus(base)
	m.Input(base.Add(time.Millisecond))
	if _, result := m.Input(base.Add(2 * time.Millisecond)); result != InputIgnored {
		t.Fatalf("input after scoring should be ignored, got %v", result)
	}
}

func TestMachineClampsNegativeElapsed(t *testing.T) {
	var m Machine
	base := time.Unix(100, 0)
	m.Arm(time.Second)
	m.Stimulus(base)
	rt, result := m.Input(base.Add(-time.Millisecond))
	if result != InputScored || rt != 0 {
		t.Fatalf("expected clamped 0 ms, got %v %v", result, rt)
	}
}
