package trial

import (
	"testing"
	"time"

	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/model"
)

func visualConfig(trials int) model.SessionConfig {
	return model.SessionConfig{
		Kind:          model.KindFreeplayVisual,
		InitialColor:  "blue",
		StimulusColor: "red",
		Trials:        trials,
		MinDelaySec:   1,
		MaxDelaySec:   3,
	}
}

// driveSession runs a full session against a virtual clock and returns the
// completed record.
func driveSession(t *testing.T, r *Runner, reactMs float64) model.HistoryRecord {
	t.Helper()
	now := time.Unix(0, 0)
	w := r.Start()
	for {
		if w.Kind != WakeupStimulus {
			t.Fatalf("expected stimulus wakeup, got %v", w.Kind)
		}
		now = now.Add(w.Delay)
		if !r.StimulusDue(w.Token, now) {
			t.Fatal("stimulus wakeup rejected")
		}
		now = now.Add(time.Duration(reactMs) * time.Millisecond)
		out := r.Input(now)
		if out.Result != InputScored {
			t.Fatalf("expected scored, got %v", out.Result)
		}
		if out.Done {
			break
		}
		now = now.Add(out.Next.Delay)
		next, ok := r.PauseDue(out.Next.Token)
		if !ok {
			t.Fatal("pause wakeup rejected")
		}
		w = next
	}
	rec, err := r.Record(now)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return rec
}

func TestRunnerCompletesConfiguredTrials(t *testing.T) {
	r, err := NewRunner(visualConfig(5), delay.NewSeeded(1))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	rec := driveSession(t, r, 250)
	if len(rec.Results) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(rec.Results))
	}
	for i, rt := range rec.Results {
		if rt < 0 {
			t.Fatalf("sample %d negative: %v", i, rt)
		}
		if rt != 250 {
			t.Fatalf("sample %d: expected 250 ms, got %v", i, rt)
		}
	}
	if rec.Kind != model.KindFreeplayVisual || rec.StimulusColor != "red" {
		t.Fatalf("unexpected record attributes: %+v", rec)
	}
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	cases := []model.SessionConfig{
		{Kind: model.KindFreeplayVisual, InitialColor: "blue", StimulusColor: "red", Trials: 0, MinDelaySec: 1, MaxDelaySec: 3},
		{Kind: model.KindFreeplayVisual, InitialColor: "blue", StimulusColor: "red", Trials: 5, MinDelaySec: 3, MaxDelaySec: 1},
		{Kind: model.KindFreeplayAudio, FrequencyHz: 0, Trials: 5, MinDelaySec: 1, MaxDelaySec: 3},
		{Kind: "Nonsense", Trials: 5, MinDelaySec: 1, MaxDelaySec: 3},
	}
	for i, cfg := range cases {
		if _, err := NewRunner(cfg, delay.NewSeeded(1)); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

func TestRunnerPrematureInputDoesNotAdvance(t *testing.T) {
	r, err := NewRunner(visualConfig(3), delay.NewSeeded(2))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	now := time.Unix(0, 0)
	w := r.Start()

	out := r.Input(now.Add(10 * time.Millisecond))
	if out.Result != InputTooEarly {
		t.Fatalf("expected too early, got %v", out.Result)
	}
	if out.Trial != 1 || r.Trial() != 1 {
		t.Fatalf("premature input advanced the trial index: %d", r.Trial())
	}
	if len(r.Results()) != 0 {
		t.Fatalf("premature input appended a sample")
	}

	// The originally scheduled stimulus is unaffected.
	now = now.Add(w.Delay)
	if !r.StimulusDue(w.Token, now) {
		t.Fatal("stimulus wakeup rejected after premature input")
	}
	out = r.Input(now.Add(200 * time.Millisecond))
	if out.Result != InputScored || len(r.Results()) != 1 {
		t.Fatalf("live input did not score exactly once: %+v", out)
	}
}

func TestRunnerStopInvalidatesWakeups(t *testing.T) {
	r, err := NewRunner(visualConfig(3), delay.NewSeeded(3))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	now := time.Unix(0, 0)
	w := r.Start()
	r.Stop()

	if r.Phase() != PhaseStopped {
		t.Fatalf("expected stopped phase, got %v", r.Phase())
	}
	if r.StimulusDue(w.Token, now.Add(w.Delay)) {
		t.Fatal("stale stimulus wakeup acted after stop")
	}
	if out := r.Input(now); out.Result != InputIgnored {
		t.Fatalf("input after stop not ignored: %v", out.Result)
	}
	if _, ok := r.PauseDue(w.Token); ok {
		t.Fatal("stale pause wakeup acted after stop")
	}
	if _, err := r.Record(now); err == nil {
		t.Fatal("record after stop should fail")
	}
	if len(r.Results()) != 0 {
		t.Fatal("partial samples survived stop")
	}
}

func TestRunnerStaleTokenAfterReschedule(t *testing.T) {
	r, err := NewRunner(visualConfig(2), delay.NewSeeded(4))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	now := time.Unix(0, 0)
	w := r.Start()
	now = now.Add(w.Delay)
	r.StimulusDue(w.Token, now)
	out := r.Input(now.Add(150 * time.Millisecond))
	if out.Next == nil {
		t.Fatal("expected pause wakeup")
	}
	// The first trial's stimulus token is stale once the pause is scheduled.
	if r.StimulusDue(w.Token, now) {
		t.Fatal("stale stimulus token accepted")
	}
}

func TestRunnerIsStrictlySequential(t *testing.T) {
	r, err := NewRunner(visualConfig(2), delay.NewSeeded(5))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	now := time.Unix(0, 0)
	w := r.Start()
	if r.Trial() != 1 {
		t.Fatalf("expected trial 1, got %d", r.Trial())
	}
	now = now.Add(w.Delay)
	r.StimulusDue(w.Token, now)
	out := r.Input(now.Add(100 * time.Millisecond))
	// Trial 2 must not arm before the pause elapses.
	if r.Trial() != 1 || r.State() != StateScored {
		t.Fatalf("trial advanced before pause: trial=%d state=%v", r.Trial(), r.State())
	}
	if _, ok := r.PauseDue(out.Next.Token); !ok {
		t.Fatal("pause wakeup rejected")
	}
	if r.Trial() != 2 || r.State() != StateCountdown {
		t.Fatalf("trial 2 not armed after pause: trial=%d state=%v", r.Trial(), r.State())
	}
}
