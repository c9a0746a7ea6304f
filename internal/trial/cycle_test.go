package trial

import (
	"testing"
	"time"

	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/model"
)

func TestCycleEmitsOneRecordPerColor(t *testing.T) {
	c := NewCycle(delay.NewSeeded(7))
	order := c.Order()
	if len(order) != len(TesterColors) {
		t.Fatalf("expected %d colors, got %d", len(TesterColors), len(order))
	}

	now := time.Unix(0, 0)
	var records []model.HistoryRecord
	w := c.Start()
	for {
		now = now.Add(w.Delay)
		if w.Kind == WakeupStimulus {
			if !c.StimulusDue(w.Token, now) {
				t.Fatal("stimulus wakeup rejected")
			}
			now = now.Add(200 * time.Millisecond)
			out := c.Input(now)
			if out.Result != InputScored {
				t.Fatalf("expected scored, got %v", out.Result)
			}
			if out.Record != nil {
				records = append(records, *out.Record)
			}
			if out.Done {
				break
			}
			w = *out.Next
			continue
		}
		next, ok := c.PauseDue(w.Token)
		if !ok {
			t.Fatal("pause wakeup rejected")
		}
		w = next
	}

	if c.Phase() != PhaseDone {
		t.Fatalf("expected done phase, got %v", c.Phase())
	}
	if len(records) != len(TesterColors) {
		t.Fatalf("expected %d records, got %d", len(TesterColors), len(records))
	}
	for i, rec := range records {
		if rec.Kind != model.KindTesterVisual {
			t.Fatalf("record %d: unexpected kind %q", i, rec.Kind)
		}
		if rec.StimulusColor != order[i] {
			t.Fatalf("record %d: expected color %q, got %q", i, order[i], rec.StimulusColor)
		}
		if rec.InitialColor != "white" {
			t.Fatalf("record %d: expected white background, got %q", i, rec.InitialColor)
		}
		if len(rec.Results) != testerTrials {
			t.Fatalf("record %d: expected %d samples, got %d", i, testerTrials, len(rec.Results))
		}
		if rec.MinDelaySec != 1 || rec.MaxDelaySec != 3 {
			t.Fatalf("record %d: unexpected delay bounds %+v", i, rec)
		}
	}
}

func TestCycleShufflesOrder(t *testing.T) {
	// Different seeds should eventually produce different permutations.
	base := NewCycle(delay.NewSeeded(1)).Order()
	for seed := int64(2); seed < 30; seed++ {
		other := NewCycle(delay.NewSeeded(seed)).Order()
		for i := range base {
			if other[i] != base[i] {
				return
			}
		}
	}
	t.Fatal("color order never varied across seeds")
}

func TestCycleStopDiscardsRun(t *testing.T) {
	c := NewCycle(delay.NewSeeded(9))
	now := time.Unix(0, 0)
	w := c.Start()
	c.Stop()
	if c.Phase() != PhaseStopped {
		t.Fatalf("expected stopped, got %v", c.Phase())
	}
	if c.StimulusDue(w.Token, now.Add(w.Delay)) {
		t.Fatal("stale wakeup acted after stop")
	}
	if out := c.Input(now); out.Result != InputIgnored {
		t.Fatalf("input after stop not ignored: %v", out.Result)
	}
}
