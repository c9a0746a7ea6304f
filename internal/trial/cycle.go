package trial

import (
	"time"

	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/model"
)

// TesterColors is the fixed stimulus set cycled by the tester variant.
var TesterColors = []string{
	"blue", "green", "red", "yellow", "orange", "purple", "brown", "black", "grey",
}

// Tester variant parameters: white background, 5 trials per color, 1-3 s
// delays, random color order per run.
const (
	testerBackground  = "white"
	testerTrials      = 5
	testerMinDelaySec = 1
	testerMaxDelaySec = 3
)

// CycleOutcome describes the effect of one input event on a cycling run.
type CycleOutcome struct {
	Result InputResult
	Sample float64
	Trial  int
	Color  string
	// Record is the completed per-color history record, set when the last
	// trial for a color is scored.
	Record *model.HistoryRecord
	Next   *Wakeup
	Done   bool // every color has been completed
}

// Cycle runs the category-cycling tester: a shuffled permutation of
// TesterColors, one full trial sequence per color, one history record
// emitted per color as it completes.
type Cycle struct {
	gen     *delay.Generator
	order   []string
	idx     int
	runner  *Runner
	phase   Phase
	token   int
	inner   int // current runner's wakeup token
	advance bool
	pauseMs int
}

// NewCycle prepares a cycling run with a freshly shuffled color order.
func NewCycle(gen *delay.Generator) *Cycle {
	order := append([]string(nil), TesterColors...)
	gen.Shuffle(order)
	return &Cycle{gen: gen, order: order, pauseMs: DefaultPauseMs}
}

// Order returns the shuffled color order for this run.
func (c *Cycle) Order() []string {
	return append([]string(nil), c.order...)
}

// Color returns the stimulus color currently under test.
func (c *Cycle) Color() string {
	return c.order[c.idx]
}

// ColorIndex returns the 0-based index of the current color.
func (c *Cycle) ColorIndex() int {
	return c.idx
}

// ColorCount returns the number of colors in the run.
func (c *Cycle) ColorCount() int {
	return len(c.order)
}

// Trial returns the 1-based trial index within the current color.
func (c *Cycle) Trial() int {
	if c.runner == nil {
		return 0
	}
	return c.runner.Trial()
}

// Trials returns the trial count per color.
func (c *Cycle) Trials() int {
	return testerTrials
}

// Phase returns the run phase.
func (c *Cycle) Phase() Phase {
	return c.phase
}

// State returns the current trial state.
func (c *Cycle) State() State {
	if c.runner == nil {
		return StateArmed
	}
	return c.runner.State()
}

// Start begins the first color's first trial.
func (c *Cycle) Start() Wakeup {
	c.phase = PhaseRunning
	c.idx = 0
	return c.startColor()
}

func (c *Cycle) startColor() Wakeup {
	runner, err := NewRunner(colorConfig(c.order[c.idx]), c.gen)
	if err != nil {
		// Tester parameters are constants; an invalid config here is a bug.
		panic(err)
	}
	c.runner = runner
	return c.reissue(c.runner.Start())
}

func (c *Cycle) reissue(w Wakeup) Wakeup {
	c.inner = w.Token
	c.token++
	return Wakeup{Token: c.token, Delay: w.Delay, Kind: w.Kind}
}

// StimulusDue forwards a due countdown wakeup to the active color's runner.
func (c *Cycle) StimulusDue(token int, now time.Time) bool {
	if c.phase != PhaseRunning || token != c.token {
		return false
	}
	return c.runner.StimulusDue(c.inner, now)
}

// Input processes a user input event at now.
func (c *Cycle) Input(now time.Time) CycleOutcome {
	if c.phase != PhaseRunning {
		return CycleOutcome{Result: InputIgnored}
	}
	inner := c.runner.Input(now)
	out := CycleOutcome{
		Result: inner.Result,
		Sample: inner.Sample,
		Trial:  inner.Trial,
		Color:  c.Color(),
	}
	if inner.Result != InputScored {
		return out
	}
	if inner.Done {
		rec, err := c.runner.Record(now)
		if err == nil {
			out.Record = &rec
		}
		c.idx++
		if c.idx >= len(c.order) {
			c.phase = PhaseDone
			out.Done = true
			return out
		}
		c.advance = true
		c.token++
		out.Next = &Wakeup{
			Token: c.token,
			Delay: time.Duration(c.pauseMs) * time.Millisecond,
			Kind:  WakeupPause,
		}
		return out
	}
	if inner.Next != nil {
		w := c.reissue(*inner.Next)
		out.Next = &w
	}
	return out
}

// PauseDue arms the next trial, crossing into the next color when the
// previous one just completed.
func (c *Cycle) PauseDue(token int) (Wakeup, bool) {
	if c.phase != PhaseRunning || token != c.token {
		return Wakeup{}, false
	}
	if c.advance {
		c.advance = false
		return c.startColor(), true
	}
	inner, ok := c.runner.PauseDue(c.inner)
	if !ok {
		return Wakeup{}, false
	}
	return c.reissue(inner), true
}

// Stop cancels the run; in-flight wakeups become no-ops.
func (c *Cycle) Stop() {
	if c.phase == PhaseRunning {
		c.phase = PhaseStopped
	}
	c.token++
	if c.runner != nil {
		c.runner.Stop()
	}
}

func colorConfig(stimulus string) model.SessionConfig {
	return model.SessionConfig{
		Kind:          model.KindTesterVisual,
		InitialColor:  testerBackground,
		StimulusColor: stimulus,
		Trials:        testerTrials,
		MinDelaySec:   testerMinDelaySec,
		MaxDelaySec:   testerMaxDelaySec,
	}
}
