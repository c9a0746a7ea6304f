package trial

import (
	"fmt"
	"time"

	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/model"
)

// DefaultPauseMs is the fixed pause between a scored trial and the next arm.
const DefaultPauseMs = 300

// Phase is the session-level lifecycle position.
type Phase int

// Session phases.
const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseDone
	PhaseStopped
)

// WakeupKind tells the host which callback a wakeup requests.
type WakeupKind int

// Wakeup kinds.
const (
	// WakeupStimulus asks the host to call StimulusDue after Delay.
	WakeupStimulus WakeupKind = iota
	// WakeupPause asks the host to call PauseDue after Delay.
	WakeupPause
)

// Wakeup is a deferred callback request. The host owns the timer queue;
// Token identifies the schedule generation so that wakeups scheduled before
// a Stop (or superseded by a newer schedule) become no-ops.
type Wakeup struct {
	Token int
	Delay time.Duration
	Kind  WakeupKind
}

// InputOutcome describes the effect of one input event on the session.
type InputOutcome struct {
	Result InputResult
	Sample float64 // valid when Result == InputScored
	Trial  int     // 1-based trial that was scored
	Next   *Wakeup // pause wakeup toward the next trial, nil on Done
	Done   bool    // all configured trials are scored
}

// Runner drives a sequence of trials and owns the growing sample list.
// It is single-threaded and cooperative: all timing is delegated to the
// host through Wakeup values.
type Runner struct {
	cfg     model.SessionConfig
	gen     *delay.Generator
	machine Machine
	results []float64
	trial   int
	token   int
	phase   Phase
}

// NewRunner validates the configuration and prepares an idle runner.
func NewRunner(cfg model.SessionConfig, gen *delay.Generator) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if gen == nil {
		return nil, fmt.Errorf("delay generator is required")
	}
	if cfg.PauseMs == 0 {
		cfg.PauseMs = DefaultPauseMs
	}
	return &Runner{cfg: cfg, gen: gen}, nil
}

// Config returns the session configuration.
func (r *Runner) Config() model.SessionConfig {
	return r.cfg
}

// Phase returns the session phase.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Trial returns the 1-based index of the current trial.
func (r *Runner) Trial() int {
	return r.trial
}

// Trials returns the configured trial count.
func (r *Runner) Trials() int {
	return r.cfg.Trials
}

// State returns the current trial state.
func (r *Runner) State() State {
	return r.machine.State()
}

// Results returns the samples scored so far.
func (r *Runner) Results() []float64 {
	return append([]float64(nil), r.results...)
}

// Start begins trial 1 and returns the countdown wakeup.
func (r *Runner) Start() Wakeup {
	r.phase = PhaseRunning
	r.trial = 0
	r.results = r.results[:0]
	return r.armNext()
}

func (r *Runner) armNext() Wakeup {
	r.trial++
	r.machine.Reset()
	d := r.gen.Next(r.minDelay(), r.maxDelay())
	r.machine.Arm(d)
	r.token++
	return Wakeup{Token: r.token, Delay: d, Kind: WakeupStimulus}
}

// StimulusDue transitions the countdown to the live stimulus. Stale tokens
// (issued before a Stop or a newer schedule) return false and change nothing.
func (r *Runner) StimulusDue(token int, now time.Time) bool {
	if r.phase != PhaseRunning || token != r.token {
		return false
	}
	return r.machine.Stimulus(now)
}

// Input processes a user input event at now.
func (r *Runner) Input(now time.Time) InputOutcome {
	if r.phase != PhaseRunning {
		return InputOutcome{Result: InputIgnored}
	}
	sample, result := r.machine.Input(now)
	if result != InputScored {
		return InputOutcome{Result: result, Trial: r.trial}
	}
	r.results = append(r.results, sample)
	out := InputOutcome{Result: InputScored, Sample: sample, Trial: r.trial}
	if len(r.results) >= r.cfg.Trials {
		r.phase = PhaseDone
		r.token++
		out.Done = true
		return out
	}
	r.token++
	out.Next = &Wakeup{
		Token: r.token,
		Delay: time.Duration(r.cfg.PauseMs) * time.Millisecond,
		Kind:  WakeupPause,
	}
	return out
}

// PauseDue arms the next trial after the inter-trial pause.
func (r *Runner) PauseDue(token int) (Wakeup, bool) {
	if r.phase != PhaseRunning || token != r.token {
		return Wakeup{}, false
	}
	if r.machine.State() != StateScored {
		return Wakeup{}, false
	}
	return r.armNext(), true
}

// Stop cancels the session. Already-scheduled wakeups become no-ops and the
// partial samples are discarded; nothing is persisted.
func (r *Runner) Stop() {
	if r.phase == PhaseRunning {
		r.phase = PhaseStopped
	}
	r.token++
	r.results = nil
}

// Record builds the immutable history record for a completed session.
func (r *Runner) Record(now time.Time) (model.HistoryRecord, error) {
	if r.phase != PhaseDone {
		return model.HistoryRecord{}, fmt.Errorf("session is not complete")
	}
	if r.cfg.Kind.Visual() {
		return model.NewVisualRecord(r.cfg.Kind, now, r.cfg.InitialColor, r.cfg.StimulusColor,
			r.cfg.Trials, r.cfg.MinDelaySec, r.cfg.MaxDelaySec, r.results)
	}
	return model.NewAudioRecord(now, r.cfg.FrequencyHz, r.cfg.Trials,
		r.cfg.MinDelaySec, r.cfg.MaxDelaySec, r.results)
}

func (r *Runner) minDelay() time.Duration {
	return time.Duration(r.cfg.MinDelaySec * float64(time.Second))
}

func (r *Runner) maxDelay() time.Duration {
	return time.Duration(r.cfg.MaxDelaySec * float64(time.Second))
}
