// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Kind identifies a test variant.
type Kind string

// Test variants. String forms are the persisted names.
const (
	KindFreeplayVisual Kind = "Freeplay Visual"
	KindFreeplayAudio  Kind = "Freeplay Audio"
	KindTesterVisual   Kind = "Tester Visual"
)

// ParseKind converts a persisted or user-supplied name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFreeplayVisual, KindFreeplayAudio, KindTesterVisual:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown test kind %q", s)
}

// Visual reports whether the kind presents a color-change stimulus.
func (k Kind) Visual() bool {
	return k == KindFreeplayVisual || k == KindTesterVisual
}

// SessionConfig defines one session's settings.
type SessionConfig struct {
	Kind          Kind
	InitialColor  string
	StimulusColor string
	FrequencyHz   int
	Trials        int
	MinDelaySec   float64
	MaxDelaySec   float64
	PauseMs       int
}

// Validate rejects configurations that must not start a session.
func (c SessionConfig) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Trials <= 0 {
		return fmt.Errorf("trial count must be > 0")
	}
	if c.MinDelaySec <= 0 || c.MaxDelaySec <= 0 {
		return fmt.Errorf("delay bounds must be > 0")
	}
	if c.MinDelaySec > c.MaxDelaySec {
		return fmt.Errorf("min delay %.1fs exceeds max delay %.1fs", c.MinDelaySec, c.MaxDelaySec)
	}
	if c.Kind.Visual() {
		if c.InitialColor == "" || c.StimulusColor == "" {
			return fmt.Errorf("visual tests need initial and stimulus colors")
		}
	} else if c.FrequencyHz <= 0 {
		return fmt.Errorf("audio tests need a frequency > 0")
	}
	if c.PauseMs < 0 {
		return fmt.Errorf("inter-trial pause must be >= 0")
	}
	return nil
}

// HistoryRecord captures one completed session. Immutable once appended.
type HistoryRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Kind          Kind      `json:"type"`
	InitialColor  string    `json:"initialColor,omitempty"`
	StimulusColor string    `json:"stimulusColor,omitempty"`
	FrequencyHz   int       `json:"frequency,omitempty"`
	Trials        int       `json:"trials"`
	MinDelaySec   float64   `json:"minDelay"`
	MaxDelaySec   float64   `json:"maxDelay"`
	Results       []float64 `json:"results"`
}

// NewVisualRecord builds a validated visual-test record.
func NewVisualRecord(kind Kind, ts time.Time, initial, stimulus string, trials int, minDelay, maxDelay float64, results []float64) (HistoryRecord, error) {
	if !kind.Visual() {
		return HistoryRecord{}, fmt.Errorf("kind %q is not visual", kind)
	}
	if initial == "" || stimulus == "" {
		return HistoryRecord{}, fmt.Errorf("visual records need initial and stimulus colors")
	}
	rec := HistoryRecord{
		Timestamp:     ts,
		Kind:          kind,
		InitialColor:  initial,
		StimulusColor: stimulus,
		Trials:        trials,
		MinDelaySec:   minDelay,
		MaxDelaySec:   maxDelay,
		Results:       append([]float64(nil), results...),
	}
	if err := rec.validate(); err != nil {
		return HistoryRecord{}, err
	}
	return rec, nil
}

// NewAudioRecord builds a validated audio-test record.
func NewAudioRecord(ts time.Time, frequencyHz, trials int, minDelay, maxDelay float64, results []float64) (HistoryRecord, error) {
	if frequencyHz <= 0 {
		return HistoryRecord{}, fmt.Errorf("frequency must be > 0")
	}
	rec := HistoryRecord{
		Timestamp:   ts,
		Kind:        KindFreeplayAudio,
		FrequencyHz: frequencyHz,
		Trials:      trials,
		MinDelaySec: minDelay,
		MaxDelaySec: maxDelay,
		Results:     append([]float64(nil), results...),
	}
	if err := rec.validate(); err != nil {
		return HistoryRecord{}, err
	}
	return rec, nil
}

func (r HistoryRecord) validate() error {
	if r.Trials <= 0 {
		return fmt.Errorf("trial count must be > 0")
	}
	if r.MinDelaySec <= 0 || r.MinDelaySec > r.MaxDelaySec {
		return fmt.Errorf("invalid delay bounds %.1f..%.1f", r.MinDelaySec, r.MaxDelaySec)
	}
	for _, rt := range r.Results {
		if rt < 0 {
			return fmt.Errorf("negative reaction time %.1f", rt)
		}
	}
	return nil
}

// Average returns the mean reaction time, or 0 for an empty record.
func (r HistoryRecord) Average() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	var sum float64
	for _, rt := range r.Results {
		sum += rt
	}
	return sum / float64(len(r.Results))
}

// GroupView selects how samples are bucketed for charting.
type GroupView string

// Grouping modes.
const (
	ViewAll     GroupView = "all"
	ViewSession GroupView = "session"
	ViewDay     GroupView = "day"
	ViewWeek    GroupView = "week"
)

// ParseGroupView validates a grouping mode name.
func ParseGroupView(s string) (GroupView, error) {
	switch GroupView(s) {
	case ViewAll, ViewSession, ViewDay, ViewWeek:
		return GroupView(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// FilterConfig defines filters and options for stats output.
type FilterConfig struct {
	Kind           Kind // empty matches all kinds
	From           *time.Time
	To             *time.Time // inclusive; extended to end of day
	Last           int
	RemoveOutliers bool
	View           GroupView
}
