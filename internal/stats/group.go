// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"
	"time"

	"github.com/dkazakov/reax/internal/model"
)

// Point is one chart coordinate.
type Point struct {
	X int
	Y float64
}

// Series is a named point sequence for charting.
type Series struct {
	Name   string
	Points []Point
}

// GroupSeries buckets samples for charting. ViewAll emits one point per
// sample at the running trial index (shared across kinds); the bucketed
// views emit one point per session/day/week bucket per kind, y = bucket
// mean, x = bucket sequence index within the kind's series.
func GroupSeries(records []model.HistoryRecord, view model.GroupView) []Series {
	if view == model.ViewAll || view == "" {
		return groupAllTrials(records)
	}
	return groupBuckets(records, view)
}

func groupAllTrials(records []model.HistoryRecord) []Series {
	byName := map[string]*Series{}
	var order []string
	trialIndex := 1
	for _, rec := range records {
		name := string(rec.Kind)
		s, ok := byName[name]
		if !ok {
			s = &Series{Name: name}
			byName[name] = s
			order = append(order, name)
		}
		for _, rt := range rec.Results {
			s.Points = append(s.Points, Point{X: trialIndex, Y: rt})
			trialIndex++
		}
	}
	return collectSeries(byName, order)
}

func groupBuckets(records []model.HistoryRecord, view model.GroupView) []Series {
	type bucket struct {
		name    string
		samples []float64
	}
	byKey := map[string]*bucket{}
	var keys []string
	for _, rec := range records {
		key := string(rec.Kind) + "/" + bucketKey(rec.Timestamp, view)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{name: string(rec.Kind)}
			byKey[key] = b
			keys = append(keys, key)
		}
		b.samples = append(b.samples, rec.Results...)
	}

	byName := map[string]*Series{}
	var order []string
	for _, key := range keys {
		b := byKey[key]
		s, ok := byName[b.name]
		if !ok {
			s = &Series{Name: b.name}
			byName[b.name] = s
			order = append(order, b.name)
		}
		s.Points = append(s.Points, Point{X: len(s.Points), Y: mean(b.samples)})
	}
	return collectSeries(byName, order)
}

func bucketKey(ts time.Time, view model.GroupView) string {
	switch view {
	case model.ViewDay:
		return ts.Format("2006-01-02")
	case model.ViewWeek:
		// Weeks start on Sunday.
		start := ts.AddDate(0, 0, -int(ts.Weekday()))
		return start.Format("2006-01-02")
	default: // model.ViewSession
		return ts.Format(time.RFC3339Nano)
	}
}

func collectSeries(byName map[string]*Series, order []string) []Series {
	out := make([]Series, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// HourBand holds percentile bands for one hour of the day.
type HourBand struct {
	Hour   int
	P25    float64
	Median float64
	P75    float64
}

// HourlyBands pools samples by hour-of-day of the session timestamp and
// computes 25th/50th/75th percentile bands, sorted by hour.
func HourlyBands(records []model.HistoryRecord) []HourBand {
	byHour := map[int][]float64{}
	for _, rec := range records {
		hour := rec.Timestamp.Hour()
		byHour[hour] = append(byHour[hour], rec.Results...)
	}
	hours := make([]int, 0, len(byHour))
	for hour := range byHour {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	bands := make([]HourBand, 0, len(hours))
	for _, hour := range hours {
		samples := byHour[hour]
		bands = append(bands, HourBand{
			Hour:   hour,
			P25:    Percentile(samples, 0.25),
			Median: Percentile(samples, 0.5),
			P75:    Percentile(samples, 0.75),
		})
	}
	return bands
}

// ColorAverage holds the mean reaction time for one stimulus color.
type ColorAverage struct {
	Color string
	Mean  float64
}

// ColorAverages computes mean reaction times per stimulus color in
// first-seen order. Records without a stimulus color are skipped.
func ColorAverages(records []model.HistoryRecord) []ColorAverage {
	byColor := map[string][]float64{}
	var order []string
	for _, rec := range records {
		if rec.StimulusColor == "" {
			continue
		}
		if _, ok := byColor[rec.StimulusColor]; !ok {
			order = append(order, rec.StimulusColor)
		}
		byColor[rec.StimulusColor] = append(byColor[rec.StimulusColor], rec.Results...)
	}
	out := make([]ColorAverage, 0, len(order))
	for _, color := range order {
		out = append(out, ColorAverage{Color: color, Mean: mean(byColor[color])})
	}
	return out
}
