// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/dkazakov/reax/internal/model"
)

// outlierStdFactor is the half-width of the retention band around the
// per-kind median, in population standard deviations. 0.5 is deliberately
// aggressive; it is a tunable, not a universal constant.
const outlierStdFactor = 0.5

// Aggregate summarizes a set of reaction-time samples. All fields are
// derived, never stored.
type Aggregate struct {
	Trials int
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
}

// FilterRecords applies the full filter pipeline: kind match, inclusive date
// range, chronological sort, optional outlier exclusion, then the last-N
// cap. The cap runs strictly after outlier filtering.
func FilterRecords(records []model.HistoryRecord, cfg model.FilterConfig) []model.HistoryRecord {
	filtered := make([]model.HistoryRecord, 0, len(records))
	for _, rec := range records {
		if cfg.Kind != "" && rec.Kind != cfg.Kind {
			continue
		}
		if cfg.From != nil && rec.Timestamp.Before(*cfg.From) {
			continue
		}
		if cfg.To != nil && rec.Timestamp.After(endOfDay(*cfg.To)) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	if cfg.RemoveOutliers {
		filtered = removeOutliers(filtered)
	}

	if cfg.Last > 0 && len(filtered) > cfg.Last {
		filtered = filtered[len(filtered)-cfg.Last:]
	}
	return filtered
}

// removeOutliers trims individual samples against a per-kind band of
// [median - 0.5*std, median + 0.5*std], where median and population std are
// pooled across all filtered records of that kind. Records left without
// samples are dropped.
func removeOutliers(records []model.HistoryRecord) []model.HistoryRecord {
	pooled := map[model.Kind][]float64{}
	for _, rec := range records {
		pooled[rec.Kind] = append(pooled[rec.Kind], rec.Results...)
	}
	type band struct {
		lo, hi float64
	}
	bands := map[model.Kind]band{}
	for kind, samples := range pooled {
		med := median(samples)
		threshold := outlierStdFactor * populationStd(samples)
		bands[kind] = band{lo: med - threshold, hi: med + threshold}
	}

	out := make([]model.HistoryRecord, 0, len(records))
	for _, rec := range records {
		b := bands[rec.Kind]
		kept := make([]float64, 0, len(rec.Results))
		for _, rt := range rec.Results {
			if rt >= b.lo && rt <= b.hi {
				kept = append(kept, rt)
			}
		}
		if len(kept) == 0 {
			continue
		}
		trimmed := rec
		trimmed.Results = kept
		out = append(out, trimmed)
	}
	return out
}

// Summarize computes the aggregate over all samples in the given records.
// An empty input yields a zeroed Aggregate, not an error.
func Summarize(records []model.HistoryRecord) Aggregate {
	samples := Flatten(records)
	if len(samples) == 0 {
		return Aggregate{}
	}
	return Aggregate{
		Trials: len(samples),
		Mean:   mean(samples),
		Median: median(samples),
		Std:    populationStd(samples),
		Min:    minOf(samples),
		Max:    maxOf(samples),
	}
}

// Flatten concatenates every record's samples in record order.
func Flatten(records []model.HistoryRecord) []float64 {
	var samples []float64
	for _, rec := range records {
		samples = append(samples, rec.Results...)
	}
	return samples
}

// Percentile computes the q-th percentile (0 <= q <= 1) by linear
// interpolation between order statistics. A single sample is its own
// percentile for any q.
func Percentile(samples []float64, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	pos := float64(len(sorted)-1) * q
	base := int(math.Floor(pos))
	if base < 0 {
		base = 0
	}
	if base+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(base)
	return sorted[base] + frac*(sorted[base+1]-sorted[base])
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// median averages the two middle order statistics for even lengths.
func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// populationStd uses divisor N, not N-1.
func populationStd(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m := mean(samples)
	var sum float64
	for _, v := range samples {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func minOf(samples []float64) float64 {
	out := samples[0]
	for _, v := range samples[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxOf(samples []float64) float64 {
	out := samples[0]
	for _, v := range samples[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
