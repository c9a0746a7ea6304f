// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkazakov/reax/internal/model"
)

// RenderSummary prints the aggregate box. Min/max render as N/A when there
// is no data.
func RenderSummary(w io.Writer, agg Aggregate) error {
	rows := [][]string{
		{"Trials", fmt.Sprintf("%d", agg.Trials)},
		{"Average", fmt.Sprintf("%.1f ms", agg.Mean)},
		{"Median", fmt.Sprintf("%.1f ms", agg.Median)},
		{"Std", fmt.Sprintf("%.1f ms", agg.Std)},
		{"Min", msOrNA(agg.Min, agg.Trials)},
		{"Max", msOrNA(agg.Max, agg.Trials)},
	}
	for _, line := range FormatTable([]string{"Stat", "Value"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func msOrNA(v float64, trials int) string {
	if trials == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f ms", v)
}

// RenderHistory prints records newest first, one block per session.
func RenderHistory(w io.Writer, records []model.HistoryRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No history to display")
		return err
	}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if _, err := fmt.Fprintln(w, FormatRecord(rec)); err != nil {
			return err
		}
		if i > 0 {
			if _, err := fmt.Fprintln(w, strings.Repeat("─", 32)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatRecord builds the multi-line human description of one record.
func FormatRecord(rec model.HistoryRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rec.Kind)
	fmt.Fprintf(&b, "%s\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
	if rec.Kind.Visual() {
		fmt.Fprintf(&b, "Initial: %s, Stimulus: %s\n", rec.InitialColor, rec.StimulusColor)
	} else {
		fmt.Fprintf(&b, "Frequency: %d Hz\n", rec.FrequencyHz)
	}
	fmt.Fprintf(&b, "Trials: %d | Delays: %gs – %gs\n", rec.Trials, rec.MinDelaySec, rec.MaxDelaySec)
	fmt.Fprintf(&b, "Results (ms): %s\n", joinResults(rec.Results, ", "))
	fmt.Fprintf(&b, "Average: %.1f ms", rec.Average())
	return b.String()
}

func joinResults(results []float64, sep string) string {
	parts := make([]string, len(results))
	for i, rt := range results {
		parts[i] = fmt.Sprintf("%.1f", rt)
	}
	return strings.Join(parts, sep)
}

// RenderHourly prints the hour-of-day percentile bands as a table.
func RenderHourly(w io.Writer, bands []HourBand) error {
	if len(bands) == 0 {
		_, err := fmt.Fprintln(w, "No data for hourly bands.")
		return err
	}
	rows := make([][]string, 0, len(bands))
	for _, b := range bands {
		rows = append(rows, []string{
			fmt.Sprintf("%02d:00", b.Hour),
			fmt.Sprintf("%.1f", b.P25),
			fmt.Sprintf("%.1f", b.Median),
			fmt.Sprintf("%.1f", b.P75),
		})
	}
	headers := []string{"Hour", "P25 (ms)", "Median (ms)", "P75 (ms)"}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderColorAverages prints per-stimulus-color means as a table.
func RenderColorAverages(w io.Writer, averages []ColorAverage) error {
	if len(averages) == 0 {
		_, err := fmt.Fprintln(w, "No visual sessions recorded.")
		return err
	}
	rows := make([][]string, 0, len(averages))
	for _, avg := range averages {
		rows = append(rows, []string{avg.Color, fmt.Sprintf("%.1f", avg.Mean)})
	}
	for _, line := range FormatTable([]string{"Stimulus", "Average (ms)"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HourlySeries converts percentile bands into plottable series.
func HourlySeries(bands []HourBand) []Series {
	p25 := Series{Name: "25% Quartile"}
	med := Series{Name: "Median"}
	p75 := Series{Name: "75% Quartile"}
	for _, b := range bands {
		p25.Points = append(p25.Points, Point{X: b.Hour, Y: b.P25})
		med.Points = append(med.Points, Point{X: b.Hour, Y: b.Median})
		p75.Points = append(p75.Points, Point{X: b.Hour, Y: b.P75})
	}
	return []Series{p25, med, p75}
}
