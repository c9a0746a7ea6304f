// Package export writes history records as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkazakov/reax/internal/model"
)

var header = []string{
	"Type",
	"Date & Time",
	"Frequency (Hz)",
	"Initial Color",
	"Stimulus Color",
	"Trials",
	"Min Delay (s)",
	"Max Delay (s)",
	"Results (ms)",
	"Average (ms)",
}

// WriteCSV writes one row per record, oldest first. Attributes a kind does
// not carry stay empty; reaction times are pipe-separated with one decimal.
func WriteCSV(w io.Writer, records []model.HistoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			string(rec.Kind),
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			"",
			rec.InitialColor,
			rec.StimulusColor,
			strconv.Itoa(rec.Trials),
			formatSeconds(rec.MinDelaySec),
			formatSeconds(rec.MaxDelaySec),
			joinResults(rec.Results),
			fmt.Sprintf("%.1f", rec.Average()),
		}
		if rec.FrequencyHz > 0 {
			row[2] = strconv.Itoa(rec.FrequencyHz)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func joinResults(results []float64) string {
	parts := make([]string, len(results))
	for i, rt := range results {
		parts[i] = fmt.Sprintf("%.1f", rt)
	}
	return strings.Join(parts, "|")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
