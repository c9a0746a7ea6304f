package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatTableAlignment(t *testing.T) {
	headers := []string{"Stat", "Value"}
	rows := [][]string{
		{"Trials", "5"},
		{"Average", "300.0 ms"},
	}
	lines := FormatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Stat") {
		t.Fatalf("header missing: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "5") {
		t.Fatalf("right-aligned value should end the line: %q", lines[1])
	}
}

func TestRenderSummaryEmptyShowsNA(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Aggregate{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "N/A") {
		t.Fatalf("expected N/A sentinel in output:\n%s", out)
	}
	if !strings.Contains(out, "Trials") {
		t.Fatalf("expected Trials row:\n%s", out)
	}
}

func TestPlotHandlesEmptyAndFlatSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := Plot(&buf, "t", nil, 20, 5, false); err != nil {
		t.Fatalf("empty series: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("empty series should render nothing, got %q", buf.String())
	}

	flat := []Series{{Name: "x", Points: []Point{{X: 1, Y: 5}, {X: 2, Y: 5}}}}
	if err := Plot(&buf, "flat", flat, 20, 5, false); err != nil {
		t.Fatalf("flat series: %v", err)
	}
	if !strings.Contains(buf.String(), "Legend:") {
		t.Fatalf("expected legend in output:\n%s", buf.String())
	}
}
