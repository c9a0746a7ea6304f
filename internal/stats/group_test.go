package stats

import (
	"testing"
	"time"

	"github.com/dkazakov/reax/internal/model"
)

func TestGroupAllTrialsUsesRunningIndex(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HistoryRecord{
		visualRecord(t, ts, []float64{200, 210}),
		audioRecord(t, ts.Add(time.Hour), []float64{220}),
		visualRecord(t, ts.Add(2*time.Hour), []float64{230}),
	}
	series := GroupSeries(records, model.ViewAll)
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	visual := series[0]
	if visual.Name != string(model.KindFreeplayVisual) {
		t.Fatalf("unexpected series order: %q", visual.Name)
	}
	// The trial index runs across all records: visual gets 1, 2, 4.
	wantX := []int{1, 2, 4}
	if len(visual.Points) != 3 {
		t.Fatalf("expected 3 visual points, got %d", len(visual.Points))
	}
	for i, p := range visual.Points {
		if p.X != wantX[i] {
			t.Fatalf("visual point %d: expected x=%d, got %d", i, wantX[i], p.X)
		}
	}
	audio := series[1]
	if len(audio.Points) != 1 || audio.Points[0].X != 3 || audio.Points[0].Y != 220 {
		t.Fatalf("unexpected audio points: %+v", audio.Points)
	}
}

func TestGroupByDayAveragesBuckets(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	records := []model.HistoryRecord{
		visualRecord(t, day1, []float64{200, 220}),
		visualRecord(t, day1.Add(3*time.Hour), []float64{240}),
		visualRecord(t, day2, []float64{300}),
	}
	series := GroupSeries(records, model.ViewDay)
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	points := series[0].Points
	if len(points) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(points))
	}
	if points[0].X != 0 || !approx(points[0].Y, 220) {
		t.Fatalf("day 1 bucket wrong: %+v", points[0])
	}
	if points[1].X != 1 || !approx(points[1].Y, 300) {
		t.Fatalf("day 2 bucket wrong: %+v", points[1])
	}
}

func TestGroupByWeekStartsSunday(t *testing.T) {
	// 2024-03-01 is a Friday, 2024-03-03 a Sunday: different weeks.
	friday := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	records := []model.HistoryRecord{
		visualRecord(t, friday, []float64{200}),
		visualRecord(t, sunday, []float64{300}),
	}
	series := GroupSeries(records, model.ViewWeek)
	if len(series) != 1 || len(series[0].Points) != 2 {
		t.Fatalf("expected 2 week buckets, got %+v", series)
	}

	// Friday and the preceding Wednesday share a week.
	wednesday := time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)
	records = []model.HistoryRecord{
		visualRecord(t, wednesday, []float64{200}),
		visualRecord(t, friday, []float64{300}),
	}
	series = GroupSeries(records, model.ViewWeek)
	if len(series) != 1 || len(series[0].Points) != 1 {
		t.Fatalf("expected 1 shared week bucket, got %+v", series)
	}
	if !approx(series[0].Points[0].Y, 250) {
		t.Fatalf("expected bucket mean 250, got %v", series[0].Points[0].Y)
	}
}

func TestGroupBySessionOnePointPerRecord(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HistoryRecord{
		visualRecord(t, ts, []float64{200, 400}),
		visualRecord(t, ts.Add(time.Hour), []float64{100}),
	}
	series := GroupSeries(records, model.ViewSession)
	if len(series) != 1 || len(series[0].Points) != 2 {
		t.Fatalf("expected 2 session points, got %+v", series)
	}
	if !approx(series[0].Points[0].Y, 300) || !approx(series[0].Points[1].Y, 100) {
		t.Fatalf("session means wrong: %+v", series[0].Points)
	}
}

func TestHourlyBands(t *testing.T) {
	nine := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	fourteen := time.Date(2024, 3, 2, 14, 5, 0, 0, time.UTC)
	records := []model.HistoryRecord{
		visualRecord(t, nine, []float64{100, 200, 300, 400, 500}),
		visualRecord(t, fourteen, []float64{250}),
	}
	bands := HourlyBands(records)
	if len(bands) != 2 {
		t.Fatalf("expected 2 hour bands, got %d", len(bands))
	}
	if bands[0].Hour != 9 || bands[1].Hour != 14 {
		t.Fatalf("bands not sorted by hour: %+v", bands)
	}
	if !approx(bands[0].P25, 200) || !approx(bands[0].Median, 300) || !approx(bands[0].P75, 400) {
		t.Fatalf("9h band wrong: %+v", bands[0])
	}
	if !approx(bands[1].Median, 250) {
		t.Fatalf("single-sample band wrong: %+v", bands[1])
	}
}

func TestColorAverages(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	red, err := model.NewVisualRecord(model.KindFreeplayVisual, ts, "blue", "red", 2, 1, 3, []float64{200, 300})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	green, err := model.NewVisualRecord(model.KindTesterVisual, ts.Add(time.Hour), "white", "green", 1, 1, 3, []float64{150})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	audio := audioRecord(t, ts.Add(2*time.Hour), []float64{999})

	averages := ColorAverages([]model.HistoryRecord{red, green, audio})
	if len(averages) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(averages))
	}
	if averages[0].Color != "red" || !approx(averages[0].Mean, 250) {
		t.Fatalf("red average wrong: %+v", averages[0])
	}
	if averages[1].Color != "green" || !approx(averages[1].Mean, 150) {
		t.Fatalf("green average wrong: %+v", averages[1])
	}
}
