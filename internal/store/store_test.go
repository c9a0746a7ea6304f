package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkazakov/reax/internal/model"
)

func testRecord(t *testing.T, ts time.Time, stimulus string, results []float64) model.HistoryRecord {
	t.Helper()
	rec, err := model.NewVisualRecord(model.KindFreeplayVisual, ts, "blue", stimulus, len(results), 1, 3, results)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rec
}

func TestAppendAndLoadAllKeepsInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "reax.db")
	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	stimuli := []string{"red", "green", "yellow"}
	for i, stim := range stimuli {
		rec := testRecord(t, base.Add(time.Duration(i)*time.Hour), stim, []float64{200, 210, 190})
		if err := st.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	records, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.StimulusColor != stimuli[i] {
			t.Fatalf("record %d: expected %q, got %q", i, stimuli[i], rec.StimulusColor)
		}
		if len(rec.Results) != 3 {
			t.Fatalf("record %d: lost samples: %v", i, rec.Results)
		}
	}
}

func TestHistorySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "reax.db")
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Append(ctx, testRecord(t, ts, "red", []float64{250})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	records, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(records))
	}
	if !records[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp not preserved: %v", records[0].Timestamp)
	}
}

func TestClearAllEmptiesStore(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "reax.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := st.Append(ctx, testRecord(t, ts, "red", []float64{250})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after clear, got %d records", len(records))
	}
}

func TestLoadAllOnFreshStoreIsEmpty(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "reax.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	records, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
