package pipeline

import (
	"testing"
	"time"
)

func TestStageStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStageStats()
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(StageParse, time.Duration(ms)*time.Millisecond)
	}

	snap := stats.Snapshot()[StageParse]
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStageStatsSeparatesStages(t *testing.T) {
	stats := NewStageStats()
	stats.Record(StageParse, 10*time.Millisecond)
	stats.Record(StageChunk, 20*time.Millisecond)
	stats.Record(StageChunk, 40*time.Millisecond)

	snap := stats.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(snap))
	}
	if snap[StageChunk].Count != 2 || snap[StageChunk].AvgMs != 30 {
		t.Errorf("expected 2 chunk samples averaging 30, got %+v", snap[StageChunk])
	}
	if _, ok := snap[StageDetect]; ok {
		t.Error("expected no entry for an unrecorded stage")
	}
}

func TestStageStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStageStats()
	stats.Record(StageDetect, -5*time.Millisecond)

	snap := stats.Snapshot()[StageDetect]
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration 0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestPercentileSingleValue(t *testing.T) {
	if got := percentile([]int64{7}, 95); got != 7 {
		t.Errorf("expected 7, got %f", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for no samples, got %f", got)
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		if d <= 0 || d > 3*time.Second {
			t.Errorf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
