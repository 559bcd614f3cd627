package pipeline

import (
	"sort"
	"sync"
	"time"
)

// Pipeline stages timed by StageStats.
const (
	StageParse   = "parse"
	StageDetect  = "detect"
	StageAnalyze = "analyze"
	StageChunk   = "chunk"
)

// StatsSnapshot is a point-in-time aggregate of latency samples for one stage.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StageStats records per-stage latencies.
type StageStats struct {
	mu      sync.Mutex
	samples map[string][]int64
}

func NewStageStats() *StageStats {
	return &StageStats{samples: make(map[string][]int64)}
}

// Record adds a sample for stage. Negative durations count as zero.
func (s *StageStats) Record(stage string, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[stage] = append(s.samples[stage], ms)
}

// Time records the time elapsed since start for stage.
func (s *StageStats) Time(stage string, start time.Time) {
	s.Record(stage, time.Since(start))
}

// Snapshot aggregates the samples of every stage seen so far.
func (s *StageStats) Snapshot() map[string]StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.samples))
	for stage, samples := range s.samples {
		out[stage] = aggregate(samples)
	}
	return out
}

func aggregate(samples []int64) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}
	values := make([]int64, len(samples))
	copy(values, samples)
	var sum int64
	for _, v := range values {
		sum += v
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
