package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/xmlsift/internal/chunker"
	"github.com/dgallion1/xmlsift/internal/formats"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/parser"
	"github.com/dgallion1/xmlsift/internal/store"
)

const pomXML = `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.example</groupId>
  <artifactId>shop</artifactId>
  <version>1.0.0</version>
  <dependencies>
    <dependency><groupId>junit</groupId><artifactId>junit</artifactId><version>4.13</version><scope>test</scope></dependency>
  </dependencies>
</project>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T, cache store.Cache) *Runner {
	t.Helper()
	reg, err := formats.DefaultRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(handler.NewDetector(reg, nil), chunker.NewOrchestrator(nil), cache, nil)
}

func defaultOptions() Options {
	return Options{Strategy: chunker.Auto, Chunk: chunker.DefaultConfig()}
}

func TestRunner_Run(t *testing.T) {
	r := newTestRunner(t, nil)
	path := writeFile(t, "pom.xml", pomXML)

	res, err := r.Run(context.Background(), path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Detection.DocumentType != "maven_pom" {
		t.Errorf("expected maven_pom, got %q", res.Detection.DocumentType)
	}
	if res.Analysis == nil || res.Analysis.DocumentType != "maven_pom" {
		t.Errorf("expected maven_pom analysis, got %+v", res.Analysis)
	}
	if res.Strategy != chunker.Hierarchical {
		t.Errorf("expected hierarchical, got %q", res.Strategy)
	}
	if len(res.Chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if res.Cached {
		t.Error("expected uncached result without a cache")
	}

	job := r.Jobs.Get(res.RunID)
	if job == nil {
		t.Fatal("expected job to be registered")
	}
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	if snap.Progress.TotalChunks != len(res.Chunks) {
		t.Errorf("expected %d total chunks, got %d", len(res.Chunks), snap.Progress.TotalChunks)
	}

	stages := r.Stats.Snapshot()
	for _, s := range []string{StageParse, StageDetect, StageAnalyze, StageChunk} {
		if stages[s].Count != 1 {
			t.Errorf("expected 1 %s sample, got %d", s, stages[s].Count)
		}
	}
}

func TestRunner_ConfigErrorBeforeParse(t *testing.T) {
	r := newTestRunner(t, nil)
	opts := defaultOptions()
	opts.Chunk.OverlapSize = opts.Chunk.MaxChunkSize

	// The file does not exist; a config error must win over the read error.
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing.xml"), opts)
	var ce *chunker.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *chunker.ConfigError, got %v", err)
	}
	if len(r.Jobs.List()) != 0 {
		t.Error("expected no job to start on a config error")
	}
	if len(r.Stats.Snapshot()) != 0 {
		t.Error("expected no stage work on a config error")
	}
}

func TestRunner_UnknownStrategy(t *testing.T) {
	r := newTestRunner(t, nil)
	opts := defaultOptions()
	opts.Strategy = "zigzag"
	_, err := r.Run(context.Background(), writeFile(t, "a.xml", "<a/>"), opts)
	var ce *chunker.ConfigError
	if !errors.As(err, &ce) || ce.Field != "strategy" {
		t.Fatalf("expected strategy ConfigError, got %v", err)
	}
}

func TestRunner_ParseError(t *testing.T) {
	r := newTestRunner(t, nil)
	path := writeFile(t, "broken.xml", "<a><b></a>")

	_, err := r.Run(context.Background(), path, defaultOptions())
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *parser.ParseError, got %v", err)
	}

	list := r.Jobs.List()
	if len(list) != 1 || list[0].Status != StatusFailed {
		t.Fatalf("expected one failed job, got %+v", list)
	}
	if list[0].Phase != "parsing" {
		t.Errorf("expected failure in parsing, got %q", list[0].Phase)
	}
}

func TestRunner_SkipChunking(t *testing.T) {
	r := newTestRunner(t, nil)
	opts := defaultOptions()
	opts.SkipChunking = true

	res, err := r.Run(context.Background(), writeFile(t, "pom.xml", pomXML), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(res.Chunks))
	}
	if _, ok := r.Stats.Snapshot()[StageChunk]; ok {
		t.Error("expected no chunk stage sample")
	}
}

func TestRunner_CanceledContext(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, writeFile(t, "pom.xml", pomXML), defaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_CacheKeyTracksHandlerSettings(t *testing.T) {
	cache, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	path := writeFile(t, "pom.xml", pomXML)
	ctx := context.Background()

	first, err := newTestRunner(t, cache).Run(ctx, path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Detection.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", first.Detection.Confidence)
	}

	settings, err := formats.DefaultSettings().Merge(map[string]float64{"maven_pom.namespace": 0.1})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := formats.DefaultRegistry(settings)
	if err != nil {
		t.Fatal(err)
	}
	tuned := NewRunner(handler.NewDetector(reg, nil), chunker.NewOrchestrator(nil), cache, nil)

	second, err := tuned.Run(ctx, path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Cached {
		t.Error("expected a miss after handler settings changed")
	}
	if second.Detection.Confidence != 0.1 {
		t.Errorf("expected confidence 0.1 from the current settings, got %v", second.Detection.Confidence)
	}

	third, err := newTestRunner(t, cache).Run(ctx, path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !third.Cached || third.Detection.Confidence != 0.95 {
		t.Errorf("expected cached default detection at 0.95, got cached=%v confidence=%v", third.Cached, third.Detection.Confidence)
	}
}

func TestRunner_CacheReplay(t *testing.T) {
	cache, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	r := newTestRunner(t, cache)
	path := writeFile(t, "pom.xml", pomXML)
	ctx := context.Background()

	first, err := r.Run(ctx, path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Fatal("expected first run to miss the cache")
	}

	second, err := r.Run(ctx, path, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatal("expected second run to hit the cache")
	}
	if second.Detection.DocumentType != first.Detection.DocumentType {
		t.Errorf("expected %q, got %q", first.Detection.DocumentType, second.Detection.DocumentType)
	}
	if second.Detection.Handler == nil || second.Detection.Handler.Name() != "maven_pom" {
		t.Error("expected cached detection to resolve its handler")
	}
	if len(second.Chunks) != len(first.Chunks) {
		t.Errorf("expected %d chunks, got %d", len(first.Chunks), len(second.Chunks))
	}
	if second.Strategy != first.Strategy {
		t.Errorf("expected strategy %q, got %q", first.Strategy, second.Strategy)
	}
	if r.Jobs.Get(second.RunID).Snapshot().Status != StatusCached {
		t.Error("expected cached job status")
	}

	// A different configuration is a different key.
	opts := defaultOptions()
	opts.Chunk.MaxChunkSize = 64
	opts.Chunk.MinChunkSize = 10
	opts.Chunk.OverlapSize = 8
	third, err := r.Run(ctx, path, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.Cached {
		t.Error("expected a miss for a new chunk configuration")
	}

	opts = defaultOptions()
	opts.NoCache = true
	fourth, err := r.Run(ctx, path, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fourth.Cached {
		t.Error("expected NoCache to bypass the cache")
	}
}

func TestRunner_RunBatchIsolatesFailures(t *testing.T) {
	r := newTestRunner(t, nil)
	r.Workers = 2
	paths := []string{
		writeFile(t, "pom.xml", pomXML),
		writeFile(t, "broken.xml", "<a>"),
		writeFile(t, "plain.xml", "<notes><note>hello</note></notes>"),
	}

	items := r.RunBatch(context.Background(), paths, defaultOptions())
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, it := range items {
		if it.Path != paths[i] {
			t.Errorf("item %d: expected path %q, got %q", i, paths[i], it.Path)
		}
	}
	if items[0].Err != nil || items[0].Result.Detection.DocumentType != "maven_pom" {
		t.Errorf("expected first file to succeed as maven_pom, got %v", items[0].Err)
	}
	if items[1].Err == nil || items[1].Result != nil {
		t.Error("expected second file to fail")
	}
	if items[2].Err != nil || items[2].Result.Detection.DocumentType != "generic" {
		t.Errorf("expected third file to fall back to generic, got %v", items[2].Err)
	}

	counts := r.Jobs.Counts()
	if counts[StatusCompleted] != 2 || counts[StatusFailed] != 1 {
		t.Errorf("unexpected job counts %v", counts)
	}
}
