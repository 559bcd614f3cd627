package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/xmlsift/internal/chunker"
	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/parser"
	"github.com/dgallion1/xmlsift/internal/store"
)

// Options controls a single run.
type Options struct {
	Strategy     chunker.Strategy
	Chunk        chunker.Config
	SkipChunking bool
	// MaxBytes rejects larger inputs before parsing; zero disables the limit.
	MaxBytes int64
	// NoCache bypasses cache lookups and writes for this run.
	NoCache bool
}

// Result is the outcome of a run.
type Result struct {
	RunID     string                  `json:"run_id"`
	Path      string                  `json:"path"`
	Document  *doctree.ParsedDocument `json:"-"`
	Detection handler.DetectionResult `json:"detection"`
	Analysis  *handler.Analysis       `json:"analysis"`
	Warnings  []handler.Warning       `json:"warnings,omitempty"`
	Strategy  chunker.Strategy        `json:"strategy,omitempty"`
	Chunks    []doctree.Chunk         `json:"chunks,omitempty"`
	Cached    bool                    `json:"cached"`
}

// Runner executes parse, detect, analyze and chunk for one document.
type Runner struct {
	Detector *handler.Detector
	Chunker  *chunker.Orchestrator
	// Cache is optional. Cache failures are logged, never fatal.
	Cache store.Cache
	Stats *StageStats
	Jobs  *JobStore
	Log   *slog.Logger
	// Workers bounds RunBatch parallelism.
	Workers int
}

// NewRunner wires a runner with fresh job and stage bookkeeping.
func NewRunner(det *handler.Detector, ch *chunker.Orchestrator, cache store.Cache, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		Detector: det,
		Chunker:  ch,
		Cache:    cache,
		Stats:    NewStageStats(),
		Jobs:     NewJobStore(),
		Log:      log,
		Workers:  1,
	}
}

// Run processes the file at path. Parse and configuration errors are fatal
// and returned; handler failures degrade to warnings on the result.
// Configuration is validated before the file is read.
func (r *Runner) Run(ctx context.Context, path string, opts Options) (*Result, error) {
	if !opts.SkipChunking {
		if err := opts.Chunk.Validate(); err != nil {
			return nil, err
		}
		if _, err := chunker.Resolve(opts.Strategy, ""); err != nil {
			return nil, err
		}
	}

	job := NewJob(newRunID(), path)
	r.Jobs.Put(job)
	log := r.Log.With("run_id", job.ID, "path", path)

	fail := func(phase string, err error) (*Result, error) {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		log.Error("run failed", "phase", phase, "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail("queued", err)
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	doc, err := parser.ParseFile(path, opts.MaxBytes)
	r.Stats.Time(StageParse, start)
	if err != nil {
		return fail("parsing", fmt.Errorf("parse %s: %w", path, err))
	}
	job.SetContentHash(doc.ContentHash)
	log.Debug("parsed document", "elements", doc.Stats.ElementCount, "depth", doc.Stats.MaxDepth)

	// Phase 1.5: Cache lookup
	key := store.ConfigKey(opts.Chunk.Signature(), string(requested(opts.Strategy)), r.Detector.Registry.Signature())
	if res, ok := r.lookup(ctx, doc, key, opts, job, log); ok {
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return fail("parsing", err)
	}

	// Phase 2: Detect
	job.SetStatus(StatusDetecting, "detecting")
	start = time.Now()
	det := r.Detector.Detect(doc)
	r.Stats.Time(StageDetect, start)
	job.SetDetection(det.DocumentType, det.Confidence)
	log.Info("detected document type", "doc_type", det.DocumentType, "confidence", det.Confidence)

	// Phase 3: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	start = time.Now()
	analysis, analyzeWarnings := r.Detector.Analyze(doc, det)
	r.Stats.Time(StageAnalyze, start)

	res := &Result{
		RunID:     job.ID,
		Path:      path,
		Document:  doc,
		Detection: det,
		Analysis:  analysis,
	}
	res.Warnings = append(res.Warnings, det.Warnings...)
	res.Warnings = append(res.Warnings, analyzeWarnings...)
	for _, w := range res.Warnings {
		job.AddWarning(w.String())
	}

	if opts.SkipChunking {
		job.SetStatus(StatusCompleted, "done")
		return res, nil
	}

	// Phase 4: Chunk
	job.SetStatus(StatusChunking, "chunking")
	start = time.Now()
	chunks, err := r.Chunker.Chunk(doc, det, opts.Chunk, opts.Strategy)
	r.Stats.Time(StageChunk, start)
	if err != nil {
		return fail("chunking", err)
	}
	res.Chunks = chunks
	res.Strategy, _ = chunker.Resolve(opts.Strategy, det.DocumentType)
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "strategy", res.Strategy, "chunks", len(chunks))

	r.save(ctx, res, key, opts, log)
	job.SetStatus(StatusCompleted, "done")
	return res, nil
}

func requested(s chunker.Strategy) chunker.Strategy {
	if s == "" {
		return chunker.Auto
	}
	return s
}

// lookup replays a cached run. Detection is deterministic for a fixed
// registry, so the stored result stands in for the full pipeline.
func (r *Runner) lookup(ctx context.Context, doc *doctree.ParsedDocument, key string, opts Options, job *Job, log *slog.Logger) (*Result, bool) {
	if r.Cache == nil || opts.NoCache || opts.SkipChunking {
		return nil, false
	}
	run, err := r.Cache.LookupRun(ctx, doc.ContentHash, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		log.Warn("cache lookup failed, proceeding", "error", err)
		return nil, false
	}

	det := handler.DetectionResult{DocumentType: run.DocType, Confidence: run.Confidence}
	if h, ok := r.Detector.Registry.Get(run.Handler); ok {
		det.Handler = h
		det.TypeName = h.TypeName()
	}
	job.SetDetection(det.DocumentType, det.Confidence)
	job.SetTotalChunks(len(run.Chunks))
	job.SetStatus(StatusCached, "done")
	log.Info("replayed cached run", "cached_run_id", run.ID, "chunks", len(run.Chunks))

	res := &Result{
		RunID:     job.ID,
		Path:      job.Path,
		Document:  doc,
		Detection: det,
		Analysis:  run.Analysis,
		Warnings:  run.Warnings,
		Chunks:    run.Chunks,
		Cached:    true,
	}
	if len(run.Chunks) > 0 {
		res.Strategy = chunker.Strategy(run.Chunks[0].Strategy)
	} else {
		res.Strategy, _ = chunker.Resolve(opts.Strategy, det.DocumentType)
	}
	return res, true
}

func (r *Runner) save(ctx context.Context, res *Result, key string, opts Options, log *slog.Logger) {
	if r.Cache == nil || opts.NoCache {
		return
	}
	handlerName := ""
	if res.Detection.Handler != nil {
		handlerName = res.Detection.Handler.Name()
	}
	run := &store.Run{
		ID:          res.RunID,
		Path:        res.Path,
		ContentHash: res.Document.ContentHash,
		ConfigKey:   key,
		DocType:     res.Detection.DocumentType,
		Handler:     handlerName,
		Confidence:  res.Detection.Confidence,
		Analysis:    res.Analysis,
		Warnings:    res.Warnings,
		Chunks:      res.Chunks,
		CreatedAt:   time.Now().UTC(),
	}

	var err error
	for attempt := range MaxRetries {
		if err = r.Cache.SaveRun(ctx, run); err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable cache error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return
		}
	}
	if err != nil {
		log.Warn("cache write failed", "error", err)
	}
}
