package chunker

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Orchestrator validates configuration, resolves the strategy and runs it.
type Orchestrator struct {
	Log *slog.Logger
	// Inspect, when set, summarizes attachment and markup payloads in
	// content-aware chunk metadata.
	Inspect Inspector
}

// NewOrchestrator returns an orchestrator without payload inspection.
func NewOrchestrator(log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{Log: log}
}

// Resolve returns the concrete strategy for a request: explicit strategies
// pass through, Auto and empty resolve through the lookup table.
func Resolve(strategy Strategy, docType string) (Strategy, error) {
	switch strategy {
	case "", Auto:
		return ResolveAuto(docType), nil
	case Hierarchical, SlidingWindow, ContentAware:
		return strategy, nil
	}
	return "", &ConfigError{Field: "strategy", Message: fmt.Sprintf("unknown strategy %q", strategy)}
}

// Chunk segments doc with the given strategy. Configuration errors are
// returned before any chunking work starts. Every chunk is tagged with the
// strategy that produced it.
func (o *Orchestrator) Chunk(doc *doctree.ParsedDocument, det handler.DetectionResult, cfg Config, strategy Strategy) ([]doctree.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved, err := Resolve(strategy, det.DocumentType)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Root == nil {
		return nil, nil
	}

	var chunks []doctree.Chunk
	switch resolved {
	case Hierarchical:
		chunks = hierarchicalChunks(doc.Root, cfg, atomicHints(det.Handler))
	case SlidingWindow:
		chunks, err = slidingChunks(doc.Root, cfg)
		if err != nil {
			return nil, err
		}
	case ContentAware:
		hint, _ := det.Handler.(handler.CategoryHinter)
		chunks = contentAwareChunks(doc.Root, cfg, hint, o.Inspect)
	}

	auto := strategy == "" || strategy == Auto
	for i := range chunks {
		c := &chunks[i]
		c.Index = i
		c.ID = fmt.Sprintf("chunk_%04d", i)
		c.Strategy = string(resolved)
		c.Metadata["strategy"] = string(resolved)
		if auto {
			c.Metadata["auto_selected"] = true
		}
	}

	o.logger().Debug("document chunked",
		"path", doc.Path,
		"strategy", resolved,
		"auto", auto,
		"chunks", len(chunks),
	)
	return chunks, nil
}

func atomicHints(h handler.Handler) map[string]bool {
	if ah, ok := h.(handler.AtomicHinter); ok {
		return ah.AtomicElements()
	}
	return nil
}

// Categories returns the content category assigned to each element, keyed by
// path, as the content-aware strategy sees it.
func Categories(root *doctree.Element, h handler.Handler) map[string]doctree.ContentCategory {
	hint, _ := h.(handler.CategoryHinter)
	cls := classify(root, hint)
	out := make(map[string]doctree.ContentCategory, len(cls.cat))
	for e, c := range cls.cat {
		out[e.Path] = c
	}
	return out
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}
