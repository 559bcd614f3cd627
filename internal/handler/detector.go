package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// Detector selects the best-matching handler for a parsed document and
// dispatches analysis to it.
type Detector struct {
	Registry *Registry
	Log      *slog.Logger
	// Concurrency bounds parallel probe evaluation. Values below 2 probe
	// sequentially. Selection is identical either way.
	Concurrency int
}

// NewDetector returns a sequential detector over reg.
func NewDetector(reg *Registry, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{Registry: reg, Log: log}
}

type probeOutcome struct {
	matched    bool
	confidence float64
	warning    *Warning
}

// Detect runs every handler's probe and selects the highest confidence match.
// Ties go to the handler registered first. When nothing matches, the fallback
// is selected with confidence 0. Probe failures are recorded as warnings and
// never abort detection.
func (d *Detector) Detect(doc *doctree.ParsedDocument) DetectionResult {
	handlers := d.Registry.Handlers()
	outcomes := make([]probeOutcome, len(handlers))

	if d.Concurrency > 1 && len(handlers) > 1 {
		var g errgroup.Group
		g.SetLimit(d.Concurrency)
		for i, h := range handlers {
			g.Go(func() error {
				outcomes[i] = runProbe(h, doc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, h := range handlers {
			outcomes[i] = runProbe(h, doc)
		}
	}

	var res DetectionResult
	best := -1
	for i, o := range outcomes {
		if o.warning != nil {
			res.Warnings = append(res.Warnings, *o.warning)
			d.logger().Warn("handler probe failed", "handler", o.warning.Handler, "error", o.warning.Message)
		}
		if !o.matched {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{Handler: handlers[i].Name(), Confidence: o.confidence})
		if best < 0 || o.confidence > outcomes[best].confidence {
			best = i
		}
	}

	selected := d.Registry.Fallback()
	confidence := 0.0
	if best >= 0 {
		selected = handlers[best]
		confidence = outcomes[best].confidence
	}
	res.DocumentType = selected.Name()
	res.TypeName = selected.TypeName()
	res.Confidence = confidence
	res.Handler = selected

	d.logger().Debug("document type detected",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"candidates", len(res.Candidates),
	)
	return res
}

func runProbe(h Handler, doc *doctree.ParsedDocument) (out probeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = probeOutcome{warning: &Warning{Stage: StageProbe, Handler: h.Name(), Message: fmt.Sprintf("panic: %v", r)}}
		}
	}()

	ok, conf, err := h.Probe(doc.Root, doc.Namespaces)
	if err != nil {
		return probeOutcome{warning: &Warning{Stage: StageProbe, Handler: h.Name(), Message: err.Error()}}
	}
	if !ok {
		return probeOutcome{}
	}
	if math.IsNaN(conf) {
		return probeOutcome{warning: &Warning{Stage: StageProbe, Handler: h.Name(), Message: "confidence is NaN"}}
	}
	out = probeOutcome{matched: true, confidence: conf}
	if conf < 0 || conf > 1 {
		out.confidence = math.Max(0, math.Min(1, conf))
		out.warning = &Warning{Stage: StageProbe, Handler: h.Name(), Message: fmt.Sprintf("confidence %g clamped to %g", conf, out.confidence)}
	}
	return out
}

// Analyze invokes the detected handler's analysis. On failure it falls back
// to the generic handler and, failing that, to structural statistics, so a
// parsed document always yields an analysis. Absorbed failures are returned
// as warnings. Every analysis carries the document's structure tree and a
// processing hint from the handler that produced it.
func (d *Detector) Analyze(doc *doctree.ParsedDocument, det DetectionResult) (*Analysis, []Warning) {
	fallback := d.Registry.Fallback()
	h := det.Handler
	if h == nil {
		h = fallback
	}

	var warnings []Warning
	a, err := runAnalyze(h, doc)
	if err == nil {
		return describe(normalize(a, h.Name()), h, doc.Root), nil
	}
	warnings = append(warnings, Warning{Stage: StageAnalyze, Handler: h.Name(), Message: err.Error()})
	d.logger().Warn("handler analysis failed, falling back", "handler", h.Name(), "error", err)

	if h.Name() != fallback.Name() {
		a, err = runAnalyze(fallback, doc)
		if err == nil {
			return describe(normalize(a, fallback.Name()), fallback, doc.Root), warnings
		}
		warnings = append(warnings, Warning{Stage: StageAnalyze, Handler: fallback.Name(), Message: err.Error()})
		d.logger().Warn("fallback analysis failed", "handler", fallback.Name(), "error", err)
	}
	return describe(StructuralAnalysis(fallback.Name(), doc.Root), fallback, doc.Root), warnings
}

func describe(a *Analysis, h Handler, root *doctree.Element) *Analysis {
	if a.Structure == nil {
		a.Structure = BuildStructure(root)
	}
	if a.Processing == nil {
		hint := SuggestProcessing(h, root)
		a.Processing = &hint
	}
	return a
}

var errNoAnalysis = errors.New("handler returned no analysis")

func runAnalyze(h Handler, doc *doctree.ParsedDocument) (a *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	a, err = h.Analyze(doc.Root, doc.Path)
	if err == nil && a == nil {
		err = errNoAnalysis
	}
	return a, err
}

// normalize fills empty collections and clamps quality metrics into [0,1].
func normalize(a *Analysis, name string) *Analysis {
	if a.DocumentType == "" {
		a.DocumentType = name
	}
	if a.KeyFindings == nil {
		a.KeyFindings = map[string]any{}
	}
	if a.QualityMetrics == nil {
		a.QualityMetrics = map[string]float64{}
	}
	for k, v := range a.QualityMetrics {
		switch {
		case math.IsNaN(v) || v < 0:
			a.QualityMetrics[k] = 0
		case v > 1:
			a.QualityMetrics[k] = 1
		}
	}
	if a.AIUseCases == nil {
		a.AIUseCases = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return a
}

func (d *Detector) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}
