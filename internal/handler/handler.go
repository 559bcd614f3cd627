package handler

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
)

// Handler is a pluggable capability for one document family.
//
// Probe must be cheap and free of side effects: root tag and namespace checks,
// not full-document scans. Anything that needs the whole tree belongs in
// Analyze.
type Handler interface {
	// Name is the document-type identifier, e.g. "maven_pom".
	Name() string
	// TypeName is the human-readable document type, e.g. "Maven POM".
	TypeName() string
	// Category groups handlers, e.g. "build" or "security".
	Category() string
	Probe(root *doctree.Element, namespaces map[string]string) (bool, float64, error)
	Analyze(root *doctree.Element, filePath string) (*Analysis, error)
}

// AtomicHinter is implemented by handlers that name elements which must never
// be split across chunk boundaries.
type AtomicHinter interface {
	AtomicElements() map[string]bool
}

// CategoryHinter is implemented by handlers that classify elements for
// content-aware chunking. The bool result is false when the handler has no
// opinion and default heuristics should apply.
type CategoryHinter interface {
	ContentCategory(e *doctree.Element) (doctree.ContentCategory, bool)
}

// Configurable is implemented by handlers whose probing or analysis depends
// on settings. Signature must change whenever the effective settings change.
type Configurable interface {
	Signature() string
}

// Analysis is the result of a handler's analysis of a document.
type Analysis struct {
	DocumentType    string             `json:"document_type"`
	KeyFindings     map[string]any     `json:"key_findings"`
	Recommendations []string           `json:"recommendations"`
	DataInventory   map[string]int     `json:"data_inventory,omitempty"`
	AIUseCases      []string           `json:"ai_use_cases"`
	StructuredData  map[string]any     `json:"structured_data,omitempty"`
	QualityMetrics  map[string]float64 `json:"quality_metrics"`
	Structure       *StructureNode     `json:"structure_tree,omitempty"`
	Processing      *ProcessingHint    `json:"processing_strategy,omitempty"`
}

// Warning records a recoverable failure absorbed by fallback logic.
type Warning struct {
	Stage   string `json:"stage"`
	Handler string `json:"handler"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Stage + "/" + w.Handler + ": " + w.Message
}

// Stages used in warnings.
const (
	StageProbe   = "probe"
	StageAnalyze = "analyze"
)

// Candidate is one handler that claimed the document during detection.
type Candidate struct {
	Handler    string  `json:"handler"`
	Confidence float64 `json:"confidence"`
}

// DetectionResult is the outcome of detection.
type DetectionResult struct {
	DocumentType string      `json:"document_type"`
	TypeName     string      `json:"type_name"`
	Confidence   float64     `json:"confidence"`
	Handler      Handler     `json:"-"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	Warnings     []Warning   `json:"warnings,omitempty"`
}
