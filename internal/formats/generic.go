package formats

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Generic is the fallback handler. It never claims a document during probing
// and reports structural statistics only.
type Generic struct{ base }

// NewGeneric returns the fallback handler.
func NewGeneric() *Generic {
	return &Generic{base{name: "generic", typeName: "Generic XML", category: "generic"}}
}

// Probe never claims a document.
func (h *Generic) Probe(*doctree.Element, map[string]string) (bool, float64, error) {
	return false, 0, nil
}

// Analyze reports structural statistics only.
func (h *Generic) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	a := handler.StructuralAnalysis(h.name, root)
	a.AIUseCases = []string{
		"Schema inference from element structure",
		"Structural summarization",
	}
	a.Recommendations = []string{
		"No specialized handler matched; register one for this document family to get domain findings",
	}
	return a, nil
}
