package handler

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
)

// StructuralAnalysis builds an analysis limited to structural statistics.
// It cannot fail and is the last resort of analysis dispatch.
func StructuralAnalysis(docType string, root *doctree.Element) *Analysis {
	tags := make(map[string]int)
	spaces := make(map[string]struct{})
	elements, attrs, maxDepth := 0, 0, 0
	root.Walk(func(e *doctree.Element) bool {
		elements++
		attrs += len(e.Attrs)
		tags[e.Tag]++
		if e.Space != "" {
			spaces[e.Space] = struct{}{}
		}
		if e.Depth > maxDepth {
			maxDepth = e.Depth
		}
		return true
	})

	return &Analysis{
		DocumentType: docType,
		KeyFindings: map[string]any{
			"statistics": map[string]any{
				"root_element":    root.Tag,
				"total_elements":  elements,
				"unique_elements": len(tags),
				"max_depth":       maxDepth,
				"attribute_count": attrs,
				"namespace_count": len(spaces),
			},
		},
		DataInventory:   tags,
		AIUseCases:      []string{},
		Recommendations: []string{},
		QualityMetrics:  map[string]float64{},
	}
}
