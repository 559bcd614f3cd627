package formats

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// DocBook handles DocBook 4 and 5 documents.
type DocBook struct{ base }

// NewDocBook returns the DocBook handler configured by s.
func NewDocBook(s Settings) *DocBook {
	return &DocBook{base{name: "docbook", typeName: "DocBook Document", category: "documentation", settings: s}}
}

var docbookRoots = set("book", "article", "chapter", "section", "part", "refentry", "set")

func (h *DocBook) AtomicElements() map[string]bool {
	return set("para", "simpara", "programlisting", "screen", "table", "informaltable", "figure", "example", "note", "warning", "tip")
}

// Probe claims DocBook 5 namespaced documents, or un-namespaced book, article and chapter roots.
func (h *DocBook) Probe(root *doctree.Element, ns map[string]string) (bool, float64, error) {
	if inNamespace(root, ns, "docbook.org/ns/docbook") {
		return true, h.settings.get("docbook.namespace"), nil
	}
	if docbookRoots[root.Local] && root.Space == "" {
		return true, h.settings.get("docbook.root"), nil
	}
	return false, 0, nil
}

var docbookSections = set("chapter", "section", "sect1", "sect2", "sect3", "sect4", "appendix", "preface")

// Analyze reports the title, section outline and code listings.
func (h *DocBook) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	counts := countLocal(root)
	sections, untitled, depth := 0, 0, 0
	var outline []string
	var walk func(e *doctree.Element, level int)
	walk = func(e *doctree.Element, level int) {
		if docbookSections[e.Local] {
			sections++
			level++
			depth = max(depth, level)
			title := e.ChildText("title")
			if title == "" {
				if info := e.Child("info"); info != nil {
					title = info.ChildText("title")
				}
			}
			if title == "" {
				untitled++
			} else if level <= 2 {
				outline = append(outline, title)
			}
		}
		for _, c := range e.Children {
			walk(c, level)
		}
	}
	walk(root, 0)

	title := root.ChildText("title")
	if title == "" {
		title = textAt(root, "info", "title")
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"root":          root.Local,
			"title":         title,
			"outline":       limit(outline, 50),
			"section_depth": depth,
			"code_listings": counts["programlisting"] + counts["screen"],
			"cross_refs":    counts["xref"] + counts["link"],
		},
		DataInventory: map[string]int{
			"sections":   sections,
			"paragraphs": counts["para"] + counts["simpara"],
			"figures":    counts["figure"],
			"tables":     counts["table"] + counts["informaltable"],
			"images":     counts["imagedata"],
		},
		AIUseCases: []string{
			"Documentation question answering",
			"Section summarization",
			"Technical writing review",
		},
		QualityMetrics: map[string]float64{
			"section_titles": ratioOr(sections-untitled, sections, 1),
		},
	}
	if untitled > 0 {
		a.Recommendations = append(a.Recommendations, "Give every section a title")
	}
	if depth > 4 {
		a.Recommendations = append(a.Recommendations, "Flatten deeply nested sections")
	}
	return a, nil
}
