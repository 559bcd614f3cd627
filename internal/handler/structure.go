package handler

import (
	"sort"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// MaxStructureDepth bounds the structure tree. Deeper levels are cut and the
// node at the limit is marked truncated.
const MaxStructureDepth = 12

// keyElementCount is how many element names a default processing hint lists.
const keyElementCount = 5

// StructureNode aggregates every element that shares a tag path. Children
// are merged by tag in first-seen order.
type StructureNode struct {
	Tag        string           `json:"tag"`
	Count      int              `json:"count"`
	Namespace  string           `json:"namespace,omitempty"`
	Attributes []string         `json:"attributes,omitempty"`
	HasText    bool             `json:"has_text,omitempty"`
	Truncated  bool             `json:"truncated,omitempty"`
	Children   []*StructureNode `json:"children,omitempty"`
}

// Child returns the child node with the given tag, or nil.
func (n *StructureNode) Child(tag string) *StructureNode {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// BuildStructure folds the element tree into a parent to children tag tree.
func BuildStructure(root *doctree.Element) *StructureNode {
	if root == nil {
		return nil
	}
	node := &StructureNode{Tag: root.Tag, Namespace: root.Space}
	mergeStructure(node, []*doctree.Element{root}, 1)
	return node
}

// mergeStructure fills n from the elements that share its tag path.
func mergeStructure(n *StructureNode, elems []*doctree.Element, depth int) {
	attrs := make(map[string]bool)
	var order []string
	groups := make(map[string][]*doctree.Element)
	for _, e := range elems {
		n.Count++
		for _, a := range e.Attrs {
			attrs[a.Name] = true
		}
		if e.Text != "" {
			n.HasText = true
		}
		for _, c := range e.Children {
			if _, seen := groups[c.Tag]; !seen {
				order = append(order, c.Tag)
			}
			groups[c.Tag] = append(groups[c.Tag], c)
		}
	}
	for a := range attrs {
		n.Attributes = append(n.Attributes, a)
	}
	sort.Strings(n.Attributes)

	if len(order) == 0 {
		return
	}
	if depth >= MaxStructureDepth {
		n.Truncated = true
		return
	}
	for _, tag := range order {
		g := groups[tag]
		child := &StructureNode{Tag: tag, Namespace: g[0].Space}
		mergeStructure(child, g, depth+1)
		n.Children = append(n.Children, child)
	}
}

// ProcessingHint suggests how downstream tooling should process a document
// type.
type ProcessingHint struct {
	Approach          string   `json:"approach"`
	KeyElements       []string `json:"key_elements"`
	ExtractionPattern string   `json:"extraction_pattern"`
}

// Advisor is implemented by handlers that know how their document family is
// best processed.
type Advisor interface {
	ProcessingHint() ProcessingHint
}

// SuggestProcessing returns h's hint when it is an Advisor. Missing parts
// fall back to general processing over the most frequent element names.
func SuggestProcessing(h Handler, root *doctree.Element) ProcessingHint {
	var hint ProcessingHint
	if adv, ok := h.(Advisor); ok {
		hint = adv.ProcessingHint()
	}
	if hint.Approach == "" {
		hint.Approach = "General XML processing"
	}
	if hint.ExtractionPattern == "" {
		hint.ExtractionPattern = "Extract structured data based on element hierarchy"
	}
	if len(hint.KeyElements) == 0 {
		hint.KeyElements = frequentLocals(root, keyElementCount)
	} else {
		hint.KeyElements = append([]string(nil), hint.KeyElements...)
	}
	return hint
}

// frequentLocals returns up to n local names, most frequent first, ties in
// document order.
func frequentLocals(root *doctree.Element, n int) []string {
	if root == nil {
		return []string{}
	}
	counts := make(map[string]int)
	var order []string
	root.Walk(func(e *doctree.Element) bool {
		if counts[e.Local] == 0 {
			order = append(order, e.Local)
		}
		counts[e.Local]++
		return true
	})
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}
