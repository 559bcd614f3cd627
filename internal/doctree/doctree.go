package doctree

import "strings"

// ParsedDocument is the root of a parsed XML document. It is built once by the
// parser and only read afterwards.
type ParsedDocument struct {
	Root        *Element          // Document element
	Namespaces  map[string]string // prefix -> URI; the default namespace is keyed "default"
	Path        string            // Source path (empty for in-memory input)
	Size        int64             // Input size in bytes
	ContentHash string            // SHA-256 hex of the raw bytes
	Stats       Stats
}

// Stats holds structural statistics collected during parsing.
type Stats struct {
	ElementCount   int `json:"total_elements"`
	UniqueTags     int `json:"unique_elements"`
	MaxDepth       int `json:"max_depth"`
	AttributeCount int `json:"attribute_count"`
	TextBytes      int `json:"text_bytes"`
	NamespaceCount int `json:"namespace_count"`
}

// Attr is a single attribute in document order.
type Attr struct {
	Name  string // Qualified name as written, e.g. "xsi:schemaLocation"
	Value string
}

// Element is a node of the element tree. Children are in document order.
type Element struct {
	Tag      string // Qualified name as written, e.g. "soap:Envelope"
	Local    string // Local part of Tag
	Space    string // Resolved namespace URI (empty when unqualified and no default namespace)
	Attrs    []Attr
	Text     string // Direct character data, trimmed and joined in document order
	Lead     string // Direct character data before the first child element
	After    string // Character data between this element's end tag and the next sibling or the parent's end tag
	Children []*Element
	Path     string // Stable path, e.g. /project[1]/dependencies[1]/dependency[3]
	Depth    int    // Root is 1
}

// Attr returns the value of the attribute matching name, compared against the
// qualified name first and the local name second.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	for _, a := range e.Attrs {
		if localPart(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when absent.
func (e *Element) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(local string) *Element {
	for _, c := range e.Children {
		if c.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given local name.
func (e *Element) ChildrenNamed(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// ChildText returns the text of the first direct child named local.
func (e *Element) ChildText(local string) string {
	if c := e.Child(local); c != nil {
		return c.Text
	}
	return ""
}

// Lookup follows a chain of local names through first-match children.
func (e *Element) Lookup(locals ...string) *Element {
	cur := e
	for _, l := range locals {
		if cur = cur.Child(l); cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits e and its descendants in document order. Returning false from fn
// skips the element's subtree.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// FindAll returns every descendant (including e) with the given local name.
func (e *Element) FindAll(local string) []*Element {
	var out []*Element
	e.Walk(func(n *Element) bool {
		if n.Local == local {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Count returns the number of elements in the subtree rooted at e.
func (e *Element) Count() int {
	n := 0
	e.Walk(func(*Element) bool { n++; return true })
	return n
}

// Paths returns the stable paths of the subtree rooted at e in document order.
func (e *Element) Paths() []string {
	var out []string
	e.Walk(func(n *Element) bool {
		out = append(out, n.Path)
		return true
	})
	return out
}

// TextContent concatenates the text of e and all descendants in document
// order, space separated. Text trailing e itself is not included.
func (e *Element) TextContent() string {
	var parts []string
	var walk func(*Element)
	walk = func(n *Element) {
		if lead := n.LeadText(); lead != "" {
			parts = append(parts, lead)
		}
		for _, c := range n.Children {
			walk(c)
			if c.After != "" {
				parts = append(parts, c.After)
			}
		}
	}
	walk(e)
	return strings.Join(parts, " ")
}

// LeadText returns the text written right after e's start tag: all of it for
// a leaf, the text before the first child otherwise.
func (e *Element) LeadText() string {
	if e.IsLeaf() {
		return e.Text
	}
	return e.Lead
}

// IsLeaf reports whether e has no child elements.
func (e *Element) IsLeaf() bool {
	return len(e.Children) == 0
}

// Chunk is a sized segment of a document with structural context, ready for
// downstream consumption.
type Chunk struct {
	ID            string         `json:"id"`
	Index         int            `json:"index"`
	Content       string         `json:"content"`
	Paths         []string       `json:"paths"`
	Breadcrumb    []string       `json:"breadcrumb,omitempty"`
	TokenEstimate int            `json:"token_estimate"`
	Strategy      string         `json:"strategy"`
	Metadata      map[string]any `json:"metadata"`
}

// IncludedElements returns the included-element list recorded in metadata.
// It accepts the []any form that metadata takes after a JSON round trip.
func (c Chunk) IncludedElements() []string {
	switch v := c.Metadata["included_elements"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Oversized reports whether the chunk was flagged as an oversized atomic unit.
func (c Chunk) Oversized() bool {
	v, _ := c.Metadata["oversized_atomic"].(bool)
	return v
}

func localPart(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
