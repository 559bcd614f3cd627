package chunker

import (
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/payload"
)

var (
	attachmentTags = []string{"attachment", "binary", "base64", "blob", "payload", "enclosure"}
	narrativeTags  = map[string]bool{
		"description": true, "summary": true, "abstract": true, "para": true, "p": true,
		"comment": true, "message": true, "body": true, "text": true, "content": true,
		"note": true, "remark": true, "documentation": true, "desc": true,
	}
	markupTypes = []string{"html", "xhtml", "markdown"}
)

// classifier assigns exactly one content category to every element.
type classifier struct {
	hint handler.CategoryHinter
	cat  map[*doctree.Element]doctree.ContentCategory
	// uniform records subtrees whose elements all share one category.
	uniform map[*doctree.Element]bool
}

func classify(root *doctree.Element, hint handler.CategoryHinter) *classifier {
	c := &classifier{
		hint:    hint,
		cat:     make(map[*doctree.Element]doctree.ContentCategory),
		uniform: make(map[*doctree.Element]bool),
	}
	c.visit(root)
	return c
}

func (c *classifier) visit(e *doctree.Element) {
	for _, child := range e.Children {
		c.visit(child)
	}

	cat, ok := c.hinted(e)
	if !ok {
		cat = c.derive(e)
	}
	c.cat[e] = cat

	uniform := true
	for _, child := range e.Children {
		if !c.uniform[child] || c.cat[child] != cat {
			uniform = false
			break
		}
	}
	c.uniform[e] = uniform
}

func (c *classifier) hinted(e *doctree.Element) (doctree.ContentCategory, bool) {
	if c.hint == nil {
		return "", false
	}
	cat, ok := c.hint.ContentCategory(e)
	if !ok || !cat.Valid() {
		return "", false
	}
	return cat, true
}

// derive applies the default heuristics. A container with no text of its own
// takes the category of its children when they agree.
func (c *classifier) derive(e *doctree.Element) doctree.ContentCategory {
	if e.IsLeaf() {
		return defaultCategory(e)
	}
	if e.Text == "" {
		first := c.cat[e.Children[0]]
		for _, child := range e.Children[1:] {
			if c.cat[child] != first {
				return doctree.CategoryStructure
			}
		}
		if first == doctree.CategoryAttachment {
			// A wrapper around a payload is metadata about the payload.
			return doctree.CategoryStructure
		}
		return first
	}
	if cat := defaultCategory(e); cat == doctree.CategoryNarrative || cat == doctree.CategoryMarkup {
		return cat
	}
	return doctree.CategoryStructure
}

// defaultCategory classifies an element from its name, attributes and text.
func defaultCategory(e *doctree.Element) doctree.ContentCategory {
	local := strings.ToLower(e.Local)
	text := e.Text

	if isBinaryDeclared(e) || payload.LooksBase64(text) {
		return doctree.CategoryAttachment
	}
	for _, t := range attachmentTags {
		if strings.Contains(local, t) && len(text) >= 16 && !strings.Contains(text, " ") {
			return doctree.CategoryAttachment
		}
	}
	if href, ok := e.Attr("href"); ok && strings.HasPrefix(href, "data:") {
		return doctree.CategoryAttachment
	}

	if isMarkupDeclared(e) || payload.LooksLikeHTML(text) {
		return doctree.CategoryMarkup
	}

	words := len(strings.Fields(text))
	if words >= 12 || (narrativeTags[local] && words >= 4) {
		return doctree.CategoryNarrative
	}
	return doctree.CategoryMetadata
}

func isBinaryDeclared(e *doctree.Element) bool {
	for _, a := range e.Attrs {
		name := strings.ToLower(a.Name)
		value := strings.ToLower(a.Value)
		switch {
		case strings.HasSuffix(name, "encoding") && value == "base64":
			return true
		case name == "dt:dt" && strings.HasPrefix(value, "bin."):
			return true
		case strings.HasSuffix(name, "contenttype") && strings.HasPrefix(name, "xmime:"):
			return true
		}
	}
	return false
}

func isMarkupDeclared(e *doctree.Element) bool {
	for _, name := range []string{"type", "format", "mediaType", "contentType"} {
		v, ok := e.Attr(name)
		if !ok {
			continue
		}
		v = strings.ToLower(v)
		for _, t := range markupTypes {
			if strings.Contains(v, t) {
				return true
			}
		}
	}
	return false
}
