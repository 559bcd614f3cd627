package doctree

import (
	"strings"
	"unicode/utf8"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Head returns the leading serialization of e. For a leaf this is the whole
// element; for a container it is the start tag followed by the text before
// the first child.
func Head(e *Element) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteByte('"')
	}
	switch {
	case len(e.Children) == 0 && e.Text == "":
		b.WriteString("/>\n")
	case len(e.Children) == 0:
		b.WriteByte('>')
		b.WriteString(textEscaper.Replace(e.Text))
		b.WriteString("</")
		b.WriteString(e.Tag)
		b.WriteString(">\n")
	default:
		b.WriteByte('>')
		if e.Lead != "" {
			b.WriteString(textEscaper.Replace(e.Lead))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Tail returns the closing serialization of e: the end tag of a container,
// then any text that follows e inside its parent. Empty for a leaf with no
// trailing text.
func Tail(e *Element) string {
	var s string
	if len(e.Children) > 0 {
		s = "</" + e.Tag + ">\n"
	}
	if e.After != "" {
		s += textEscaper.Replace(e.After) + "\n"
	}
	return s
}

// Render returns the canonical serialization of the subtree rooted at e.
// Comments and processing instructions are not part of the tree and are not
// rendered.
func Render(e *Element) string {
	var b strings.Builder
	render(&b, e)
	return b.String()
}

func render(b *strings.Builder, e *Element) {
	b.WriteString(Head(e))
	for _, c := range e.Children {
		render(b, c)
	}
	b.WriteString(Tail(e))
}

// Span locates an element inside a rendered document, in rune offsets.
type Span struct {
	Path  string
	Start int // first rune of Head
	End   int // one past the last rune of Tail
}

// Layout renders the subtree rooted at root and records each element's span.
// Spans are returned in document order.
func Layout(root *Element) (string, []Span) {
	var b strings.Builder
	var spans []Span
	pos := 0
	var walk func(*Element)
	walk = func(e *Element) {
		idx := len(spans)
		spans = append(spans, Span{Path: e.Path, Start: pos})
		h := Head(e)
		b.WriteString(h)
		pos += utf8.RuneCountInString(h)
		for _, c := range e.Children {
			walk(c)
		}
		t := Tail(e)
		b.WriteString(t)
		pos += utf8.RuneCountInString(t)
		spans[idx].End = pos
	}
	walk(root)
	return b.String(), spans
}
