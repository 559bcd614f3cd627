package doctree

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func sample() *Element {
	leaf := &Element{Tag: "name", Local: "name", Text: "a < b", Path: "/root[1]/item[1]/name[1]", Depth: 3}
	empty := &Element{Tag: "flag", Local: "flag", Attrs: []Attr{{Name: "on", Value: `"yes"`}}, Path: "/root[1]/item[1]/flag[1]", Depth: 3}
	item := &Element{Tag: "item", Local: "item", Children: []*Element{leaf, empty}, Path: "/root[1]/item[1]", Depth: 2}
	return &Element{Tag: "root", Local: "root", Text: "intro", Lead: "intro", Children: []*Element{item}, Path: "/root[1]", Depth: 1}
}

func TestRender_Canonical(t *testing.T) {
	got := Render(sample())
	want := "<root>intro\n<item>\n<name>a &lt; b</name>\n<flag on=\"&quot;yes&quot;\"/>\n</item>\n</root>\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_TrailingTextFollowsChild(t *testing.T) {
	b := &Element{Tag: "b", Local: "b", Text: "x", After: "c & d", Path: "/p[1]/b[1]", Depth: 2}
	p := &Element{Tag: "p", Local: "p", Text: "a c & d", Lead: "a", Children: []*Element{b}, Path: "/p[1]", Depth: 1}

	want := "<p>a\n<b>x</b>\nc &amp; d\n</p>\n"
	if got := Render(p); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := Tail(b); got != "c &amp; d\n" {
		t.Errorf("expected leaf tail to carry trailing text, got %q", got)
	}
	if got := p.TextContent(); got != "a x c & d" {
		t.Errorf("expected %q, got %q", "a x c & d", got)
	}
}

func TestLayout_SpansCoverRender(t *testing.T) {
	root := sample()
	text, spans := Layout(root)
	if text != Render(root) {
		t.Fatalf("layout text differs from render")
	}
	if len(spans) != root.Count() {
		t.Fatalf("expected %d spans, got %d", root.Count(), len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != utf8.RuneCountInString(text) {
		t.Errorf("expected root span to cover whole text, got %+v", spans[0])
	}
	runes := []rune(text)
	for _, s := range spans[1:] {
		frag := string(runes[s.Start:s.End])
		if !strings.HasPrefix(frag, "<") || !strings.HasSuffix(frag, ">\n") {
			t.Errorf("span %s does not align with element edges: %q", s.Path, frag)
		}
	}
}

func TestElement_Queries(t *testing.T) {
	root := sample()
	if root.Lookup("item", "name").Text != "a < b" {
		t.Errorf("expected lookup to find name")
	}
	if v, ok := root.Lookup("item", "flag").Attr("on"); !ok || v != `"yes"` {
		t.Errorf("expected attr value, got %q %v", v, ok)
	}
	if got := len(root.FindAll("flag")); got != 1 {
		t.Errorf("expected 1 flag, got %d", got)
	}
	if got := root.TextContent(); got != "intro a < b" {
		t.Errorf("expected %q, got %q", "intro a < b", got)
	}
	paths := root.Paths()
	if len(paths) != 4 || paths[0] != "/root[1]" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestElement_AttrLocalFallback(t *testing.T) {
	e := &Element{Attrs: []Attr{{Name: "xlink:href", Value: "#a"}}}
	if v, _ := e.Attr("href"); v != "#a" {
		t.Errorf("expected local-name match, got %q", v)
	}
	if v := e.AttrOr("missing", "dflt"); v != "dflt" {
		t.Errorf("expected fallback, got %q", v)
	}
}
