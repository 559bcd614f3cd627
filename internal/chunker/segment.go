package chunker

import (
	"sort"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// segment is an indivisible piece of rendered content: a whole subtree, the
// head of a split container, or the tail of one.
type segment struct {
	text     string
	runes    int
	anchor   string   // path of the element the segment starts, empty for tails
	paths    []string // elements introduced by this segment
	locals   []string
	crumb    []string
	category doctree.ContentCategory
	payloads []map[string]any
}

// draft accumulates segments for one chunk.
type draft struct {
	b         strings.Builder
	runes     int
	anchors   []string
	paths     []string
	locals    map[string]bool
	crumb     []string
	category  doctree.ContentCategory
	payloads  []map[string]any
	oversized bool
}

// packer greedily fills chunks with segments without exceeding
// max_chunk_size. A segment that alone exceeds it becomes its own chunk and
// is flagged oversized.
type packer struct {
	max      int
	min      int
	byCat    bool
	kind     string
	cur      *draft
	finished []doctree.Chunk
}

func newPacker(cfg Config, kind string, byCategory bool) *packer {
	return &packer{max: cfg.MaxChunkSize, min: cfg.MinChunkSize, byCat: byCategory, kind: kind, cur: &draft{}}
}

func (p *packer) add(s segment) {
	if p.byCat && s.category != "" && p.cur.category != "" && s.category != p.cur.category && p.cur.runes > 0 {
		p.flush()
	}
	if p.cur.runes > 0 && tokensFor(p.cur.runes+s.runes) > p.max {
		p.flush()
	}

	d := p.cur
	if d.runes == 0 {
		d.crumb = s.crumb
	}
	if d.category == "" {
		d.category = s.category
	}
	d.b.WriteString(s.text)
	d.runes += s.runes
	if s.anchor != "" {
		d.anchors = append(d.anchors, s.anchor)
	}
	d.paths = append(d.paths, s.paths...)
	if d.locals == nil {
		d.locals = make(map[string]bool)
	}
	for _, l := range s.locals {
		d.locals[l] = true
	}
	d.payloads = append(d.payloads, s.payloads...)

	if tokensFor(s.runes) > p.max {
		d.oversized = true
		p.flush()
	}
}

// softBreak closes the current chunk once it has reached the minimum size.
func (p *packer) softBreak() {
	if p.cur.runes > 0 && tokensFor(p.cur.runes) >= p.min {
		p.flush()
	}
}

func (p *packer) flush() {
	d := p.cur
	if d.runes == 0 {
		return
	}
	content := d.b.String()
	category := d.category
	meta := map[string]any{
		"included_elements": nonNil(d.paths),
		"element_types":     sortedSet(d.locals),
	}
	if p.byCat {
		if category == "" {
			category = doctree.CategoryStructure
		}
		meta["category"] = string(category)
		meta["content_types"] = []string{string(category)}
		if len(d.payloads) > 0 {
			meta["payloads"] = d.payloads
		}
	} else {
		meta["content_types"] = []string{p.kind}
	}
	if d.oversized {
		meta["oversized_atomic"] = true
	}

	p.finished = append(p.finished, doctree.Chunk{
		Content:       content,
		Paths:         nonNil(d.anchors),
		Breadcrumb:    d.crumb,
		TokenEstimate: EstimateTokens(content),
		Metadata:      meta,
	})
	p.cur = &draft{}
}

func (p *packer) chunks() []doctree.Chunk {
	p.flush()
	return p.finished
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// subtreeRunes returns the rendered rune length of every element, computed
// bottom-up so that rendering decisions are linear in document size.
func subtreeRunes(root *doctree.Element) map[*doctree.Element]int {
	sizes := make(map[*doctree.Element]int)
	var walk func(e *doctree.Element) int
	walk = func(e *doctree.Element) int {
		n := runeLen(doctree.Head(e)) + runeLen(doctree.Tail(e))
		for _, c := range e.Children {
			n += walk(c)
		}
		sizes[e] = n
		return n
	}
	walk(root)
	return sizes
}

func subtreeLocals(e *doctree.Element) []string {
	var out []string
	e.Walk(func(n *doctree.Element) bool {
		out = append(out, n.Local)
		return true
	})
	return out
}

func extend(crumb []string, tag string) []string {
	out := make([]string, len(crumb), len(crumb)+1)
	copy(out, crumb)
	return append(out, tag)
}
