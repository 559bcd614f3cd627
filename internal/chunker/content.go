package chunker

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Inspector summarizes an element's payload for chunk metadata. It returns
// nil when there is nothing to report.
type Inspector func(e *doctree.Element, cat doctree.ContentCategory) map[string]any

// contentAwareChunks emits one chunk per contiguous run of same-category
// content, splitting runs that exceed max_chunk_size. A subtree whose elements
// share one category and fits max_chunk_size travels as a unit; otherwise the
// container's start tag is classified on its own and its end tag joins
// whatever run is open when it closes.
func contentAwareChunks(root *doctree.Element, cfg Config, hint handler.CategoryHinter, inspect Inspector) []doctree.Chunk {
	sizes := subtreeRunes(root)
	cls := classify(root, hint)
	p := newPacker(cfg, "", true)

	payloads := func(e *doctree.Element) []map[string]any {
		if inspect == nil {
			return nil
		}
		var out []map[string]any
		e.Walk(func(n *doctree.Element) bool {
			cat := cls.cat[n]
			if cat != doctree.CategoryAttachment && cat != doctree.CategoryMarkup {
				return true
			}
			if m := inspect(n, cat); m != nil {
				m["path"] = n.Path
				out = append(out, m)
			}
			return true
		})
		return out
	}

	var walk func(e *doctree.Element, crumb []string)
	walk = func(e *doctree.Element, crumb []string) {
		cat := cls.cat[e]
		size := sizes[e]
		if cls.uniform[e] && (e.IsLeaf() || tokensFor(size) <= cfg.MaxChunkSize) {
			p.add(segment{
				text:     doctree.Render(e),
				runes:    size,
				anchor:   e.Path,
				paths:    e.Paths(),
				locals:   subtreeLocals(e),
				crumb:    crumb,
				category: cat,
				payloads: payloads(e),
			})
			return
		}

		head := doctree.Head(e)
		var headPayloads []map[string]any
		if inspect != nil && (cat == doctree.CategoryAttachment || cat == doctree.CategoryMarkup) {
			if m := inspect(e, cat); m != nil {
				m["path"] = e.Path
				headPayloads = append(headPayloads, m)
			}
		}
		p.add(segment{
			text:     head,
			runes:    runeLen(head),
			anchor:   e.Path,
			paths:    []string{e.Path},
			locals:   []string{e.Local},
			crumb:    crumb,
			category: cat,
			payloads: headPayloads,
		})
		inner := extend(crumb, e.Tag)
		for _, c := range e.Children {
			walk(c, inner)
		}
		tail := doctree.Tail(e)
		p.add(segment{text: tail, runes: runeLen(tail), crumb: inner})
	}
	walk(root, nil)
	return p.chunks()
}
