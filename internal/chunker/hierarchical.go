package chunker

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
)

// hierarchicalChunks walks the tree in document order and packs whole
// subtrees into chunks. A subtree that does not fit is split into its start
// tag, its children and its end tag, recursively, unless it is a leaf or
// marked atomic, in which case it is emitted whole and flagged when oversized.
//
// With preserveHierarchy set, a split container starts and ends on a chunk
// boundary once the chunk in progress has reached the minimum size.
func hierarchicalChunks(root *doctree.Element, cfg Config, atomic map[string]bool) []doctree.Chunk {
	sizes := subtreeRunes(root)
	p := newPacker(cfg, "structural", false)

	var walk func(e *doctree.Element, crumb []string)
	walk = func(e *doctree.Element, crumb []string) {
		size := sizes[e]
		if tokensFor(size) <= cfg.MaxChunkSize || e.IsLeaf() || atomic[e.Local] || atomic[e.Tag] {
			p.add(segment{
				text:   doctree.Render(e),
				runes:  size,
				anchor: e.Path,
				paths:  e.Paths(),
				locals: subtreeLocals(e),
				crumb:  crumb,
			})
			return
		}

		if cfg.PreserveHierarchy {
			p.softBreak()
		}
		head := doctree.Head(e)
		p.add(segment{
			text:   head,
			runes:  runeLen(head),
			anchor: e.Path,
			paths:  []string{e.Path},
			locals: []string{e.Local},
			crumb:  crumb,
		})
		inner := extend(crumb, e.Tag)
		for _, c := range e.Children {
			walk(c, inner)
		}
		tail := doctree.Tail(e)
		p.add(segment{text: tail, runes: runeLen(tail), crumb: inner})
		if cfg.PreserveHierarchy {
			p.softBreak()
		}
	}
	walk(root, nil)
	return p.chunks()
}
