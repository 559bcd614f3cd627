package chunker

import (
	"fmt"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// slidingChunks cuts the linearized document into windows of MaxChunkSize
// tokens that advance by MaxChunkSize-OverlapSize tokens, so adjacent windows
// share exactly OverlapSize tokens. A token is TokenUnit runes here, which
// makes the overlap exact rather than estimated.
//
// Each element is listed in the included elements of the window whose
// non-overlapping part contains its start tag.
func slidingChunks(root *doctree.Element, cfg Config) ([]doctree.Chunk, error) {
	advance := cfg.MaxChunkSize - cfg.OverlapSize
	if advance <= 0 {
		return nil, &ConfigError{Field: "overlap_size", Message: fmt.Sprintf("window advance %d must be positive", advance)}
	}

	text, spans := doctree.Layout(root)
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	window := cfg.MaxChunkSize * TokenUnit
	step := advance * TokenUnit

	var chunks []doctree.Chunk
	next := 0
	for start := 0; ; start += step {
		end := min(start+window, n)
		last := end == n
		ownEnd := start + step
		if last {
			ownEnd = n
		}

		var included []string
		for next < len(spans) && spans[next].Start < ownEnd {
			included = append(included, spans[next].Path)
			next++
		}

		content := string(runes[start:end])
		meta := map[string]any{
			"included_elements": nonNil(included),
			"content_types":     []string{"window"},
			"window_start":      start / TokenUnit,
			"window_end":        tokensFor(end),
		}
		if start > 0 {
			meta["overlap_prev"] = cfg.OverlapSize
		}
		if !last {
			meta["overlap_next"] = cfg.OverlapSize
		}
		chunks = append(chunks, doctree.Chunk{
			Content:       content,
			Paths:         nonNil(included),
			TokenEstimate: EstimateTokens(content),
			Metadata:      meta,
		})
		if last {
			break
		}
	}
	return chunks, nil
}
