package formats

import (
	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// Records handles flat collections of repeated sibling records, such as
// message logs, exports and conversation transcripts.
type Records struct{ base }

// NewRecords returns the flat record collection handler configured by s.
func NewRecords(s Settings) *Records {
	return &Records{base{name: "records", typeName: "Record Collection", category: "data", settings: s}}
}

func (h *Records) AtomicElements() map[string]bool {
	return set("record", "row", "message", "entry", "item", "event", "turn", "utterance", "msg", "post")
}

// dominantChild returns the most frequent direct child tag and its count.
func dominantChild(root *doctree.Element) (string, int) {
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, c := range root.Children {
		counts[c.Tag]++
		if n := counts[c.Tag]; n > bestN {
			best, bestN = c.Tag, n
		}
	}
	return best, bestN
}

// Probe claims roots with many shallow children dominated by one tag.
func (h *Records) Probe(root *doctree.Element, _ map[string]string) (bool, float64, error) {
	n := len(root.Children)
	if float64(n) < h.settings.get("records.min_records") {
		return false, 0, nil
	}
	_, count := dominantChild(root)
	if ratio(count, n) < h.settings.get("records.dominance") {
		return false, 0, nil
	}
	// Shallow records only: sample the first few.
	for _, c := range limit(root.Children, 5) {
		for _, f := range c.Children {
			if len(f.Children) > 0 && len(f.Children[0].Children) > 0 {
				return false, 0, nil
			}
		}
	}
	return true, h.settings.get("records.repeated"), nil
}

// Analyze reports the record tag, count and field coverage.
func (h *Records) Analyze(root *doctree.Element, _ string) (*handler.Analysis, error) {
	tag, count := dominantChild(root)
	fields := make(map[string]int)
	textBytes := 0
	var records []*doctree.Element
	for _, c := range root.Children {
		if c.Tag != tag {
			continue
		}
		records = append(records, c)
		seen := make(map[string]bool)
		for _, a := range c.Attrs {
			seen["@"+a.Name] = true
		}
		for _, f := range c.Children {
			seen[f.Tag] = true
		}
		for f := range seen {
			fields[f]++
		}
		textBytes += len(c.TextContent())
	}

	var common, sparse []string
	for _, f := range sortedKeys(fields) {
		if fields[f] == count {
			common = append(common, f)
		} else {
			sparse = append(sparse, f)
		}
	}

	sample := map[string]string{}
	if len(records) > 0 {
		for _, a := range records[0].Attrs {
			sample["@"+a.Name] = a.Value
		}
		for _, f := range records[0].Children {
			sample[f.Tag] = f.Text
		}
	}

	a := &handler.Analysis{
		DocumentType: h.name,
		KeyFindings: map[string]any{
			"record_tag":     tag,
			"records":        count,
			"common_fields":  common,
			"sparse_fields":  sparse,
			"average_length": ratio(textBytes, count),
			"sample":         sample,
		},
		DataInventory: fields,
		AIUseCases: []string{
			"Conversation or log summarization",
			"Entity and intent extraction",
			"Record classification",
		},
		QualityMetrics: map[string]float64{
			"field_consistency": ratioOr(len(common), len(fields), 1),
		},
	}
	if len(sparse) > 0 {
		a.Recommendations = append(a.Recommendations, "Some records omit fields; normalize the record shape before loading")
	}
	return a, nil
}
