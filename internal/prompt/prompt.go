package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// MaxChunkContent caps the chunk content embedded in a chunk prompt, in runes.
const MaxChunkContent = 6000

const topElements = 10

// Structure tree limits for the schema prompt.
const (
	structureDepth = 4
	structureLines = 40
)

const SchemaPrompt = `Analyze this XML document and provide a semantic understanding of it.
Use the detection result, statistics and findings below as ground truth; do not
contradict them.`

const SchemaQuestions = `Questions:
1. What is the primary purpose of this document?
2. What are the key data entities and how do they relate?
3. Which processing patterns fit this document best?
4. Which elements are critical for data extraction?
5. Are there compliance or security considerations?

Answer each question, then suggest a strategy for automated processing of this
document type.`

const ChunkTasks = `Tasks:
1. Identify the main data entities in this section
2. Extract key-value pairs and relationships
3. Note validation rules or constraints
4. Identify dependencies on other parts of the document
5. Suggest data extraction patterns

Respond with structured output suitable for automated processing.`

// BuildSchemaPrompt creates the document-level prompt from the detection and
// analysis results.
func BuildSchemaPrompt(doc *doctree.ParsedDocument, det handler.DetectionResult, a *handler.Analysis) string {
	var sb strings.Builder
	sb.WriteString(SchemaPrompt)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Document type: %s (%s)\n", det.DocumentType, orUnknown(det.TypeName))
	fmt.Fprintf(&sb, "Confidence: %.2f\n", det.Confidence)
	if doc.Path != "" {
		fmt.Fprintf(&sb, "File: %s (%.2f MB)\n", doc.Path, float64(doc.Size)/(1024*1024))
	}
	if doc.Root != nil {
		fmt.Fprintf(&sb, "Root element: %s\n", doc.Root.Tag)
	}
	fmt.Fprintf(&sb, "Elements: %d total, %d unique, max depth %d\n",
		doc.Stats.ElementCount, doc.Stats.UniqueTags, doc.Stats.MaxDepth)

	if len(doc.Namespaces) > 0 {
		sb.WriteString("\nNamespaces:\n")
		for _, prefix := range sortedKeys(doc.Namespaces) {
			fmt.Fprintf(&sb, "  %s: %s\n", prefix, doc.Namespaces[prefix])
		}
	}

	if doc.Root != nil {
		sb.WriteString("\nKey elements:\n")
		for _, s := range summarize(doc.Root, topElements) {
			sb.WriteString("  ")
			sb.WriteString(s.String())
			sb.WriteString("\n")
		}
	}

	if a != nil {
		if len(a.KeyFindings) > 0 {
			sb.WriteString("\nFindings:\n")
			for _, k := range sortedKeys(a.KeyFindings) {
				fmt.Fprintf(&sb, "  %s: %s\n", k, brief(a.KeyFindings[k]))
			}
		}
		if len(a.DataInventory) > 0 {
			sb.WriteString("\nInventory:\n")
			for _, k := range sortedKeys(a.DataInventory) {
				fmt.Fprintf(&sb, "  %s: %d\n", k, a.DataInventory[k])
			}
		}
		if len(a.AIUseCases) > 0 {
			sb.WriteString("\nCandidate use cases:\n")
			for _, u := range a.AIUseCases {
				fmt.Fprintf(&sb, "  - %s\n", u)
			}
		}
		if a.Structure != nil {
			sb.WriteString("\nStructure:\n")
			writeStructure(&sb, a.Structure)
		}
		if p := a.Processing; p != nil {
			sb.WriteString("\nSuggested processing:\n")
			fmt.Fprintf(&sb, "  Approach: %s\n", p.Approach)
			if len(p.KeyElements) > 0 {
				fmt.Fprintf(&sb, "  Key elements: %s\n", strings.Join(p.KeyElements, ", "))
			}
			fmt.Fprintf(&sb, "  Pattern: %s\n", p.ExtractionPattern)
		}
	}

	sb.WriteString("---\n")
	sb.WriteString(SchemaQuestions)
	return sb.String()
}

// writeStructure renders the structure tree as an indented outline, one tag
// per line, cut at structureDepth levels and structureLines lines.
func writeStructure(sb *strings.Builder, root *handler.StructureNode) {
	lines := 0
	var walk func(n *handler.StructureNode, depth int) bool
	walk = func(n *handler.StructureNode, depth int) bool {
		if lines == structureLines {
			sb.WriteString("  ...\n")
			return false
		}
		lines++
		sb.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(sb, "%s x%d", n.Tag, n.Count)
		if len(n.Attributes) > 0 {
			fmt.Fprintf(sb, " @%s", strings.Join(n.Attributes, ","))
		}
		if n.HasText {
			sb.WriteString(" [text]")
		}
		if len(n.Children) > 0 && (depth == structureDepth || n.Truncated) {
			sb.WriteString(" ...")
		}
		sb.WriteString("\n")
		if depth == structureDepth {
			return true
		}
		for _, c := range n.Children {
			if !walk(c, depth+1) {
				return false
			}
		}
		return true
	}
	walk(root, 1)
}

// BuildChunkPrompt creates the prompt for one chunk, including the document
// title and the chunk's breadcrumb. Content longer than MaxChunkContent runes
// is truncated.
func BuildChunkPrompt(docTitle string, det handler.DetectionResult, c doctree.Chunk) string {
	var sb strings.Builder
	sb.WriteString("Analyze this section of an XML document in context.\n")
	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "Document: %q\n", docTitle)
	fmt.Fprintf(&sb, "Document type: %s\n", det.DocumentType)
	fmt.Fprintf(&sb, "Chunk: %s (%d tokens, %s)\n", c.ID, c.TokenEstimate, c.Strategy)
	if len(c.Breadcrumb) > 0 {
		sb.WriteString("Section: ")
		sb.WriteString(strings.Join(c.Breadcrumb, " > "))
		sb.WriteString("\n")
	}
	if len(c.Paths) > 0 {
		fmt.Fprintf(&sb, "Starts at: %s\n", c.Paths[0])
	}
	if cat, ok := c.Metadata["category"].(string); ok {
		fmt.Fprintf(&sb, "Content category: %s\n", cat)
	}
	sb.WriteString("---\n```xml\n")
	content, cut := truncate(c.Content, MaxChunkContent)
	sb.WriteString(content)
	if cut {
		sb.WriteString("\n<!-- truncated -->")
	}
	sb.WriteString("\n```\n\n")
	sb.WriteString(ChunkTasks)
	return sb.String()
}

// elementSummary describes one tag for the key elements list.
type elementSummary struct {
	tag      string
	count    int
	attrs    int
	children int
	sample   string
}

func (s elementSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d occurrences", s.tag, s.count)
	if s.attrs > 0 {
		fmt.Fprintf(&b, " [%d attrs]", s.attrs)
	}
	if s.children > 0 {
		fmt.Fprintf(&b, " [%d child tags]", s.children)
	} else {
		b.WriteString(" [leaf]")
	}
	if s.sample != "" {
		fmt.Fprintf(&b, " sample %q", s.sample)
	}
	return b.String()
}

// summarize returns the n most frequent tags, ties broken by name.
func summarize(root *doctree.Element, n int) []elementSummary {
	byTag := make(map[string]*elementSummary)
	attrs := make(map[string]map[string]bool)
	kids := make(map[string]map[string]bool)
	root.Walk(func(e *doctree.Element) bool {
		s, ok := byTag[e.Tag]
		if !ok {
			s = &elementSummary{tag: e.Tag}
			byTag[e.Tag] = s
			attrs[e.Tag] = make(map[string]bool)
			kids[e.Tag] = make(map[string]bool)
		}
		s.count++
		for _, a := range e.Attrs {
			attrs[e.Tag][a.Name] = true
		}
		for _, c := range e.Children {
			kids[e.Tag][c.Tag] = true
		}
		if s.sample == "" && e.Text != "" {
			s.sample, _ = truncate(e.Text, 50)
		}
		return true
	})

	out := make([]elementSummary, 0, len(byTag))
	for tag, s := range byTag {
		s.attrs = len(attrs[tag])
		s.children = len(kids[tag])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].tag < out[j].tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// brief renders a finding value on one line.
func brief(v any) string {
	switch t := v.(type) {
	case string:
		s, _ := truncate(t, 120)
		return s
	case []string:
		return fmt.Sprintf("%d items", len(t))
	case map[string]any:
		return strings.Join(sortedKeys(t), ", ")
	case []map[string]any:
		return fmt.Sprintf("%d items", len(t))
	}
	s, _ := truncate(fmt.Sprint(v), 120)
	return s
}

func truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	return string([]rune(s)[:n]), true
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
