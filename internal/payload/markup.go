package payload

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

var htmlTagPattern = regexp.MustCompile(`(?i)</?(p|div|span|br|a|b|i|em|strong|ul|ol|li|h[1-6]|table|tr|td|img|pre|code|blockquote)\b[^>]*>`)

// LooksLikeHTML reports whether s contains recognizable HTML tags.
func LooksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// HTMLText reduces an HTML fragment to its visible text.
func HTMLText(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// MarkdownText reduces Markdown source to plain text and returns the heading
// titles found along the way.
func MarkdownText(src string) (string, []string) {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var parts, headings []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		t := extractText(n, source)
		if t == "" {
			continue
		}
		if _, ok := n.(*ast.Heading); ok {
			headings = append(headings, t)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n\n"), headings
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
