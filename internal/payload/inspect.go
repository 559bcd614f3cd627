package payload

import (
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

// Inspect summarizes attachment and markup elements for chunk metadata. It
// returns nil for other categories or when nothing useful was found.
func Inspect(e *doctree.Element, cat doctree.ContentCategory) map[string]any {
	switch cat {
	case doctree.CategoryAttachment:
		if info, ok := Sniff(e.Text); ok {
			if mime, ok := declaredMIME(e); ok {
				info.MIME = mime
			}
			return info.Map()
		}
		if href, ok := e.Attr("href"); ok && strings.HasPrefix(href, "data:") {
			return dataURI(href)
		}
		return nil
	case doctree.CategoryMarkup:
		return inspectMarkup(e)
	}
	return nil
}

func inspectMarkup(e *doctree.Element) map[string]any {
	src := e.Text
	if src == "" {
		return nil
	}
	if isMarkdown(e) {
		plain, headings := MarkdownText(src)
		m := map[string]any{"format": "markdown", "preview": preview(plain)}
		if len(headings) > 0 {
			m["headings"] = headings
		}
		return m
	}
	plain, err := HTMLText(src)
	if err != nil {
		return map[string]any{"format": "html", "error": err.Error()}
	}
	return map[string]any{"format": "html", "preview": preview(plain)}
}

func isMarkdown(e *doctree.Element) bool {
	for _, name := range []string{"type", "format", "contentType", "mediaType"} {
		if v, ok := e.Attr(name); ok {
			v = strings.ToLower(v)
			if strings.Contains(v, "markdown") || v == "md" {
				return true
			}
		}
	}
	return false
}

func declaredMIME(e *doctree.Element) (string, bool) {
	for _, name := range []string{"contentType", "mimeType", "mime-type", "mediaType", "type"} {
		if v, ok := e.Attr(name); ok && strings.Contains(v, "/") {
			return v, true
		}
	}
	return "", false
}

// dataURI handles data:<mime>;base64,<payload> references.
func dataURI(uri string) map[string]any {
	rest := strings.TrimPrefix(uri, "data:")
	meta, body, ok := strings.Cut(rest, ",")
	if !ok {
		return nil
	}
	mime, _, _ := strings.Cut(meta, ";")
	if !strings.Contains(meta, ";base64") {
		return map[string]any{"encoding": "data-uri", "mime": mime, "bytes": len(body)}
	}
	data, ok := DecodeBase64(body)
	if !ok {
		return map[string]any{"encoding": "data-uri", "mime": mime, "error": "invalid base64"}
	}
	info := Describe(data)
	info.Encoding = "data-uri"
	if mime != "" {
		info.MIME = mime
	}
	return info.Map()
}
