package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/xmlsift/internal/doctree"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// SupportedExtensions lists file extensions batch mode picks up.
var SupportedExtensions = map[string]bool{
	".xml":    true,
	".pom":    true,
	".xsd":    true,
	".wsdl":   true,
	".svg":    true,
	".rss":    true,
	".atom":   true,
	".kml":    true,
	".xccdf":  true,
	".oval":   true,
	".xhtml":  true,
	".config": true,
	".dbk":    true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseError reports malformed input. Offset is a byte offset into the input
// and Line is 1-based; either may be zero when unknown.
type ParseError struct {
	Offset  int64
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed xml at line %d (offset %d): %s", e.Line, e.Offset, e.Message)
	}
	return fmt.Sprintf("malformed xml at offset %d: %s", e.Offset, e.Message)
}

// ContentHash returns the SHA-256 of data as a hex string.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// ParseFile reads and parses the file at path. Files larger than maxBytes are
// rejected before parsing; maxBytes <= 0 disables the limit.
func ParseFile(path string, maxBytes int64) (*doctree.ParsedDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", path, info.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data, path)
}

type frame struct {
	el     *doctree.Element
	scope  map[string]string
	counts map[string]int
	text   []string
	lead   []string
	last   *doctree.Element // most recent child, owner of any text that follows it
}

// Parse builds a fully materialized element tree from data. The input must be
// well-formed XML; no schema validation is performed.
func Parse(data []byte, path string) (*doctree.ParsedDocument, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	doc := &doctree.ParsedDocument{
		Namespaces:  make(map[string]string),
		Path:        path,
		Size:        int64(len(data)),
		ContentHash: ContentHash(data),
	}
	tags := make(map[string]struct{})
	var stack []*frame
	rootCounts := make(map[string]int)

	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syntaxError(dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && doc.Root != nil {
				return nil, errorAt(dec, offset, "multiple root elements")
			}
			el := &doctree.Element{
				Tag:   qualified(t.Name),
				Local: t.Name.Local,
				Depth: len(stack) + 1,
			}
			scope := make(map[string]string)
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					scope[a.Name.Local] = a.Value
					doc.Namespaces[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					scope[""] = a.Value
					doc.Namespaces["default"] = a.Value
				}
				el.Attrs = append(el.Attrs, doctree.Attr{Name: qualified(a.Name), Value: a.Value})
			}
			f := &frame{el: el, scope: scope, counts: make(map[string]int)}
			el.Space = resolve(t.Name.Space, f, stack)

			counts := rootCounts
			parentPath := ""
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				counts = parent.counts
				parentPath = parent.el.Path
				parent.el.Children = append(parent.el.Children, el)
				parent.last = el
			} else {
				doc.Root = el
			}
			counts[el.Tag]++
			el.Path = fmt.Sprintf("%s/%s[%d]", parentPath, el.Tag, counts[el.Tag])

			doc.Stats.ElementCount++
			doc.Stats.AttributeCount += len(el.Attrs)
			if el.Depth > doc.Stats.MaxDepth {
				doc.Stats.MaxDepth = el.Depth
			}
			tags[el.Tag] = struct{}{}
			stack = append(stack, f)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errorAt(dec, offset, fmt.Sprintf("unexpected end element </%s>", qualified(t.Name)))
			}
			top := stack[len(stack)-1]
			if name := qualified(t.Name); name != top.el.Tag {
				return nil, errorAt(dec, offset, fmt.Sprintf("element <%s> closed by </%s>", top.el.Tag, name))
			}
			top.el.Text = strings.Join(top.text, " ")
			top.el.Lead = strings.Join(top.lead, " ")
			stack = stack[:len(stack)-1]

		case xml.CharData:
			s := strings.TrimSpace(string(t))
			if s == "" {
				continue
			}
			if len(stack) == 0 {
				return nil, errorAt(dec, offset, "character data outside the root element")
			}
			top := stack[len(stack)-1]
			top.text = append(top.text, s)
			switch {
			case top.last == nil:
				top.lead = append(top.lead, s)
			case top.last.After == "":
				top.last.After = s
			default:
				top.last.After += " " + s
			}
			doc.Stats.TextBytes += len(s)
		}
	}

	if len(stack) > 0 {
		line, _ := dec.InputPos()
		return nil, &ParseError{
			Offset:  dec.InputOffset(),
			Line:    line,
			Message: fmt.Sprintf("unclosed element <%s>", stack[len(stack)-1].el.Tag),
		}
	}
	if doc.Root == nil {
		return nil, &ParseError{Offset: 0, Line: 1, Message: "no root element"}
	}

	doc.Stats.UniqueTags = len(tags)
	doc.Stats.NamespaceCount = len(doc.Namespaces)
	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// resolve maps a prefix to its namespace URI using the innermost binding.
func resolve(prefix string, cur *frame, stack []*frame) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	if uri, ok := cur.scope[prefix]; ok {
		return uri
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if uri, ok := stack[i].scope[prefix]; ok {
			return uri
		}
	}
	return ""
}

func errorAt(dec *xml.Decoder, offset int64, msg string) *ParseError {
	line, _ := dec.InputPos()
	return &ParseError{Offset: offset, Line: line, Message: msg}
}

func syntaxError(dec *xml.Decoder, err error) *ParseError {
	line, _ := dec.InputPos()
	msg := err.Error()
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		line = se.Line
		msg = se.Msg
	}
	return &ParseError{Offset: dec.InputOffset(), Line: line, Message: msg}
}
