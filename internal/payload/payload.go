package payload

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Kind identifies the format of a decoded payload.
type Kind string

const (
	KindPDF    Kind = "pdf"
	KindDOCX   Kind = "docx"
	KindZIP    Kind = "zip"
	KindPNG    Kind = "png"
	KindJPEG   Kind = "jpeg"
	KindGIF    Kind = "gif"
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

// PreviewRunes caps extracted text previews.
const PreviewRunes = 200

// minEncodedLen is the shortest text treated as a base64 payload.
const minEncodedLen = 64

// minRunLen is the shortest unbroken run a base64 payload must contain.
const minRunLen = 40

// Info summarizes an embedded payload.
type Info struct {
	Encoding   string   `json:"encoding"`
	Kind       Kind     `json:"kind"`
	MIME       string   `json:"mime"`
	Bytes      int      `json:"bytes"`
	Pages      int      `json:"pages,omitempty"`
	Paragraphs int      `json:"paragraphs,omitempty"`
	Headings   []string `json:"headings,omitempty"`
	Preview    string   `json:"preview,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Map converts the summary into a chunk metadata value.
func (i Info) Map() map[string]any {
	m := map[string]any{
		"encoding": i.Encoding,
		"kind":     string(i.Kind),
		"mime":     i.MIME,
		"bytes":    i.Bytes,
	}
	if i.Pages > 0 {
		m["pages"] = i.Pages
	}
	if i.Paragraphs > 0 {
		m["paragraphs"] = i.Paragraphs
	}
	if len(i.Headings) > 0 {
		m["headings"] = i.Headings
	}
	if i.Preview != "" {
		m["preview"] = i.Preview
	}
	if i.Error != "" {
		m["error"] = i.Error
	}
	return m
}

// LooksBase64 reports whether s is plausibly a base64 payload: only base64
// alphabet characters and whitespace, at least minEncodedLen significant
// characters, and at least one unbroken run of minRunLen characters so that
// ordinary words never qualify.
func LooksBase64(s string) bool {
	significant, run, longest := 0, 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '+', c == '/', c == '=', c == '-', c == '_':
			significant++
			run++
			longest = max(longest, run)
		case c == '\n', c == '\r', c == ' ', c == '\t':
			run = 0
		default:
			return false
		}
	}
	return significant >= minEncodedLen && longest >= minRunLen
}

// DecodeBase64 decodes standard or URL-safe base64, ignoring whitespace.
func DecodeBase64(s string) ([]byte, bool) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(clean); err == nil {
			return data, true
		}
	}
	return nil, false
}

// Sniff decodes a base64 payload and summarizes it. It returns false when the
// text is not base64.
func Sniff(text string) (Info, bool) {
	if !LooksBase64(text) {
		return Info{}, false
	}
	data, ok := DecodeBase64(text)
	if !ok {
		return Info{}, false
	}
	info := Describe(data)
	info.Encoding = "base64"
	return info, true
}

// Describe identifies raw payload bytes and extracts what it can.
func Describe(data []byte) Info {
	info := Info{Bytes: len(data)}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		info.Kind, info.MIME = KindPDF, "application/pdf"
		inspectPDF(data, &info)
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		if isDOCX(data) {
			info.Kind = KindDOCX
			info.MIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
			inspectDOCX(data, &info)
		} else {
			info.Kind, info.MIME = KindZIP, "application/zip"
		}
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		info.Kind, info.MIME = KindPNG, "image/png"
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		info.Kind, info.MIME = KindJPEG, "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		info.Kind, info.MIME = KindGIF, "image/gif"
	case utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		info.Kind, info.MIME = KindText, "text/plain"
		info.Preview = preview(string(data))
	default:
		info.Kind, info.MIME = KindBinary, "application/octet-stream"
	}
	return info
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= PreviewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:PreviewRunes]) + "..."
}
