package payload

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

func inspectDOCX(data []byte, info *Info) {
	defer func() {
		if r := recover(); r != nil {
			info.Error = fmt.Sprintf("parse docx: %v", r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		info.Error = fmt.Sprintf("parse docx: %v", err)
		return
	}

	var body strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		info.Paragraphs++
		if isHeading(para) {
			info.Headings = append(info.Headings, text)
		}
		if body.Len() < PreviewRunes*4 {
			body.WriteString(text)
			body.WriteByte(' ')
		}
	}
	info.Preview = preview(body.String())
}

func isHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	return strings.HasPrefix(style, "heading") || style == "title"
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
