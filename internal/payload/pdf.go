package payload

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

func inspectPDF(data []byte, info *Info) {
	defer func() {
		if r := recover(); r != nil {
			info.Error = fmt.Sprintf("read pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		info.Error = fmt.Sprintf("read pdf: %v", err)
		return
	}

	info.Pages = reader.NumPage()
	var buf strings.Builder
	for i := 1; i <= info.Pages && buf.Len() < PreviewRunes*4; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteByte(' ')
	}
	info.Preview = preview(buf.String())
}
