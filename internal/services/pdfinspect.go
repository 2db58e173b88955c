package services

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/ledongthuc/pdf"
)

// PDFInfo is what a local look at an upload yields before it is sent.
type PDFInfo struct {
	MimeType string
	Pages    int
}

// InspectPDF checks the magic bytes and counts the pages of data. It never
// decides whether an upload is allowed; the backend does that.
func InspectPDF(data []byte) (info PDFInfo, err error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	info.MimeType = http.DetectContentType(head)
	if info.MimeType != "application/pdf" {
		return info, fmt.Errorf("not a pdf: detected %s", info.MimeType)
	}

	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return info, err
	}
	info.Pages = reader.NumPage()
	if info.Pages == 0 {
		return info, fmt.Errorf("pdf has no pages")
	}

	return info, nil
}
