// Package pdftext provides local plain-text extraction from PDF bytes using
// MuPDF via go-fitz.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Extract returns the text of every page joined by newlines. A page that
// yields no text contributes an empty string rather than failing the whole
// document. An error is returned only when the document itself cannot be
// opened or has no pages.
func Extract(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	pages := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}
