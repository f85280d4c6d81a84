// Package extract pulls plain text out of PDF documents.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// PDFExtractor reads single pages from PDF documents.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// PageText extracts plain text from the given zero-based page.
// A page with no extractable text is valid and returns an empty string.
func (e *PDFExtractor) PageText(content []byte, page int) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty pdf content: %w", domain.ErrMalformedDocument)
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, domain.ErrMalformedDocument)
	}

	if page < 0 || page >= r.NumPage() {
		return "", fmt.Errorf("page %d of %d: %w", page, r.NumPage(), domain.ErrPageOutOfRange)
	}

	// ledongthuc/pdf numbers pages from 1.
	p := r.Page(page + 1)
	if p.V.IsNull() {
		return "", nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %v: %w", page, err, domain.ErrMalformedDocument)
	}
	return strings.TrimSpace(text), nil
}
