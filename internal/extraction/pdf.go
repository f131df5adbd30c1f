package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// PDFExtractor extracts per-page plain text from PDF files
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract joins the text of every page with newlines. num_pages is the page
// count reported by the document, including pages without text.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (doc *types.ExtractedDocument, err error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: pdf: %v", ErrUnreadableDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrUnreadableDocument, err)
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf page %d: %v", ErrUnreadableDocument, i, err)
		}
		pages = append(pages, text)
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	return &types.ExtractedDocument{
		Format:      "pdf",
		Text:        text,
		NumPages:    numPages,
		UsefulRatio: usefulLineRatio(text),
	}, nil
}

// SupportedFormats returns the formats this extractor supports
func (e *PDFExtractor) SupportedFormats() []string {
	return []string{"pdf"}
}
