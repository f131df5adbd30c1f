package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCXExtractor reads paragraphs from word/document.xml
type DOCXExtractor struct{}

// NewDOCXExtractor creates a new DOCX extractor
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract returns non-empty paragraphs joined with newlines. Word files carry
// no reliable page count, so num_pages is always 1.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte) (*types.ExtractedDocument, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", ErrUnreadableDocument, err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open document.xml: %w", err)
			}
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: docx: word/document.xml not found", ErrUnreadableDocument)
	}
	defer body.Close()

	paragraphs, err := readParagraphs(ctx, body)
	if err != nil {
		return nil, err
	}

	nonEmpty := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, ErrEmptyDocument
	}

	return &types.ExtractedDocument{
		Format:      "docx",
		Text:        strings.Join(nonEmpty, "\n"),
		NumPages:    1,
		UsefulRatio: usefulRatio(paragraphs),
	}, nil
}

// readParagraphs collects the text runs of every w:p element. Paragraphs
// nested in text boxes are folded into their enclosing paragraph.
func readParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: docx: %v", ErrUnreadableDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// SupportedFormats returns the formats this extractor supports
func (e *DOCXExtractor) SupportedFormats() []string {
	return []string{"docx"}
}
