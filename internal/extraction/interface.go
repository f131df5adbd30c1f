// Package extraction pulls plain text and simple quality metrics out of
// uploaded documents.
package extraction

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

var (
	// ErrUnsupportedFormat is returned for formats no extractor handles
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyDocument is returned when an upload is empty or yields no text
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrUnreadableDocument wraps parse failures of malformed files
	ErrUnreadableDocument = errors.New("document could not be read")
)

// Extractor defines the interface for document text extractors
type Extractor interface {
	// Extract returns the document text with page count and useful ratio
	Extract(ctx context.Context, data []byte) (*types.ExtractedDocument, error)

	// SupportedFormats returns the file formats this extractor supports
	SupportedFormats() []string
}

// Factory creates extractors for different formats
type Factory interface {
	// Get returns an extractor for the given format
	Get(format string) (Extractor, error)

	// Formats lists every registered format, sorted
	Formats() []string
}

// usefulLineRatio is the share of non-blank lines in text, rounded to two
// decimals. Empty text counts as one blank line.
func usefulLineRatio(text string) float64 {
	lines := strings.Split(text, "\n")
	return usefulRatio(lines)
}

func usefulRatio(parts []string) float64 {
	total := len(parts)
	if total < 1 {
		total = 1
	}
	useful := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			useful++
		}
	}
	return round2(float64(useful) / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
