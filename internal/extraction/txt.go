package extraction

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// TXTExtractor reads plain UTF-8 text files
type TXTExtractor struct{}

// NewTXTExtractor creates a new TXT extractor
func NewTXTExtractor() *TXTExtractor {
	return &TXTExtractor{}
}

// Extract normalizes line endings and strips a UTF-8 byte order mark
func (e *TXTExtractor) Extract(ctx context.Context, data []byte) (*types.ExtractedDocument, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &types.ExtractedDocument{
		Format:      "txt",
		Text:        text,
		NumPages:    1,
		UsefulRatio: usefulLineRatio(text),
	}, nil
}

// SupportedFormats returns the formats this extractor supports
func (e *TXTExtractor) SupportedFormats() []string {
	return []string{"txt", "md"}
}
