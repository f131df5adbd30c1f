package extraction

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFactory creates extractors for supported formats
type DefaultFactory struct {
	extractors map[string]Extractor
}

// NewFactory creates a new extractor factory with the default extractors
func NewFactory() Factory {
	f := &DefaultFactory{
		extractors: make(map[string]Extractor),
	}

	f.register(NewPDFExtractor())
	f.register(NewDOCXExtractor())
	f.register(NewTXTExtractor())

	return f
}

// register registers an extractor for its supported formats
func (f *DefaultFactory) register(e Extractor) {
	for _, format := range e.SupportedFormats() {
		f.extractors[strings.ToLower(format)] = e
	}
}

// Get returns an extractor for the given format
func (f *DefaultFactory) Get(format string) (Extractor, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	e, ok := f.extractors[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return e, nil
}

// Formats lists every registered format
func (f *DefaultFactory) Formats() []string {
	formats := make([]string, 0, len(f.extractors))
	for format := range f.extractors {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// FormatFromFilename returns the lower-cased extension without the dot.
func FormatFromFilename(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
