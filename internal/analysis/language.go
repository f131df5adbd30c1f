package analysis

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// UnknownLanguage is reported when no language can be detected
const UnknownLanguage = "unknown"

// DetectLanguage returns the ISO-639-1 code of the dominant language of
// text, or UnknownLanguage.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return UnknownLanguage
	}

	info := whatlanggo.Detect(text)
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return UnknownLanguage
}
