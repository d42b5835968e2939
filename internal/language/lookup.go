// Package language resolves stored language display names to the codes the
// embedding backends expect.
package language

import "strings"

// DefaultCode is used when a display name cannot be resolved.
const DefaultCode = "en"

// codesByName maps lower-cased display names to base language codes.
// Script qualification (e.g. "zh" -> "zh-Hans") is the embedding package's
// concern, not this table's.
var codesByName = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"polish":     "pl",
	"russian":    "ru",
	"ukrainian":  "uk",
	"turkish":    "tr",
	"arabic":     "ar",
	"hebrew":     "he",
	"hindi":      "hi",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"mandarin":   "zh",
	"cantonese":  "zh",
	"vietnamese": "vi",
	"thai":       "th",
	"indonesian": "id",
	"swedish":    "sv",
	"norwegian":  "no",
	"danish":     "da",
	"finnish":    "fi",
	"greek":      "el",
	"czech":      "cs",
	"romanian":   "ro",
	"hungarian":  "hu",
}

// Code resolves a language display name to its code. Unmapped or empty
// names resolve to DefaultCode. Names that already look like a code
// ("es", "zh-Hans") pass through unchanged.
func Code(displayName string) string {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if name == "" {
		return DefaultCode
	}
	if code, ok := codesByName[name]; ok {
		return code
	}
	// Accept raw codes so callers can store either form.
	if len(name) == 2 || (len(name) > 3 && name[2] == '-') {
		return name
	}
	return DefaultCode
}
