package embedding

import "strings"

// FallbackLanguage is the canonical code used when no language is given.
const FallbackLanguage = "en"

// scriptQualified maps generic codes to the script-qualified variants the
// embedding backends expect. This is the single place such mapping lives;
// callers must never duplicate it.
var scriptQualified = map[string]string{
	"zh":    "zh-Hans",
	"zh-cn": "zh-Hans",
	"zh-sg": "zh-Hans",
	"zh-tw": "zh-Hant",
	"zh-hk": "zh-Hant",
}

// CanonicalLanguage normalizes a language code to the form the embedding
// backends key on. Empty input resolves to FallbackLanguage.
func CanonicalLanguage(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return FallbackLanguage
	}
	if qualified, ok := scriptQualified[c]; ok {
		return qualified
	}
	// Preserve an already-qualified script suffix ("zh-hans" -> "zh-Hans").
	if i := strings.IndexByte(c, '-'); i > 0 && len(c) > i+1 {
		suffix := c[i+1:]
		if len(suffix) == 4 {
			return c[:i+1] + strings.ToUpper(suffix[:1]) + suffix[1:]
		}
	}
	return c
}
