package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps spoken-language names, as users and whisper tend to write them,
// to BCP 47 tags.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// Parse converts a language code or English language name to a BCP 47 tag.
// Three-letter ISO 639-2 codes and underscores ("zh_CN") are accepted.
func Parse(code string) (language.Tag, error) {
	trimmed := strings.TrimSpace(code)
	if mapped, ok := words[strings.ToLower(trimmed)]; ok {
		trimmed = mapped
	}
	return language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
}

// Canonical returns the canonical BCP 47 form of code ("zh_cn" -> "zh-CN").
// Unparseable input is returned trimmed.
func Canonical(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return strings.TrimSpace(code)
	}
	return tag.String()
}

// ToISO2 converts any recognized language code or word to its ISO 639-1 base
// language ("zh-CN" -> "zh"). Languages without a two-letter code keep their
// three-letter code. Returns empty string for unrecognized input.
func ToISO2(code string) string {
	tag, err := Parse(code)
	if err != nil || tag == language.Und {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter).
// Returns "und" for unrecognized input.
func ToISO3(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return "und"
	}
	base, _ := tag.Base()
	return base.ISO3()
}

// DisplayName returns the English name for a language code, used in
// translation prompts and status output. Returns "Unknown" for empty input,
// or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, err := Parse(code)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList deduplicates and canonicalizes a list of language codes.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		canonical := Canonical(lang)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	return normalized
}
