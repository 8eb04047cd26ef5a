package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown is returned for codes that cannot be parsed.
var ErrUnknown = errors.New("unknown language")

// bibliographic ISO 639-2 codes and English names that BCP 47 parsing does
// not accept.
var aliases = map[string]string{
	"fre":        "fr",
	"ger":        "de",
	"dut":        "nl",
	"chi":        "zh",
	"cze":        "cs",
	"gre":        "el",
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

// Parse resolves code into a language tag. Regions are kept ("pt-BR").
func Parse(code string) (language.Tag, error) {
	cleaned := strings.ToLower(strings.TrimSpace(code))
	cleaned = strings.ReplaceAll(cleaned, "_", "-")
	if cleaned == "" {
		return language.Und, fmt.Errorf("%w: empty code", ErrUnknown)
	}
	if alias, ok := aliases[cleaned]; ok {
		cleaned = alias
	}
	tag, err := language.Parse(cleaned)
	if err != nil || tag == language.Und {
		return language.Und, fmt.Errorf("%w: %q", ErrUnknown, code)
	}
	return tag, nil
}

// ToISO2 returns the two-letter base language, or "" when code is unknown or
// the language has no two-letter form.
func ToISO2(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns the English name of code. Unknown codes come back
// upper-cased and empty input yields "Unknown".
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
	return tag.String()
}

// Same reports whether a and b share a base language.
func Same(a, b string) bool {
	ta, errA := Parse(a)
	tb, errB := Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	ba, _ := ta.Base()
	bb, _ := tb.Base()
	return ba == bb
}
