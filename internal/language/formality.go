package language

import (
	"fmt"
	"strings"
)

// Formality is the register requested from the translation collaborator.
type Formality string

// Supported formality values.
const (
	FormalityDefault    Formality = "default"
	FormalityMore       Formality = "more"
	FormalityLess       Formality = "less"
	FormalityPreferMore Formality = "prefer_more"
	FormalityPreferLess Formality = "prefer_less"
)

// formalityTargets lists base languages whose translations honour a
// formality parameter.
var formalityTargets = map[string]struct{}{
	"de": {}, "fr": {}, "it": {}, "es": {}, "nl": {},
	"pl": {}, "pt": {}, "ja": {}, "ru": {},
}

// ParseFormality validates a configured formality. Empty input maps to
// FormalityDefault.
func ParseFormality(value string) (Formality, error) {
	switch f := Formality(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormalityDefault, nil
	case FormalityDefault, FormalityMore, FormalityLess, FormalityPreferMore, FormalityPreferLess:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported formality %q", value)
	}
}

// SupportsFormality reports whether target accepts a formality parameter.
func SupportsFormality(target string) bool {
	_, ok := formalityTargets[ToISO2(target)]
	return ok
}

// FormalityFor returns the formality to forward for target. It is empty
// when the target does not support formality or the default was requested.
func FormalityFor(target string, requested Formality) Formality {
	if requested == "" || requested == FormalityDefault || !SupportsFormality(target) {
		return ""
	}
	return requested
}
