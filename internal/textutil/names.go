package textutil

import "strings"

// SanitizeLabel lowercases value and replaces anything outside [a-z0-9_-]
// with an underscore, for use as a metric label. Empty
// input yields "unknown".
func SanitizeLabel(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}
