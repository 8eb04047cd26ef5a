package quality

import (
	"fmt"
	"strings"
)

// Label is an ordered quality grade.
type Label string

// Quality grades, best first.
const (
	Excellent  Label = "excellent"
	Good       Label = "good"
	Acceptable Label = "acceptable"
	Poor       Label = "poor"
	Failed     Label = "failed"
)

// Rank orders labels so that a higher rank is better. Unknown labels rank 0.
func (l Label) Rank() int {
	switch l {
	case Excellent:
		return 5
	case Good:
		return 4
	case Acceptable:
		return 3
	case Poor:
		return 2
	case Failed:
		return 1
	}
	return 0
}

// AtLeast reports whether l is as good as other.
func (l Label) AtLeast(other Label) bool {
	return l.Rank() >= other.Rank()
}

func (l Label) String() string {
	return string(l)
}

// LabelFor maps a combined confidence to a label.
func LabelFor(score float64) Label {
	switch {
	case score >= 0.9:
		return Excellent
	case score >= 0.8:
		return Good
	case score >= 0.6:
		return Acceptable
	case score >= 0.4:
		return Poor
	default:
		return Failed
	}
}

// ParseLabel accepts a label name in any case.
func ParseLabel(value string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(value)))
	if l.Rank() == 0 {
		return "", fmt.Errorf("unknown quality label %q", value)
	}
	return l, nil
}
