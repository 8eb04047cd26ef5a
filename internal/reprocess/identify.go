package reprocess

import (
	"strings"

	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// Issue names one problem with a segment.
type Issue string

// Segment issues.
const (
	IssueLowConfidence Issue = "low_confidence"
	IssueTooShort      Issue = "too_short"
	IssueTooLong       Issue = "too_long"
	IssueEmptyText     Issue = "empty_text"
	IssueVeryShortText Issue = "very_short_text"
	IssueTimingOverlap Issue = "timing_overlap"
)

// Informational reports whether the issue alone does not warrant
// reprocessing.
func (i Issue) Informational() bool {
	return i == IssueVeryShortText
}

// Finding lists the issues of one segment.
type Finding struct {
	Index  int     `json:"index" yaml:"index"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Problematic reports whether any issue warrants reprocessing.
func (f Finding) Problematic() bool {
	for _, issue := range f.Issues {
		if !issue.Informational() {
			return true
		}
	}
	return false
}

// Identify returns a finding for every segment with at least one issue, in
// timeline order.
func Identify(segments []transcript.Token, opts Options) []Finding {
	opts = opts.withDefaults()
	var findings []Finding
	for i, seg := range segments {
		var issues []Issue
		if seg.Confidence < opts.ConfidenceThreshold {
			issues = append(issues, IssueLowConfidence)
		}
		switch d := seg.Duration(); {
		case d < opts.MinDuration:
			issues = append(issues, IssueTooShort)
		case d > opts.MaxDuration:
			issues = append(issues, IssueTooLong)
		}
		switch text := strings.TrimSpace(seg.Text); {
		case text == "":
			issues = append(issues, IssueEmptyText)
		case textutil.ReadableLength(text) < opts.MinTextLength:
			issues = append(issues, IssueVeryShortText)
		}
		if i > 0 && seg.Start < segments[i-1].End {
			issues = append(issues, IssueTimingOverlap)
		}
		if len(issues) > 0 {
			findings = append(findings, Finding{Index: i, Issues: issues})
		}
	}
	return findings
}
