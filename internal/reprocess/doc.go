// Package reprocess finds problematic entries in a translated timeline and
// re-translates only those, concurrently and under the retry policy.
//
// A segment is problematic when its confidence is below the threshold, its
// duration falls outside the allowed range, its text is empty, or it starts
// before the previous segment ends. Very short text is reported but does not
// trigger reprocessing on its own. A successful re-translation raises the
// segment's confidence by a fixed boost capped at 1; a segment whose retries
// are exhausted keeps its text and is flagged ReprocessingFailed.
package reprocess
