// Package retry runs collaborator calls under a bounded retry policy.
//
// Run drives one logical operation through PENDING, ATTEMPTING, RETRY_WAIT,
// and finally SUCCESS or EXHAUSTED. Each attempt is bounded by a per-call
// deadline, its result is checked by an acceptance Predicate, and a rejected
// result is treated exactly like a returned error. Every attempt appends one
// Record to the orchestrator's Log and to any attached Sinks; Summarize turns
// records into the statistics shown by `captionsync retries`.
//
// Backoff is base·2^attempt capped at the maximum when exponential mode is
// on, otherwise the constant base delay, optionally spread by a jitter
// fraction. Sleeps honour context cancellation.
package retry
