// Package quality validates transcription, translation, and caption timing,
// combines per-stage confidence into an overall label, and assembles the
// QualityReport shown at the end of a run.
//
// Every function here is pure: it inspects its inputs and returns structured
// results. Failed validations downgrade the report; they never abort a run.
package quality
