// Package pipeline runs one caption job end to end: recognition, timing
// repair, audio offset correction, segmentation, translation, segment
// reprocessing, display blocks, quality grading and caption rendering.
//
// Stages run in a fixed order and check for cancellation before they start.
// Collaborator calls go through the retry orchestrator; only errors that
// services.Aborts reports stop a run, everything else degrades the stage and
// is logged.
package pipeline
