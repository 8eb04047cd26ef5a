// Package audiosync estimates and applies a global time offset between a
// transcript timeline and the audio it was recognized from.
//
// The input is an EnergyProfile: RMS amplitude per fixed hop (25ms by
// default), computed from a WAV file or supplied directly. A Corrector runs an
// ordered chain of Estimators (onset alignment, energy cross-correlation,
// rhythm correlation, heuristic) and returns the first estimate whose
// confidence clears the minimum threshold, falling back to the most
// confident candidate. Apply shifts each utterance adaptively, validating
// every shift and keeping the original timing when a shift cannot be made
// safe.
//
// Profiles are cached by source file in a ProfileCache that is safe for
// concurrent use and can persist to disk under a file lock so that several
// captionsync processes share the work.
package audiosync
