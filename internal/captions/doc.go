// Package captions serializes timed cues into subtitle files.
//
// Three formats are supported: SubRip (SRT), WebVTT, and Advanced SubStation
// Alpha (ASS) with per-cue fade markup. Cues are built from stabilized
// display blocks or from segment-level tokens; text is wrapped to a maximum
// line width and, when a cue mixes speakers, prefixed with the dominant
// speaker. Inspect and Validate read rendered SRT or VTT back for sanity
// checks after a file is written.
package captions
