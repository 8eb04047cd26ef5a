// Package segmenter groups timed tokens into utterances bounded by natural
// pauses and punctuation.
//
// Segment closes a group at every natural break, merges very short
// utterances into a same-speaker predecessor, and splits over-long
// utterances near a target duration at punctuation or before a coordinating
// conjunction. Quality and PauseStats summarize the result for the quality
// report.
package segmenter
