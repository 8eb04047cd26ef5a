// Package transcript defines the timestamped Token representation shared by
// every timing stage and converts ASR collaborator output into it.
//
// Collaborators may report times in milliseconds and speakers as numbers or
// strings; Decode normalizes both at the boundary so downstream packages only
// ever see seconds and string speaker ids. Segments without word timings can
// be expanded into estimated word tokens with EstimateWords.
package transcript
