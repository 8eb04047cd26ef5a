// Package textutil provides the text helpers shared by the timing, quality,
// and caption stages: word splitting, Unicode-normalized length counting,
// sentence splitting, line wrapping, and token fingerprints for detecting
// repeated or untranslated text.
package textutil
