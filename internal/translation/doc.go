// Package translation maps a translated text stream back onto the timed
// segments it was produced from.
//
// The translation collaborator returns one string for the whole source
// text. Align splits it into sentences and pairs them with segments; when
// the counts disagree the words are spread evenly instead. Timing always
// comes from the source segments.
package translation
