// Package language normalizes the language codes handed to the translation
// collaborator.
//
// Codes arrive in many shapes (ISO 639-1, ISO 639-2 in both its terminology
// and bibliographic forms, BCP 47 tags with regions, English names). Parse
// folds them into a golang.org/x/text/language Tag; ToISO2 derives the
// short form and DisplayName the English name. Formality is only forwarded
// for targets that support it.
package language
