// Package collab defines the boundary to the external speech-recognition and
// machine-translation collaborators.
//
// The pipeline only sees the Recognizer and Translator interfaces. The
// adapters here are file-backed: FileRecognizer reads an ASR JSON payload
// produced by an external tool, and Glossary serves translations from a
// JSON dictionary. Chain tries translators in order so a primary backend
// can fall back to a secondary one.
package collab
