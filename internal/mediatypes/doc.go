// Package mediatypes defines the closed table of supported upload
// formats and the per-extension processing flags (media kind, MIME
// type, normalization, thumbnail derivation).
package mediatypes
