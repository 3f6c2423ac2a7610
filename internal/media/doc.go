// Package media provides the derive steps of the upload pipeline:
// storage identity assignment, HEIC to JPEG normalization via libvips,
// video thumbnail extraction using FFmpeg, and an image dimension probe
// for gallery display records.
package media
