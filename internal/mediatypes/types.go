package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind classifies a stored file for display and processing purposes.
type Kind string

const (
	// KindImage represents a still image.
	KindImage Kind = "image"
	// KindVideo represents a video clip.
	KindVideo Kind = "video"
)

// Format describes how one file extension is handled end to end.
// Adding a new format is a row in the table, not new control flow.
type Format struct {
	// Kind is the media classification for this extension.
	Kind Kind
	// MIME is the content type served for downloads.
	MIME string
	// Normalize indicates the file must be transcoded to JPEG before
	// it is stored (currently only HEIC).
	Normalize bool
	// Thumbnail indicates a still frame is derived after storage.
	Thumbnail bool
}

// Formats is the closed allow-list of upload extensions. Extensions are
// lowercase with the leading dot. Anything absent is rejected.
var Formats = map[string]Format{
	".png":  {Kind: KindImage, MIME: "image/png"},
	".jpg":  {Kind: KindImage, MIME: "image/jpeg"},
	".jpeg": {Kind: KindImage, MIME: "image/jpeg"},
	".gif":  {Kind: KindImage, MIME: "image/gif"},
	".bmp":  {Kind: KindImage, MIME: "image/bmp"},
	".webp": {Kind: KindImage, MIME: "image/webp"},
	".heic": {Kind: KindImage, MIME: "image/heic", Normalize: true},

	".mp4": {Kind: KindVideo, MIME: "video/mp4", Thumbnail: true},
	".mov": {Kind: KindVideo, MIME: "video/quicktime", Thumbnail: true},
	".avi": {Kind: KindVideo, MIME: "video/x-msvideo", Thumbnail: true},
	".mkv": {Kind: KindVideo, MIME: "video/x-matroska", Thumbnail: true},
}

// Ext returns the lowercase extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Lookup returns the format descriptor for a filename and whether its
// extension is on the allow-list. Matching is case-insensitive.
func Lookup(name string) (Format, bool) {
	f, ok := Formats[Ext(name)]
	return f, ok
}

// Allowed reports whether the filename's extension is accepted for upload.
func Allowed(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// KindOf returns the display classification for a stored filename.
// Files with unrecognized extensions are treated as images, matching
// the gallery's tolerance for foreign files in the upload directory.
func KindOf(name string) Kind {
	if f, ok := Lookup(name); ok {
		return f.Kind
	}
	return KindImage
}

// MimeOf returns the MIME type served for a stored filename, falling
// back to application/octet-stream for unrecognized extensions.
func MimeOf(name string) string {
	if f, ok := Lookup(name); ok {
		return f.MIME
	}
	return "application/octet-stream"
}
