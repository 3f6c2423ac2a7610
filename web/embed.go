// Package web embeds the HTML templates for the gallery pages.
package web

import "embed"

// Templates holds the embedded page templates.
//
//go:embed templates/*.html
var Templates embed.FS
