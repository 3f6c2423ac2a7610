// Package handlers implements the HTTP surface of the gallery: the
// listing page, the upload batch endpoint, tag/comment/description
// mutations, delete and download, plus health and version endpoints.
// Failures surface as transient flash messages followed by a redirect
// back to the gallery; no handler error is fatal to the process.
package handlers
