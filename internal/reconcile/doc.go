// Package reconcile repairs drift between the upload directory and the
// metadata documents: it prunes dangling entries, adopts orphan files
// with default metadata, and regenerates missing video thumbnails.
package reconcile
