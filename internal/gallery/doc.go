// Package gallery builds the display-ready media listing: it iterates
// the upload directory (most recent first), applies the tag and search
// filters, attaches metadata and thumbnail references, and computes the
// global tag vocabulary.
package gallery
