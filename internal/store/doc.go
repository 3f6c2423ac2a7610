// Package store persists gallery metadata as four flat JSON documents
// (descriptions, albums, comments, tags), each a single object keyed by
// stored filename. All mutations serialize behind one mutex and write
// whole documents, keeping the documents hand-readable on disk while
// eliminating lost updates between concurrent requests.
package store
